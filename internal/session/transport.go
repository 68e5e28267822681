package session

import "github.com/mcoot/wordduel/internal/model"

// Transport delivers outbound events to connections. Implementations must
// not block and must not call back into the Controller from these methods.
// Messages to one connection are delivered in call order.
type Transport interface {
	// Send delivers to a single connection
	Send(conn model.ConnectionID, event model.EventType, payload any)
	// BroadcastRoom delivers to every connection subscribed to the room
	BroadcastRoom(roomID model.RoomID, event model.EventType, payload any)
	// BroadcastAll delivers to every open connection
	BroadcastAll(event model.EventType, payload any)

	Subscribe(conn model.ConnectionID, roomID model.RoomID)
	Unsubscribe(conn model.ConnectionID, roomID model.RoomID)
	UnsubscribeAll(conn model.ConnectionID)
	// CloseRoom drops every subscription to the room
	CloseRoom(roomID model.RoomID)
}
