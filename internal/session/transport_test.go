package session

import (
	"sync"

	"github.com/mcoot/wordduel/internal/model"
)

type sentEvent struct {
	Event   model.EventType
	Payload any
}

// recordingTransport delivers to in-memory inboxes, following the same
// subscription rules as the websocket hub
type recordingTransport struct {
	mu     sync.Mutex
	open   map[model.ConnectionID]bool
	subs   map[model.RoomID]map[model.ConnectionID]bool
	inbox  map[model.ConnectionID][]sentEvent
	closed []model.RoomID
}

var _ Transport = (*recordingTransport)(nil)

func newRecordingTransport() *recordingTransport {
	return &recordingTransport{
		open:  make(map[model.ConnectionID]bool),
		subs:  make(map[model.RoomID]map[model.ConnectionID]bool),
		inbox: make(map[model.ConnectionID][]sentEvent),
	}
}

func (t *recordingTransport) connect(conn model.ConnectionID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.open[conn] = true
}

func (t *recordingTransport) disconnect(conn model.ConnectionID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.open, conn)
}

func (t *recordingTransport) Send(conn model.ConnectionID, event model.EventType, payload any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deliver(conn, event, payload)
}

func (t *recordingTransport) BroadcastRoom(roomID model.RoomID, event model.EventType, payload any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for conn := range t.subs[roomID] {
		t.deliver(conn, event, payload)
	}
}

func (t *recordingTransport) BroadcastAll(event model.EventType, payload any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for conn := range t.open {
		t.deliver(conn, event, payload)
	}
}

func (t *recordingTransport) Subscribe(conn model.ConnectionID, roomID model.RoomID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.subs[roomID] == nil {
		t.subs[roomID] = make(map[model.ConnectionID]bool)
	}
	t.subs[roomID][conn] = true
}

func (t *recordingTransport) Unsubscribe(conn model.ConnectionID, roomID model.RoomID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.subs[roomID], conn)
}

func (t *recordingTransport) UnsubscribeAll(conn model.ConnectionID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, conns := range t.subs {
		delete(conns, conn)
	}
}

func (t *recordingTransport) CloseRoom(roomID model.RoomID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.subs, roomID)
	t.closed = append(t.closed, roomID)
}

func (t *recordingTransport) deliver(conn model.ConnectionID, event model.EventType, payload any) {
	if !t.open[conn] {
		return
	}
	t.inbox[conn] = append(t.inbox[conn], sentEvent{Event: event, Payload: payload})
}

// events returns the event names delivered to conn, in order
func (t *recordingTransport) events(conn model.ConnectionID) []model.EventType {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.EventType, 0, len(t.inbox[conn]))
	for _, e := range t.inbox[conn] {
		out = append(out, e.Event)
	}
	return out
}

// drain returns and clears conn's inbox
func (t *recordingTransport) drain(conn model.ConnectionID) []sentEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.inbox[conn]
	t.inbox[conn] = nil
	return out
}

// last returns the most recent payload of the event sent to conn
func (t *recordingTransport) last(conn model.ConnectionID, event model.EventType) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	msgs := t.inbox[conn]
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Event == event {
			return msgs[i].Payload, true
		}
	}
	return nil, false
}

func (t *recordingTransport) count(conn model.ConnectionID, event model.EventType) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, e := range t.inbox[conn] {
		if e.Event == event {
			n++
		}
	}
	return n
}
