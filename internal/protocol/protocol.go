// Package protocol defines the websocket wire format: a JSON envelope naming
// the event plus its payload, and the closed set of inbound events.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mcoot/wordduel/internal/model"
)

// Inbound event names
const (
	NameIdentify           = "identify"
	NameCreateRoom         = "createRoom"
	NameJoinRoom           = "joinRoom"
	NameStartGame          = "startGame"
	NameMakeGuess          = "makeGuess"
	NameUpdateCurrentGuess = "updateCurrentGuess"
	NameKickPlayer         = "kickPlayer"
	NameRequestGameState   = "requestGameState"
	NameReconnectToGame    = "reconnectToGame"
)

var (
	ErrMalformedEnvelope = errors.New("malformed message envelope")
	ErrUnknownEvent      = errors.New("unknown event")
	ErrMalformedPayload  = errors.New("malformed event payload")
)

// Envelope is the frame carried by every websocket message
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Event is one inbound message. The set of implementations is closed.
type Event interface {
	EventName() string
	inbound()
}

// Identify binds the connection to an identity
type Identify struct {
	Identity model.PlayerID
}

// CreateRoom creates a room owned by the sender
type CreateRoom struct {
	Name string
}

// JoinRoom joins or rejoins a room. A nil Identity asks for a fresh one.
type JoinRoom struct {
	RoomID   model.RoomID    `json:"roomId"`
	Identity *model.PlayerID `json:"identity"`
}

// StartGame starts a round in a room
type StartGame struct {
	RoomID model.RoomID
}

// MakeGuess submits a guess for the sender's next row
type MakeGuess struct {
	RoomID model.RoomID `json:"roomId"`
	Guess  string       `json:"guess"`
	Row    int          `json:"row"`
}

// UpdateCurrentGuess mirrors the sender's unsubmitted draft
type UpdateCurrentGuess struct {
	RoomID       model.RoomID `json:"roomId"`
	CurrentGuess string       `json:"currentGuess"`
	Row          int          `json:"row"`
}

// KickPlayer removes a player on behalf of the room creator
type KickPlayer struct {
	RoomID   model.RoomID   `json:"roomId"`
	PlayerID model.PlayerID `json:"playerId"`
}

// RequestGameState asks for a snapshot of the room's round
type RequestGameState struct {
	RoomID model.RoomID
}

// ReconnectToGame resumes a seat held for a disconnected player
type ReconnectToGame struct {
	RoomID   model.RoomID   `json:"roomId"`
	PlayerID model.PlayerID `json:"playerId"`
}

func (Identify) EventName() string           { return NameIdentify }
func (CreateRoom) EventName() string         { return NameCreateRoom }
func (JoinRoom) EventName() string           { return NameJoinRoom }
func (StartGame) EventName() string          { return NameStartGame }
func (MakeGuess) EventName() string          { return NameMakeGuess }
func (UpdateCurrentGuess) EventName() string { return NameUpdateCurrentGuess }
func (KickPlayer) EventName() string         { return NameKickPlayer }
func (RequestGameState) EventName() string   { return NameRequestGameState }
func (ReconnectToGame) EventName() string    { return NameReconnectToGame }

func (Identify) inbound()           {}
func (CreateRoom) inbound()         {}
func (JoinRoom) inbound()           {}
func (StartGame) inbound()          {}
func (MakeGuess) inbound()          {}
func (UpdateCurrentGuess) inbound() {}
func (KickPlayer) inbound()         {}
func (RequestGameState) inbound()   {}
func (ReconnectToGame) inbound()    {}

// Decode parses one inbound frame
func Decode(raw []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	switch env.Event {
	case NameIdentify:
		var id model.PlayerID
		if err := decodeData(env, &id); err != nil {
			return nil, err
		}
		return Identify{Identity: id}, nil
	case NameCreateRoom:
		var name string
		if err := decodeData(env, &name); err != nil {
			return nil, err
		}
		return CreateRoom{Name: name}, nil
	case NameJoinRoom:
		var ev JoinRoom
		if err := decodeData(env, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case NameStartGame:
		var id model.RoomID
		if err := decodeData(env, &id); err != nil {
			return nil, err
		}
		return StartGame{RoomID: id}, nil
	case NameMakeGuess:
		var ev MakeGuess
		if err := decodeData(env, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case NameUpdateCurrentGuess:
		var ev UpdateCurrentGuess
		if err := decodeData(env, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case NameKickPlayer:
		var ev KickPlayer
		if err := decodeData(env, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case NameRequestGameState:
		var id model.RoomID
		if err := decodeData(env, &id); err != nil {
			return nil, err
		}
		return RequestGameState{RoomID: id}, nil
	case NameReconnectToGame:
		var ev ReconnectToGame
		if err := decodeData(env, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}

func decodeData(env Envelope, v any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("%w: %s has no data", ErrMalformedPayload, env.Event)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedPayload, env.Event, err)
	}
	return nil
}

// Encode builds an outbound frame
func Encode(event model.EventType, payload any) ([]byte, error) {
	env := struct {
		Event model.EventType `json:"event"`
		Data  any             `json:"data,omitempty"`
	}{Event: event, Data: payload}
	return json.Marshal(env)
}

// EncodeEvent builds a frame for an inbound event, as a client would send it
func EncodeEvent(ev Event) ([]byte, error) {
	var data any
	switch e := ev.(type) {
	case Identify:
		data = e.Identity
	case CreateRoom:
		data = e.Name
	case StartGame:
		data = e.RoomID
	case RequestGameState:
		data = e.RoomID
	default:
		data = e
	}
	return json.Marshal(struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}{Event: ev.EventName(), Data: data})
}
