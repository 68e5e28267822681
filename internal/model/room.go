package model

import "time"

// RoomID uniquely identifies a room
type RoomID string

// MaxPlayers is the room capacity
const MaxPlayers = 2

// Room is a named container of up to two players and at most one active round
type Room struct {
	ID        RoomID     `json:"id"`
	Name      string     `json:"name"`
	Creator   PlayerID   `json:"creator"`
	Players   []Player   `json:"players"` // join order; earliest first
	Game      *GameRound `json:"game,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// RoomSummary is the public listing entry for a room
type RoomSummary struct {
	ID          RoomID `json:"id"`
	Name        string `json:"name"`
	PlayerCount int    `json:"playerCount"` // connected players only
}

// GetPlayer returns the player with the given id, or nil if not a member
func (r *Room) GetPlayer(id PlayerID) *Player {
	for i := range r.Players {
		if r.Players[i].ID == id {
			return &r.Players[i]
		}
	}
	return nil
}

// IsMember reports whether the identity has a player entry in the room
func (r *Room) IsMember(id PlayerID) bool {
	return r.GetPlayer(id) != nil
}

// IsFull reports whether the room has reached capacity
func (r *Room) IsFull() bool {
	return len(r.Players) >= MaxPlayers
}

// HasActiveRound reports whether a round is in progress
func (r *Room) HasActiveRound() bool {
	return r.Game != nil
}

// ConnectedCount returns the number of players currently connected
func (r *Room) ConnectedCount() int {
	count := 0
	for _, p := range r.Players {
		if p.Connected {
			count++
		}
	}
	return count
}

// ConnectedOpponent returns the first connected player other than id, or nil
func (r *Room) ConnectedOpponent(id PlayerID) *Player {
	for i := range r.Players {
		if r.Players[i].ID != id && r.Players[i].Connected {
			return &r.Players[i]
		}
	}
	return nil
}

// RemovePlayer deletes the player entry, keeping the order of the others.
// Returns false if the identity was not a member.
func (r *Room) RemovePlayer(id PlayerID) bool {
	for i := range r.Players {
		if r.Players[i].ID == id {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			return true
		}
	}
	return false
}

// Summary returns the listing entry for this room
func (r *Room) Summary() RoomSummary {
	return RoomSummary{
		ID:          r.ID,
		Name:        r.Name,
		PlayerCount: r.ConnectedCount(),
	}
}

// Clone returns a deep copy of the room
func (r *Room) Clone() *Room {
	out := *r
	out.Players = append([]Player(nil), r.Players...)
	if r.Game != nil {
		out.Game = r.Game.Clone()
	}
	return &out
}
