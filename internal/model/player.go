package model

// PlayerID is the opaque identity token a client presents to be recognised
// across reconnects
type PlayerID string

// ConnectionID identifies one live transport connection
type ConnectionID string

// displayNamePrefixLen is how many characters of the id go into a default name
const displayNamePrefixLen = 4

// Player represents a participant in a room
type Player struct {
	ID          PlayerID `json:"id"`
	DisplayName string   `json:"name"`
	Connected   bool     `json:"connected"`
}

// DefaultDisplayName derives a display name from an identity, e.g. "Player play"
func DefaultDisplayName(id PlayerID) string {
	s := string(id)
	if len(s) > displayNamePrefixLen {
		s = s[:displayNamePrefixLen]
	}
	return "Player " + s
}

// PlayerIDPtr returns a pointer to a copy of id, for optional fields
func PlayerIDPtr(id PlayerID) *PlayerID {
	return &id
}
