package model

// EventType names an outbound message on the wire
type EventType string

const (
	// Identity events
	EventIdentified       EventType = "identified"
	EventAssignedPlayerID EventType = "assignedPlayerId"

	// Room membership events
	EventRoomCreated          EventType = "roomCreated"
	EventRoomJoined           EventType = "roomJoined"
	EventPlayerJoined         EventType = "playerJoined"
	EventPlayerReconnected    EventType = "playerReconnected"
	EventReconnected          EventType = "reconnected"
	EventPlayerDisconnected   EventType = "playerDisconnected"
	EventPlayerLeft           EventType = "playerLeft"
	EventPlayerKicked         EventType = "playerKicked"
	EventKickedFromRoom       EventType = "kickedFromRoom"
	EventOwnershipTransferred EventType = "ownershipTransferred"
	EventRoomListUpdate       EventType = "roomListUpdate"
	EventRoomStateUpdate      EventType = "roomStateUpdate"

	// Round events
	EventGameStarted        EventType = "gameStarted"
	EventGuessResult        EventType = "guessResult"
	EventUpdateCurrentGuess EventType = "updateCurrentGuess"
	EventGameOver           EventType = "gameOver"
	EventGameReset          EventType = "gameReset"
	EventGameStateUpdate    EventType = "gameStateUpdate"

	// Error events
	EventInvalidLobby    EventType = "invalidLobby"
	EventJoinError       EventType = "joinError"
	EventStartGameError  EventType = "startGameError"
	EventKickPlayerError EventType = "kickPlayerError"
	EventGuessError      EventType = "guessError"
)

// RoomPayload is the public view of a room sent to clients
type RoomPayload struct {
	ID      RoomID   `json:"id"`
	Name    string   `json:"name"`
	Creator PlayerID `json:"creator"`
	Players []Player `json:"players"`
}

// NewRoomPayload builds the public view of a room
func NewRoomPayload(r *Room) RoomPayload {
	players := append([]Player{}, r.Players...)
	return RoomPayload{
		ID:      r.ID,
		Name:    r.Name,
		Creator: r.Creator,
		Players: players,
	}
}

// RoomJoinedPayload is sent to a connection that joined a room
type RoomJoinedPayload struct {
	Room      RoomPayload `json:"room"`
	GameState *GameRound  `json:"gameState"`
}

// RoomStatePayload is broadcast when membership or round state changes
type RoomStatePayload struct {
	Room      RoomPayload `json:"room"`
	GameState *GameRound  `json:"gameState"`
}

// PlayerJoinedPayload announces a new member
type PlayerJoinedPayload struct {
	ID   PlayerID `json:"id"`
	Name string   `json:"name"`
}

// PlayerReconnectedPayload announces a returning member
type PlayerReconnectedPayload struct {
	PlayerID PlayerID `json:"playerId"`
	Name     string   `json:"name"`
}

// ReconnectedPayload confirms a reconnection to the returning connection
type ReconnectedPayload struct {
	PlayerID PlayerID `json:"playerId"`
	RoomID   RoomID   `json:"roomId"`
}

// CurrentGuessPayload mirrors a player's unsubmitted draft
type CurrentGuessPayload struct {
	PlayerID     PlayerID `json:"playerId"`
	CurrentGuess string   `json:"currentGuess"`
	Row          int      `json:"row"`
}

// GameOverPayload ends a round. Winner is nil for a stalemate or abort.
type GameOverPayload struct {
	Word   string    `json:"word"`
	Winner *PlayerID `json:"winner"`
}

// GameStatePayload is a full snapshot for a (re)joining client
type GameStatePayload struct {
	GameState    *GameRound                `json:"gameState"`
	BoardContent map[PlayerID][]*BoardCell `json:"boardContent"`
	Room         *RoomPayload              `json:"room,omitempty"`
}
