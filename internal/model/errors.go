package model

import "errors"

// Common errors used across the application
var (
	// Identity errors
	ErrInvalidIdentity  = errors.New("identity must not be empty")
	ErrIdentityNotFound = errors.New("identity is not bound to a connection")

	// Player errors
	ErrPlayerNotFound   = errors.New("player not found in room")
	ErrNotInRoom        = errors.New("player is not a member of the room")
	ErrAlreadyConnected = errors.New("player is already connected")

	// Room errors
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrNotCreator       = errors.New("player is not the room creator")
	ErrWrongPlayerCount = errors.New("round requires exactly two connected players")
	ErrRoundActive      = errors.New("round already in progress")
	ErrNoActiveRound    = errors.New("no round in progress")

	// Guess errors
	ErrInvalidGuess      = errors.New("guess must be five letters")
	ErrInvalidRow        = errors.New("invalid board row")
	ErrAttemptsExhausted = errors.New("no attempts remaining")

	// Board errors
	ErrBoardNotFound = errors.New("board not found")

	// Word list errors
	ErrWordsNotLoaded = errors.New("word list not loaded")
)
