package session

import (
	"errors"

	"github.com/mcoot/wordduel/internal/model"
)

// User-facing strings carried in error and notice events
const (
	msgRoomDoesNotExist   = "Room does not exist."
	msgRoomFull           = "Room is full."
	msgJoinFailed         = "Unable to join the room."
	msgOnlyCreatorStart   = "Only the room creator can start the game."
	msgNeedTwoPlayers     = "The game requires 2 connected players to start."
	msgAlreadyStarted     = "The game has already started."
	msgStartFailed        = "Unable to start the game."
	msgOnlyCreatorKick    = "Only the room creator can kick players."
	msgPlayerNotFound     = "Player not found in the room."
	msgKickFailed         = "Unable to kick the player."
	msgKickReset          = "A player was kicked. The game has been reset."
	msgRoomClosed         = "This room has been closed due to inactivity."
	msgThisRoomMissing    = "This room does not exist."
	msgNotMember          = "You are not a member of this room."
	msgAlreadyConnected   = "Player is already connected."
	msgGameStoppedLeaving = "Game stopped due to player leaving."
	msgInvalidGuess       = "Guesses must be 5 letters A-Z."
	msgInvalidRow         = "That row is not available."
	msgNoAttemptsLeft     = "You have no guesses left."
	msgNoActiveRound      = "There is no game in progress."
	msgGuessFailed        = "Unable to submit the guess."
)

func joinErrorMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		return msgRoomDoesNotExist
	case errors.Is(err, model.ErrRoomFull):
		return msgRoomFull
	case errors.Is(err, model.ErrAlreadyConnected):
		return msgAlreadyConnected
	default:
		return msgJoinFailed
	}
}

func startGameErrorMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		return msgRoomDoesNotExist
	case errors.Is(err, model.ErrNotCreator):
		return msgOnlyCreatorStart
	case errors.Is(err, model.ErrWrongPlayerCount):
		return msgNeedTwoPlayers
	case errors.Is(err, model.ErrRoundActive):
		return msgAlreadyStarted
	default:
		return msgStartFailed
	}
}

func kickErrorMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrNotCreator):
		return msgOnlyCreatorKick
	case errors.Is(err, model.ErrPlayerNotFound):
		return msgPlayerNotFound
	default:
		return msgKickFailed
	}
}

func guessErrorMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrInvalidGuess):
		return msgInvalidGuess
	case errors.Is(err, model.ErrInvalidRow):
		return msgInvalidRow
	case errors.Is(err, model.ErrAttemptsExhausted):
		return msgNoAttemptsLeft
	case errors.Is(err, model.ErrNoActiveRound):
		return msgNoActiveRound
	case errors.Is(err, model.ErrNotInRoom):
		return msgNotMember
	default:
		return msgGuessFailed
	}
}

// isClientError reports whether err is a validation or lookup failure
// rather than an infrastructure fault
func isClientError(err error) bool {
	for _, target := range []error{
		model.ErrRoomNotFound,
		model.ErrRoomFull,
		model.ErrNotCreator,
		model.ErrWrongPlayerCount,
		model.ErrRoundActive,
		model.ErrNoActiveRound,
		model.ErrPlayerNotFound,
		model.ErrNotInRoom,
		model.ErrInvalidIdentity,
		model.ErrInvalidGuess,
		model.ErrInvalidRow,
		model.ErrAttemptsExhausted,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
