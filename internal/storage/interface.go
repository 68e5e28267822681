package storage

import (
	"context"

	"github.com/mcoot/wordduel/internal/model"
)

// Storage defines the interface for room state persistence. Implementations
// return independent copies, so callers may mutate what they load without
// affecting stored state until they save it.
type Storage interface {
	// Room operations
	SaveRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
	DeleteRoom(ctx context.Context, id model.RoomID) error
	RoomExists(ctx context.Context, id model.RoomID) (bool, error)
	ListRooms(ctx context.Context) ([]*model.Room, error)

	// Board operations
	SaveBoard(ctx context.Context, board *model.Board) error
	GetBoard(ctx context.Context, roomID model.RoomID) (*model.Board, error)
	DeleteBoard(ctx context.Context, roomID model.RoomID) error

	// Word list operations
	GetDictionaryWords(ctx context.Context) ([]string, error)
	SaveDictionaryWords(ctx context.Context, words []string) error

	// Reset drops all rooms and boards. Called at startup since room state
	// lives only as long as the process.
	Reset(ctx context.Context) error
}
