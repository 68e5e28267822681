package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	rooms           map[model.RoomID]*model.Room
	boards          map[model.RoomID]*model.Board
	dictionaryWords []string
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		rooms:  make(map[model.RoomID]*model.Room),
		boards: make(map[model.RoomID]*model.Board),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room.Clone()
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return room.Clone(), nil
}

func (s *Storage) DeleteRoom(ctx context.Context, id model.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
	return nil
}

func (s *Storage) RoomExists(ctx context.Context, id model.RoomID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[id]
	return ok, nil
}

// ListRooms returns all rooms, oldest first
func (s *Storage) ListRooms(ctx context.Context) ([]*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rooms := make([]*model.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room.Clone())
	}
	sortRooms(rooms)
	return rooms, nil
}

// Board operations

func (s *Storage) SaveBoard(ctx context.Context, board *model.Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards[board.RoomID] = board.Clone()
	return nil
}

func (s *Storage) GetBoard(ctx context.Context, roomID model.RoomID) (*model.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	board, ok := s.boards[roomID]
	if !ok {
		return nil, model.ErrBoardNotFound
	}
	return board.Clone(), nil
}

func (s *Storage) DeleteBoard(ctx context.Context, roomID model.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.boards, roomID)
	return nil
}

// Word list operations

func (s *Storage) GetDictionaryWords(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dictionaryWords == nil {
		return nil, model.ErrWordsNotLoaded
	}
	result := make([]string, len(s.dictionaryWords))
	copy(result, s.dictionaryWords)
	return result, nil
}

func (s *Storage) SaveDictionaryWords(ctx context.Context, words []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dictionaryWords = make([]string, len(words))
	copy(s.dictionaryWords, words)
	return nil
}

func (s *Storage) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms = make(map[model.RoomID]*model.Room)
	s.boards = make(map[model.RoomID]*model.Board)
	return nil
}

func sortRooms(rooms []*model.Room) {
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].CreatedAt.Equal(rooms[j].CreatedAt) {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
}
