package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/wordduel/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

func newRoom(id model.RoomID, createdAt time.Time) *model.Room {
	return &model.Room{
		ID:      id,
		Name:    "Room " + string(id),
		Creator: "player-a",
		Players: []model.Player{
			{ID: "player-a", DisplayName: "Alice", Connected: true},
		},
		CreatedAt: createdAt,
	}
}

// Room tests

func (s *StorageSuite) TestSaveAndGetRoom() {
	room := newRoom("room-1", time.Now())

	err := s.storage.SaveRoom(s.ctx, room)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetRoom(s.ctx, "room-1")
	s.Require().NoError(err)
	s.Equal(room.Name, retrieved.Name)
	s.Equal(room.Players, retrieved.Players)
}

func (s *StorageSuite) TestGetRoomNotFound() {
	_, err := s.storage.GetRoom(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestGetRoomReturnsCopy() {
	_ = s.storage.SaveRoom(s.ctx, newRoom("room-1", time.Now()))

	loaded, _ := s.storage.GetRoom(s.ctx, "room-1")
	loaded.Players[0].Connected = false
	loaded.Name = "changed"

	again, err := s.storage.GetRoom(s.ctx, "room-1")
	s.Require().NoError(err)
	s.True(again.Players[0].Connected)
	s.Equal("Room room-1", again.Name)
}

func (s *StorageSuite) TestDeleteRoom() {
	_ = s.storage.SaveRoom(s.ctx, newRoom("room-1", time.Now()))

	s.Require().NoError(s.storage.DeleteRoom(s.ctx, "room-1"))

	exists, err := s.storage.RoomExists(s.ctx, "room-1")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *StorageSuite) TestListRoomsOldestFirst() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = s.storage.SaveRoom(s.ctx, newRoom("room-b", base.Add(time.Minute)))
	_ = s.storage.SaveRoom(s.ctx, newRoom("room-a", base))

	rooms, err := s.storage.ListRooms(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(rooms, 2)
	s.Equal(model.RoomID("room-a"), rooms[0].ID)
	s.Equal(model.RoomID("room-b"), rooms[1].ID)
}

// Board tests

func (s *StorageSuite) TestSaveAndGetBoard() {
	board := model.NewBoard("room-1")
	board.SetRow("player-a", 1, model.BoardCell{Guess: "CRA"})

	s.Require().NoError(s.storage.SaveBoard(s.ctx, board))

	retrieved, err := s.storage.GetBoard(s.ctx, "room-1")
	s.Require().NoError(err)
	s.Nil(retrieved.Row("player-a", 0))
	s.Equal("CRA", retrieved.Row("player-a", 1).Guess)
	s.True(retrieved.Row("player-a", 1).IsDraft())
}

func (s *StorageSuite) TestGetBoardNotFound() {
	_, err := s.storage.GetBoard(s.ctx, "room-1")
	s.ErrorIs(err, model.ErrBoardNotFound)
}

func (s *StorageSuite) TestDeleteBoard() {
	_ = s.storage.SaveBoard(s.ctx, model.NewBoard("room-1"))

	s.Require().NoError(s.storage.DeleteBoard(s.ctx, "room-1"))

	_, err := s.storage.GetBoard(s.ctx, "room-1")
	s.ErrorIs(err, model.ErrBoardNotFound)
}

// Word list tests

func (s *StorageSuite) TestDictionaryWordsNotLoaded() {
	_, err := s.storage.GetDictionaryWords(s.ctx)
	s.ErrorIs(err, model.ErrWordsNotLoaded)
}

func (s *StorageSuite) TestSaveAndGetDictionaryWords() {
	s.Require().NoError(s.storage.SaveDictionaryWords(s.ctx, []string{"APPLE", "BEACH"}))

	words, err := s.storage.GetDictionaryWords(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"APPLE", "BEACH"}, words)
}

// Reset tests

func (s *StorageSuite) TestResetDropsRoomsAndBoards() {
	_ = s.storage.SaveRoom(s.ctx, newRoom("room-1", time.Now()))
	_ = s.storage.SaveBoard(s.ctx, model.NewBoard("room-1"))
	_ = s.storage.SaveDictionaryWords(s.ctx, []string{"APPLE"})

	s.Require().NoError(s.storage.Reset(s.ctx))

	rooms, err := s.storage.ListRooms(s.ctx)
	s.Require().NoError(err)
	s.Empty(rooms)
	_, err = s.storage.GetBoard(s.ctx, "room-1")
	s.ErrorIs(err, model.ErrBoardNotFound)

	words, err := s.storage.GetDictionaryWords(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"APPLE"}, words)
}
