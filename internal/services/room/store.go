package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mcoot/wordduel/internal/dependencies/clock"
	"github.com/mcoot/wordduel/internal/dependencies/random"
	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/services/guess"
	"github.com/mcoot/wordduel/internal/services/words"
	"github.com/mcoot/wordduel/internal/storage"
)

const (
	// PlayerIDPrefix starts every server-generated identity
	PlayerIDPrefix = "player-"
	// PlayerIDLength is the number of random characters after the prefix
	PlayerIDLength = 9
	// PlayerIDAlphabet is the characters used in generated identities
	PlayerIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// JoinResult describes the outcome of a successful join
type JoinResult struct {
	Room              *model.Room
	Player            model.Player
	IsNewPlayer       bool // false when an existing member reconnected
	IdentityGenerated bool // true when the caller supplied no identity
}

// GuessOutcome is a committed guess plus the round-end decision it triggered
type GuessOutcome struct {
	Record     model.GuessRecord
	RoundEnded bool
	Word       string          // the secret, set when the round ended
	Winner     *model.PlayerID // nil for a stalemate
	Room       *model.Room
}

// RemovalResult describes what happened to a room when a player left it
type RemovalResult struct {
	Removed                model.Player
	Room                   *model.Room // nil when destroyed
	RoomDestroyed          bool
	OwnershipTransferredTo *model.PlayerID
	RoundAborted           bool
}

// Store owns room membership, ownership and round state. Every method loads
// the room, validates, then mutates and saves, so a failed call leaves
// stored state untouched.
type Store struct {
	storage storage.Storage
	words   words.ServiceInterface
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// NewStore creates a new room Store
func NewStore(
	storage storage.Storage,
	words words.ServiceInterface,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Store {
	return &Store{
		storage: storage,
		words:   words,
		clock:   clock,
		random:  random,
		logger:  logger,
	}
}

// NewIdentity generates a fresh player identity
func (s *Store) NewIdentity() model.PlayerID {
	return model.PlayerID(PlayerIDPrefix + s.random.String(PlayerIDLength, PlayerIDAlphabet))
}

// CreateRoom creates a room with the owner as its only, connected player
func (s *Store) CreateRoom(ctx context.Context, name string, owner model.PlayerID, displayName string) (*model.Room, error) {
	if owner == "" {
		return nil, model.ErrInvalidIdentity
	}

	var id model.RoomID
	for {
		id = model.RoomID(s.random.UUID())
		exists, err := s.storage.RoomExists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			break
		}
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = "Room " + string(id)[:min(len(id), 8)]
	}
	if displayName == "" {
		displayName = model.DefaultDisplayName(owner)
	}

	room := &model.Room{
		ID:      id,
		Name:    name,
		Creator: owner,
		Players: []model.Player{
			{ID: owner, DisplayName: displayName, Connected: true},
		},
		CreatedAt: s.clock.Now(),
	}

	if err := s.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	s.logger.Info("room created",
		slog.String("room_id", string(id)),
		slog.String("player_id", string(owner)),
	)

	return room, nil
}

// GetRoom retrieves a room by id
func (s *Store) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	return s.storage.GetRoom(ctx, id)
}

// ListRooms returns the public listing of every room
func (s *Store) ListRooms(ctx context.Context) ([]model.RoomSummary, error) {
	rooms, err := s.storage.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]model.RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		summaries = append(summaries, r.Summary())
	}
	return summaries, nil
}

// RoomsContaining returns every room in which the identity has a player entry
func (s *Store) RoomsContaining(ctx context.Context, id model.PlayerID) ([]*model.Room, error) {
	rooms, err := s.storage.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	var out []*model.Room
	for _, r := range rooms {
		if r.IsMember(id) {
			out = append(out, r)
		}
	}
	return out, nil
}

// JoinRoom admits a player. An identity that is already a member is treated
// as a reconnection and bypasses the capacity check. A nil identity is
// replaced with a freshly generated one.
func (s *Store) JoinRoom(ctx context.Context, roomID model.RoomID, identity *model.PlayerID) (*JoinResult, error) {
	room, err := s.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if identity != nil && *identity != "" {
		if existing := room.GetPlayer(*identity); existing != nil {
			existing.Connected = true
			if err := s.storage.SaveRoom(ctx, room); err != nil {
				return nil, err
			}
			return &JoinResult{Room: room, Player: *existing}, nil
		}
	}

	if room.IsFull() {
		return nil, model.ErrRoomFull
	}

	result := &JoinResult{IsNewPlayer: true}
	var id model.PlayerID
	if identity != nil && *identity != "" {
		id = *identity
	} else {
		id = s.NewIdentity()
		result.IdentityGenerated = true
	}

	player := model.Player{
		ID:          id,
		DisplayName: model.DefaultDisplayName(id),
		Connected:   true,
	}
	room.Players = append(room.Players, player)

	if err := s.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	s.logger.Info("player joined room",
		slog.String("room_id", string(roomID)),
		slog.String("player_id", string(id)),
		slog.Int("player_count", len(room.Players)),
	)

	result.Room = room
	result.Player = player
	return result, nil
}

// StartRound begins a round. Only the creator may start it, and only with
// exactly two connected players and no round already running.
func (s *Store) StartRound(ctx context.Context, roomID model.RoomID, requester model.PlayerID) (*model.GameRound, error) {
	room, err := s.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if room.Creator != requester {
		return nil, model.ErrNotCreator
	}
	if room.ConnectedCount() != model.MaxPlayers {
		return nil, model.ErrWrongPlayerCount
	}
	if room.HasActiveRound() {
		return nil, model.ErrRoundActive
	}

	word, err := s.words.PickSecret()
	if err != nil {
		return nil, err
	}

	room.Game = model.NewGameRound(word)

	if err := s.storage.DeleteBoard(ctx, roomID); err != nil {
		return nil, err
	}
	if err := s.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	s.logger.Info("round started",
		slog.String("room_id", string(roomID)),
		slog.String("player_id", string(requester)),
	)

	return room.Game, nil
}

// SubmitGuess evaluates and records a guess, then applies the round-end
// policy: a correct guess wins; otherwise once the guesser has used every
// attempt and the connected opponent (if any) has too, the round ends with
// no winner. An ended round is cleared together with the room's board.
func (s *Store) SubmitGuess(ctx context.Context, roomID model.RoomID, id model.PlayerID, text string, row int) (*GuessOutcome, error) {
	room, err := s.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasActiveRound() {
		return nil, model.ErrNoActiveRound
	}
	if !room.IsMember(id) {
		return nil, model.ErrNotInRoom
	}

	normalized, err := guess.Normalize(text)
	if err != nil {
		return nil, err
	}

	game := room.Game
	attempts := game.AttemptCount(id)
	if attempts >= model.MaxAttempts {
		return nil, model.ErrAttemptsExhausted
	}
	if row != attempts {
		return nil, model.ErrInvalidRow
	}

	record := model.GuessRecord{
		PlayerID: id,
		Guess:    normalized,
		Result:   guess.Evaluate(normalized, game.Word),
		Row:      row,
	}
	game.Guesses = append(game.Guesses, record)

	outcome := &GuessOutcome{Record: record, Room: room}

	switch {
	case guess.IsSolved(record.Result):
		outcome.RoundEnded = true
		outcome.Winner = model.PlayerIDPtr(id)
	case attempts+1 >= model.MaxAttempts:
		opponent := room.ConnectedOpponent(id)
		if opponent == nil || game.AttemptCount(opponent.ID) >= model.MaxAttempts {
			outcome.RoundEnded = true
		}
	}

	if outcome.RoundEnded {
		outcome.Word = game.Word
		room.Game = nil
		if err := s.storage.DeleteBoard(ctx, roomID); err != nil {
			return nil, err
		}
	} else {
		board, err := s.loadBoard(ctx, roomID)
		if err != nil {
			return nil, err
		}
		board.SetRow(id, row, model.BoardCell{Guess: record.Guess, Result: record.Result})
		if err := s.storage.SaveBoard(ctx, board); err != nil {
			return nil, err
		}
	}

	if err := s.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	if outcome.RoundEnded {
		attrs := []any{
			slog.String("room_id", string(roomID)),
			slog.Bool("stalemate", outcome.Winner == nil),
		}
		if outcome.Winner != nil {
			attrs = append(attrs, slog.String("player_id", string(*outcome.Winner)))
		}
		s.logger.Info("round ended", attrs...)
	}

	return outcome, nil
}

// UpdateDraft records an unsubmitted guess in the board only. Drafts may not
// overwrite a committed row. Returns the normalised draft text.
func (s *Store) UpdateDraft(ctx context.Context, roomID model.RoomID, id model.PlayerID, text string, row int) (string, error) {
	room, err := s.storage.GetRoom(ctx, roomID)
	if err != nil {
		return "", err
	}
	if !room.HasActiveRound() {
		return "", model.ErrNoActiveRound
	}
	if !room.IsMember(id) {
		return "", model.ErrNotInRoom
	}

	draft, err := guess.NormalizeDraft(text)
	if err != nil {
		return "", err
	}
	if row < room.Game.AttemptCount(id) || row >= model.MaxAttempts {
		return "", model.ErrInvalidRow
	}

	board, err := s.loadBoard(ctx, roomID)
	if err != nil {
		return "", err
	}
	board.SetRow(id, row, model.BoardCell{Guess: draft})
	if err := s.storage.SaveBoard(ctx, board); err != nil {
		return "", err
	}
	return draft, nil
}

// GameState returns the room and its board. The board is empty when no
// round is active or nothing has been typed yet.
func (s *Store) GameState(ctx context.Context, roomID model.RoomID) (*model.Room, *model.Board, error) {
	room, err := s.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	board, err := s.loadBoard(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	return room, board, nil
}

// MarkDisconnected flags a member as disconnected without removing them
func (s *Store) MarkDisconnected(ctx context.Context, roomID model.RoomID, id model.PlayerID) (*model.Room, error) {
	return s.setConnected(ctx, roomID, id, false)
}

// MarkReconnected flags a member as connected again
func (s *Store) MarkReconnected(ctx context.Context, roomID model.RoomID, id model.PlayerID) (*model.Room, error) {
	return s.setConnected(ctx, roomID, id, true)
}

// setConnected flips a member's connection flag. Reconnecting a member that
// is already connected fails with ErrAlreadyConnected.

func (s *Store) setConnected(ctx context.Context, roomID model.RoomID, id model.PlayerID, connected bool) (*model.Room, error) {
	room, err := s.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	player := room.GetPlayer(id)
	if player == nil {
		return nil, model.ErrNotInRoom
	}
	if connected && player.Connected {
		return nil, model.ErrAlreadyConnected
	}
	player.Connected = connected
	if err := s.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

// RemovePlayer removes a member. Ownership passes to the earliest-joined
// remaining player, an active round is aborted once fewer than two players
// remain connected, and an empty room is destroyed.
func (s *Store) RemovePlayer(ctx context.Context, roomID model.RoomID, id model.PlayerID) (*RemovalResult, error) {
	room, err := s.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsMember(id) {
		return nil, model.ErrPlayerNotFound
	}
	return s.remove(ctx, room, id)
}

// KickPlayer removes target on behalf of the room creator
func (s *Store) KickPlayer(ctx context.Context, roomID model.RoomID, requester, target model.PlayerID) (*RemovalResult, error) {
	room, err := s.storage.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Creator != requester {
		return nil, model.ErrNotCreator
	}
	if !room.IsMember(target) {
		return nil, model.ErrPlayerNotFound
	}

	result, err := s.remove(ctx, room, target)
	if err != nil {
		return nil, err
	}

	s.logger.Info("player kicked",
		slog.String("room_id", string(roomID)),
		slog.String("player_id", string(target)),
		slog.Bool("round_aborted", result.RoundAborted),
	)
	return result, nil
}

func (s *Store) remove(ctx context.Context, room *model.Room, id model.PlayerID) (*RemovalResult, error) {
	result := &RemovalResult{Removed: *room.GetPlayer(id)}
	room.RemovePlayer(id)

	if len(room.Players) == 0 {
		if err := s.storage.DeleteBoard(ctx, room.ID); err != nil {
			return nil, err
		}
		if err := s.storage.DeleteRoom(ctx, room.ID); err != nil {
			return nil, err
		}
		result.RoomDestroyed = true

		s.logger.Info("room destroyed", slog.String("room_id", string(room.ID)))
		return result, nil
	}

	if room.Creator == id {
		room.Creator = room.Players[0].ID
		result.OwnershipTransferredTo = model.PlayerIDPtr(room.Creator)
	}

	if room.HasActiveRound() && room.ConnectedCount() < model.MaxPlayers {
		room.Game = nil
		result.RoundAborted = true
		if err := s.storage.DeleteBoard(ctx, room.ID); err != nil {
			return nil, err
		}
	}

	if err := s.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	s.logger.Info("player removed from room",
		slog.String("room_id", string(room.ID)),
		slog.String("player_id", string(id)),
		slog.Int("player_count", len(room.Players)),
	)

	result.Room = room
	return result, nil
}

func (s *Store) loadBoard(ctx context.Context, roomID model.RoomID) (*model.Board, error) {
	board, err := s.storage.GetBoard(ctx, roomID)
	if errors.Is(err, model.ErrBoardNotFound) {
		return model.NewBoard(roomID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load board: %w", err)
	}
	return board, nil
}

// StoreInterface for dependency injection
type StoreInterface interface {
	NewIdentity() model.PlayerID
	CreateRoom(ctx context.Context, name string, owner model.PlayerID, displayName string) (*model.Room, error)
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
	ListRooms(ctx context.Context) ([]model.RoomSummary, error)
	RoomsContaining(ctx context.Context, id model.PlayerID) ([]*model.Room, error)
	JoinRoom(ctx context.Context, roomID model.RoomID, identity *model.PlayerID) (*JoinResult, error)
	StartRound(ctx context.Context, roomID model.RoomID, requester model.PlayerID) (*model.GameRound, error)
	SubmitGuess(ctx context.Context, roomID model.RoomID, id model.PlayerID, text string, row int) (*GuessOutcome, error)
	UpdateDraft(ctx context.Context, roomID model.RoomID, id model.PlayerID, text string, row int) (string, error)
	GameState(ctx context.Context, roomID model.RoomID) (*model.Room, *model.Board, error)
	MarkDisconnected(ctx context.Context, roomID model.RoomID, id model.PlayerID) (*model.Room, error)
	MarkReconnected(ctx context.Context, roomID model.RoomID, id model.PlayerID) (*model.Room, error)
	RemovePlayer(ctx context.Context, roomID model.RoomID, id model.PlayerID) (*RemovalResult, error)
	KickPlayer(ctx context.Context, roomID model.RoomID, requester, target model.PlayerID) (*RemovalResult, error)
}

var _ StoreInterface = (*Store)(nil)
