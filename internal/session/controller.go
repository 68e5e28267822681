// Package session turns inbound protocol events, connection lifecycle
// notifications and removal timer firings into RoomStore operations and
// outbound events.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/protocol"
	"github.com/mcoot/wordduel/internal/services/identity"
	"github.com/mcoot/wordduel/internal/services/room"
	"github.com/mcoot/wordduel/internal/services/scheduler"
)

// Controller is the single logical writer for all room state. Every entry
// point takes mu, and outbound events are handed to the transport before it
// is released, so subscribers see events in mutation order.
type Controller struct {
	mu        sync.Mutex
	rooms     room.StoreInterface
	registry  *identity.Registry
	scheduler *scheduler.Scheduler
	transport Transport
	logger    *slog.Logger
}

// NewController creates a Controller and registers it as the scheduler's
// fire callback
func NewController(
	rooms room.StoreInterface,
	registry *identity.Registry,
	sched *scheduler.Scheduler,
	transport Transport,
	logger *slog.Logger,
) *Controller {
	c := &Controller{
		rooms:     rooms,
		registry:  registry,
		scheduler: sched,
		transport: transport,
		logger:    logger.With(slog.String("component", "session")),
	}
	sched.SetFireFunc(c.handleRemoval)
	return c
}

// Connect greets a new connection with the current room list
func (c *Controller) Connect(ctx context.Context, conn model.ConnectionID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rooms, err := c.rooms.ListRooms(ctx)
	if err != nil {
		c.logger.Error("failed to list rooms", slog.Any("error", err))
		return
	}
	c.transport.Send(conn, model.EventRoomListUpdate, rooms)
}

// Handle processes one inbound event from conn
func (c *Controller) Handle(ctx context.Context, conn model.ConnectionID, ev protocol.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e := ev.(type) {
	case protocol.Identify:
		c.handleIdentify(ctx, conn, e)
	case protocol.CreateRoom:
		c.handleCreateRoom(ctx, conn, e)
	case protocol.JoinRoom:
		c.handleJoinRoom(ctx, conn, e)
	case protocol.StartGame:
		c.handleStartGame(ctx, conn, e)
	case protocol.MakeGuess:
		c.handleMakeGuess(ctx, conn, e)
	case protocol.UpdateCurrentGuess:
		c.handleUpdateCurrentGuess(ctx, conn, e)
	case protocol.KickPlayer:
		c.handleKickPlayer(ctx, conn, e)
	case protocol.RequestGameState:
		c.handleRequestGameState(ctx, conn, e)
	case protocol.ReconnectToGame:
		c.handleReconnectToGame(ctx, conn, e)
	default:
		c.logger.Warn("unhandled event",
			slog.String("conn_id", string(conn)),
			slog.String("event", ev.EventName()),
		)
	}
}

// Disconnect marks the connection's identity disconnected in each of its
// rooms and arms a removal timer per room. Nothing happens if the identity
// has already been rebound to a newer connection.
func (c *Controller) Disconnect(ctx context.Context, conn model.ConnectionID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.transport.UnsubscribeAll(conn)

	id, ok := c.registry.IdentityOf(conn)
	if !ok || !c.registry.UnbindIfMatches(id, conn) {
		return
	}
	c.markAway(ctx, conn, id)
}

// markAway treats id as having lost its connection: conn stops receiving its
// rooms' broadcasts, and id is marked disconnected with a removal timer in
// each room.
func (c *Controller) markAway(ctx context.Context, conn model.ConnectionID, id model.PlayerID) {
	rooms, err := c.rooms.RoomsContaining(ctx, id)
	if err != nil {
		c.logger.Error("failed to find rooms for player",
			slog.String("player_id", string(id)),
			slog.Any("error", err),
		)
		return
	}

	for _, r := range rooms {
		c.transport.Unsubscribe(conn, r.ID)
		updated, err := c.rooms.MarkDisconnected(ctx, r.ID, id)
		if err != nil {
			c.logger.Error("failed to mark player disconnected",
				slog.String("room_id", string(r.ID)),
				slog.String("player_id", string(id)),
				slog.Any("error", err),
			)
			continue
		}
		c.transport.BroadcastRoom(r.ID, model.EventPlayerDisconnected, id)
		delay := c.scheduler.DelayFor(updated.HasActiveRound())
		c.scheduler.ScheduleRemoval(r.ID, id, delay)

		c.logger.Info("player disconnected",
			slog.String("room_id", string(r.ID)),
			slog.String("player_id", string(id)),
			slog.Duration("grace", delay),
		)
	}

	if len(rooms) > 0 {
		c.broadcastRoomList(ctx)
	}
}

// Shutdown disarms every pending removal
func (c *Controller) Shutdown() {
	c.scheduler.Stop()
}

func (c *Controller) handleIdentify(ctx context.Context, conn model.ConnectionID, e protocol.Identify) {
	if e.Identity == "" {
		c.logger.Debug("ignoring empty identity", slog.String("conn_id", string(conn)))
		return
	}
	previous, resolveErr := c.registry.Resolve(e.Identity)
	if err := c.bind(ctx, e.Identity, conn); err != nil {
		c.logger.Warn("failed to bind identity", slog.Any("error", err))
		return
	}
	if resolveErr == nil && previous != conn {
		c.transport.UnsubscribeAll(previous)
	}
	c.transport.Send(conn, model.EventIdentified, nil)
}

func (c *Controller) handleCreateRoom(ctx context.Context, conn model.ConnectionID, e protocol.CreateRoom) {
	owner, ok := c.registry.IdentityOf(conn)
	if !ok {
		owner = c.rooms.NewIdentity()
		if err := c.bind(ctx, owner, conn); err != nil {
			c.logger.Error("failed to bind generated identity", slog.Any("error", err))
			return
		}
		c.transport.Send(conn, model.EventAssignedPlayerID, owner)
	}

	r, err := c.rooms.CreateRoom(ctx, e.Name, owner, "")
	if err != nil {
		c.logger.Error("failed to create room",
			slog.String("player_id", string(owner)),
			slog.Any("error", err),
		)
		return
	}

	c.transport.Subscribe(conn, r.ID)
	c.transport.Send(conn, model.EventRoomCreated, model.NewRoomPayload(r))
	c.broadcastRoomList(ctx)
}

func (c *Controller) handleJoinRoom(ctx context.Context, conn model.ConnectionID, e protocol.JoinRoom) {
	identity := e.Identity
	if identity == nil || *identity == "" {
		identity = nil
		if bound, ok := c.registry.IdentityOf(conn); ok {
			identity = model.PlayerIDPtr(bound)
		}
	}

	res, err := c.rooms.JoinRoom(ctx, e.RoomID, identity)
	if err != nil {
		c.logFailure("join room failed", e.RoomID, identity, err)
		c.transport.Send(conn, model.EventJoinError, joinErrorMessage(err))
		return
	}

	id := res.Player.ID
	c.rebind(ctx, conn, id, e.RoomID)
	c.scheduler.Cancel(e.RoomID, id)
	c.transport.Subscribe(conn, e.RoomID)

	if res.IsNewPlayer {
		if res.IdentityGenerated {
			c.transport.Send(conn, model.EventAssignedPlayerID, id)
		}
		c.transport.BroadcastRoom(e.RoomID, model.EventPlayerJoined, model.PlayerJoinedPayload{
			ID:   id,
			Name: res.Player.DisplayName,
		})
	} else {
		c.transport.Send(conn, model.EventReconnected, model.ReconnectedPayload{PlayerID: id, RoomID: e.RoomID})
		c.transport.BroadcastRoom(e.RoomID, model.EventPlayerReconnected, model.PlayerReconnectedPayload{
			PlayerID: id,
			Name:     res.Player.DisplayName,
		})
	}

	c.transport.Send(conn, model.EventRoomJoined, model.RoomJoinedPayload{
		Room:      model.NewRoomPayload(res.Room),
		GameState: res.Room.Game,
	})
	if res.Room.HasActiveRound() {
		c.sendGameState(ctx, conn, e.RoomID, false)
	}

	c.broadcastRoomList(ctx)
	c.broadcastRoomState(res.Room)
}

func (c *Controller) handleStartGame(ctx context.Context, conn model.ConnectionID, e protocol.StartGame) {
	id, ok := c.registry.IdentityOf(conn)
	if !ok {
		msg := msgOnlyCreatorStart
		if _, err := c.rooms.GetRoom(ctx, e.RoomID); errors.Is(err, model.ErrRoomNotFound) {
			msg = msgRoomDoesNotExist
		}
		c.transport.Send(conn, model.EventStartGameError, msg)
		return
	}

	game, err := c.rooms.StartRound(ctx, e.RoomID, id)
	if err != nil {
		c.logFailure("start game failed", e.RoomID, &id, err)
		c.transport.Send(conn, model.EventStartGameError, startGameErrorMessage(err))
		return
	}

	c.transport.BroadcastRoom(e.RoomID, model.EventGameStarted, game)
}

func (c *Controller) handleMakeGuess(ctx context.Context, conn model.ConnectionID, e protocol.MakeGuess) {
	id, ok := c.registry.IdentityOf(conn)
	if !ok {
		c.logger.Debug("ignoring guess from anonymous connection", slog.String("conn_id", string(conn)))
		return
	}

	outcome, err := c.rooms.SubmitGuess(ctx, e.RoomID, id, e.Guess, e.Row)
	if errors.Is(err, model.ErrRoomNotFound) {
		c.transport.Send(conn, model.EventInvalidLobby, msgThisRoomMissing)
		return
	}
	if err != nil {
		c.logFailure("guess rejected", e.RoomID, &id, err)
		c.transport.Send(conn, model.EventGuessError, guessErrorMessage(err))
		return
	}

	c.transport.BroadcastRoom(e.RoomID, model.EventGuessResult, outcome.Record)
	if outcome.RoundEnded {
		c.transport.BroadcastRoom(e.RoomID, model.EventGameOver, model.GameOverPayload{
			Word:   outcome.Word,
			Winner: outcome.Winner,
		})
	}
}

func (c *Controller) handleUpdateCurrentGuess(ctx context.Context, conn model.ConnectionID, e protocol.UpdateCurrentGuess) {
	id, ok := c.registry.IdentityOf(conn)
	if !ok {
		return
	}

	draft, err := c.rooms.UpdateDraft(ctx, e.RoomID, id, e.CurrentGuess, e.Row)
	if err != nil {
		c.logger.Debug("draft rejected",
			slog.String("room_id", string(e.RoomID)),
			slog.String("player_id", string(id)),
			slog.Any("error", err),
		)
		return
	}

	c.transport.BroadcastRoom(e.RoomID, model.EventUpdateCurrentGuess, model.CurrentGuessPayload{
		PlayerID:     id,
		CurrentGuess: draft,
		Row:          e.Row,
	})
}

func (c *Controller) handleKickPlayer(ctx context.Context, conn model.ConnectionID, e protocol.KickPlayer) {
	requester, ok := c.registry.IdentityOf(conn)
	if !ok {
		c.transport.Send(conn, model.EventKickPlayerError, msgOnlyCreatorKick)
		return
	}

	result, err := c.rooms.KickPlayer(ctx, e.RoomID, requester, e.PlayerID)
	if errors.Is(err, model.ErrRoomNotFound) {
		c.transport.Send(conn, model.EventInvalidLobby, msgThisRoomMissing)
		return
	}
	if err != nil {
		c.logFailure("kick rejected", e.RoomID, &requester, err)
		c.transport.Send(conn, model.EventKickPlayerError, kickErrorMessage(err))
		return
	}

	c.scheduler.Cancel(e.RoomID, e.PlayerID)
	c.transport.BroadcastRoom(e.RoomID, model.EventPlayerKicked, e.PlayerID)

	if target, err := c.registry.Resolve(e.PlayerID); err == nil {
		c.transport.Unsubscribe(target, e.RoomID)
		c.transport.Send(target, model.EventKickedFromRoom, nil)
	}

	if result.RoomDestroyed {
		c.transport.CloseRoom(e.RoomID)
		c.broadcastRoomList(ctx)
		return
	}

	if result.OwnershipTransferredTo != nil {
		c.transport.BroadcastRoom(e.RoomID, model.EventOwnershipTransferred, model.NewRoomPayload(result.Room))
	}
	if result.RoundAborted {
		c.transport.BroadcastRoom(e.RoomID, model.EventGameReset, msgKickReset)
	}
	c.broadcastRoomState(result.Room)
	c.broadcastRoomList(ctx)
}

func (c *Controller) handleRequestGameState(ctx context.Context, conn model.ConnectionID, e protocol.RequestGameState) {
	r, err := c.rooms.GetRoom(ctx, e.RoomID)
	if err != nil {
		c.transport.Send(conn, model.EventInvalidLobby, msgThisRoomMissing)
		return
	}
	if !r.HasActiveRound() {
		return
	}
	c.sendGameState(ctx, conn, e.RoomID, true)
}

func (c *Controller) handleReconnectToGame(ctx context.Context, conn model.ConnectionID, e protocol.ReconnectToGame) {
	r, err := c.rooms.GetRoom(ctx, e.RoomID)
	if err != nil {
		c.transport.Send(conn, model.EventInvalidLobby, msgThisRoomMissing)
		return
	}
	player := r.GetPlayer(e.PlayerID)
	if player == nil {
		c.transport.Send(conn, model.EventInvalidLobby, msgNotMember)
		return
	}

	r, err = c.rooms.MarkReconnected(ctx, e.RoomID, e.PlayerID)
	if err != nil {
		c.logFailure("reconnect failed", e.RoomID, &e.PlayerID, err)
		c.transport.Send(conn, model.EventJoinError, joinErrorMessage(err))
		return
	}

	c.rebind(ctx, conn, e.PlayerID, e.RoomID)
	c.scheduler.Cancel(e.RoomID, e.PlayerID)
	c.transport.Subscribe(conn, e.RoomID)

	c.transport.Send(conn, model.EventReconnected, model.ReconnectedPayload{PlayerID: e.PlayerID, RoomID: e.RoomID})
	c.transport.BroadcastRoom(e.RoomID, model.EventPlayerReconnected, model.PlayerReconnectedPayload{
		PlayerID: e.PlayerID,
		Name:     player.DisplayName,
	})
	if r.HasActiveRound() {
		c.sendGameState(ctx, conn, e.RoomID, false)
	}
	c.broadcastRoomState(r)
	c.broadcastRoomList(ctx)
}

// handleRemoval runs when a removal timer fires. The removal only goes
// ahead if the timer is still current and the player is still a
// disconnected member.
func (c *Controller) handleRemoval(ctx context.Context, rm scheduler.Removal) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.scheduler.Claim(rm) {
		return
	}

	r, err := c.rooms.GetRoom(ctx, rm.RoomID)
	if err != nil {
		return
	}
	player := r.GetPlayer(rm.PlayerID)
	if player == nil || player.Connected {
		return
	}

	result, err := c.rooms.RemovePlayer(ctx, rm.RoomID, rm.PlayerID)
	if err != nil {
		c.logFailure("timed removal failed", rm.RoomID, &rm.PlayerID, err)
		return
	}

	c.logger.Info("removed disconnected player",
		slog.String("room_id", string(rm.RoomID)),
		slog.String("player_id", string(rm.PlayerID)),
		slog.Bool("room_destroyed", result.RoomDestroyed),
	)

	if result.RoomDestroyed {
		c.transport.BroadcastRoom(rm.RoomID, model.EventInvalidLobby, msgRoomClosed)
		c.transport.CloseRoom(rm.RoomID)
		c.broadcastRoomList(ctx)
		return
	}

	if result.OwnershipTransferredTo != nil {
		c.transport.BroadcastRoom(rm.RoomID, model.EventOwnershipTransferred, model.NewRoomPayload(result.Room))
	}
	if result.RoundAborted {
		c.transport.BroadcastRoom(rm.RoomID, model.EventGameOver, model.GameOverPayload{Word: msgGameStoppedLeaving})
	} else {
		c.transport.BroadcastRoom(rm.RoomID, model.EventPlayerLeft, rm.PlayerID)
	}
	c.broadcastRoomState(result.Room)
	c.broadcastRoomList(ctx)
}

// bind points id at conn. An identity the connection held before is
// released and goes through the disconnect path.
func (c *Controller) bind(ctx context.Context, id model.PlayerID, conn model.ConnectionID) error {
	released, err := c.registry.Bind(id, conn)
	if err != nil {
		return err
	}
	if released != "" {
		c.logger.Info("connection switched identity",
			slog.String("conn_id", string(conn)),
			slog.String("player_id", string(id)),
			slog.String("released_player_id", string(released)),
		)
		c.markAway(ctx, conn, released)
	}
	return nil
}

// rebind points id at conn. A different connection that previously held id
// stops receiving this room's broadcasts.
func (c *Controller) rebind(ctx context.Context, conn model.ConnectionID, id model.PlayerID, roomID model.RoomID) {
	previous, resolveErr := c.registry.Resolve(id)
	if err := c.bind(ctx, id, conn); err != nil {
		c.logger.Error("failed to bind identity", slog.Any("error", err))
		return
	}
	if resolveErr == nil && previous != conn {
		c.transport.Unsubscribe(previous, roomID)
	}
}

func (c *Controller) sendGameState(ctx context.Context, conn model.ConnectionID, roomID model.RoomID, withRoom bool) {
	r, board, err := c.rooms.GameState(ctx, roomID)
	if err != nil {
		c.logger.Error("failed to load game state",
			slog.String("room_id", string(roomID)),
			slog.Any("error", err),
		)
		return
	}
	payload := model.GameStatePayload{
		GameState:    r.Game,
		BoardContent: board.Rows,
	}
	if withRoom {
		rp := model.NewRoomPayload(r)
		payload.Room = &rp
	}
	c.transport.Send(conn, model.EventGameStateUpdate, payload)
}

func (c *Controller) broadcastRoomState(r *model.Room) {
	c.transport.BroadcastRoom(r.ID, model.EventRoomStateUpdate, model.RoomStatePayload{
		Room:      model.NewRoomPayload(r),
		GameState: r.Game,
	})
}

func (c *Controller) broadcastRoomList(ctx context.Context) {
	rooms, err := c.rooms.ListRooms(ctx)
	if err != nil {
		c.logger.Error("failed to list rooms", slog.Any("error", err))
		return
	}
	c.transport.BroadcastAll(model.EventRoomListUpdate, rooms)
}

func (c *Controller) logFailure(msg string, roomID model.RoomID, id *model.PlayerID, err error) {
	attrs := []any{
		slog.String("room_id", string(roomID)),
		slog.Any("error", err),
	}
	if id != nil {
		attrs = append(attrs, slog.String("player_id", string(*id)))
	}
	if isClientError(err) {
		c.logger.Debug(msg, attrs...)
		return
	}
	c.logger.Error(msg, attrs...)
}
