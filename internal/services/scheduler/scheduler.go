package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/wordduel/internal/dependencies/clock"
	"github.com/mcoot/wordduel/internal/model"
)

const (
	// DefaultShortGrace applies when no round is active at disconnect time
	DefaultShortGrace = 2 * time.Second
	// DefaultRoundGrace applies when a round is active at disconnect time
	DefaultRoundGrace = 30 * time.Second
)

// Config holds the grace periods before a disconnected player is removed
type Config struct {
	ShortGrace time.Duration
	RoundGrace time.Duration
}

// DefaultConfig returns the default grace periods
func DefaultConfig() Config {
	return Config{
		ShortGrace: DefaultShortGrace,
		RoundGrace: DefaultRoundGrace,
	}
}

// Removal identifies one armed timer. It is handed to the fire callback,
// which must Claim it before acting.
type Removal struct {
	RoomID   model.RoomID
	PlayerID model.PlayerID
	FireAt   time.Time
	seq      uint64
}

// FireFunc is invoked from the timer goroutine when a removal falls due
type FireFunc func(ctx context.Context, r Removal)

type key struct {
	roomID   model.RoomID
	playerID model.PlayerID
}

type entry struct {
	removal Removal
	timer   clock.Timer
}

// Scheduler arms at most one removal timer per (room, player). Entries hold
// only ids; the callback re-resolves current state when it runs.
type Scheduler struct {
	clock  clock.Clock
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	entries map[key]*entry
	nextSeq uint64
	onFire  FireFunc
	closed  bool
}

// New creates a Scheduler. SetFireFunc must be called before any timer fires.
func New(clk clock.Clock, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.ShortGrace <= 0 {
		cfg.ShortGrace = DefaultShortGrace
	}
	if cfg.RoundGrace <= 0 {
		cfg.RoundGrace = DefaultRoundGrace
	}
	return &Scheduler{
		clock:   clk,
		cfg:     cfg,
		logger:  logger,
		entries: make(map[key]*entry),
	}
}

// SetFireFunc sets the callback run when a removal falls due
func (s *Scheduler) SetFireFunc(f FireFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFire = f
}

// DelayFor returns the grace period for a disconnect
func (s *Scheduler) DelayFor(roundActive bool) time.Duration {
	if roundActive {
		return s.cfg.RoundGrace
	}
	return s.cfg.ShortGrace
}

// ScheduleRemoval arms a one-shot removal timer, replacing any timer already
// armed for the same room and player
func (s *Scheduler) ScheduleRemoval(roomID model.RoomID, playerID model.PlayerID, delay time.Duration) Removal {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{roomID: roomID, playerID: playerID}
	if old, ok := s.entries[k]; ok {
		old.timer.Stop()
		delete(s.entries, k)
	}

	s.nextSeq++
	r := Removal{
		RoomID:   roomID,
		PlayerID: playerID,
		FireAt:   s.clock.Now().Add(delay),
		seq:      s.nextSeq,
	}
	if s.closed {
		return r
	}

	e := &entry{removal: r}
	e.timer = s.clock.AfterFunc(delay, func() { s.fire(r) })
	s.entries[k] = e

	s.logger.Debug("removal scheduled",
		slog.String("room_id", string(roomID)),
		slog.String("player_id", string(playerID)),
		slog.Duration("delay", delay),
	)
	return r
}

// Cancel disarms the timer for the room and player. Returns false if none
// was armed.
func (s *Scheduler) Cancel(roomID model.RoomID, playerID model.PlayerID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{roomID: roomID, playerID: playerID}
	e, ok := s.entries[k]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(s.entries, k)

	s.logger.Debug("removal cancelled",
		slog.String("room_id", string(roomID)),
		slog.String("player_id", string(playerID)),
	)
	return true
}

// Claim consumes a fired removal. It returns false if the timer was
// cancelled or replaced after it fired, in which case the caller must do
// nothing.
func (s *Scheduler) Claim(r Removal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{roomID: r.RoomID, playerID: r.PlayerID}
	e, ok := s.entries[k]
	if !ok || e.removal.seq != r.seq {
		return false
	}
	delete(s.entries, k)
	return true
}

// Pending returns the armed removal for the room and player, if any
func (s *Scheduler) Pending(roomID model.RoomID, playerID model.PlayerID) (Removal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key{roomID: roomID, playerID: playerID}]
	if !ok {
		return Removal{}, false
	}
	return e.removal, true
}

// Len returns the number of armed timers
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stop disarms every timer. Later calls to ScheduleRemoval arm nothing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		e.timer.Stop()
		delete(s.entries, k)
	}
	s.closed = true
}

func (s *Scheduler) fire(r Removal) {
	s.mu.Lock()
	e, ok := s.entries[key{roomID: r.RoomID, playerID: r.PlayerID}]
	current := ok && e.removal.seq == r.seq
	onFire := s.onFire
	s.mu.Unlock()

	if !current || onFire == nil {
		return
	}

	// The callback takes the session lock, so it must run without ours
	onFire(context.Background(), r)
}
