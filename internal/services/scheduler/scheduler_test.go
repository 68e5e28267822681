package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/wordduel/internal/dependencies/mocks"
	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/testutil"
)

type SchedulerSuite struct {
	suite.Suite
	clock     *mocks.MockClock
	scheduler *Scheduler
	fired     []Removal
	claimed   []Removal
}

func TestSchedulerSuite(t *testing.T) {
	suite.Run(t, new(SchedulerSuite))
}

func (s *SchedulerSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.scheduler = New(s.clock, DefaultConfig(), testutil.NopLogger())
	s.fired = nil
	s.claimed = nil
	s.scheduler.SetFireFunc(func(ctx context.Context, r Removal) {
		s.fired = append(s.fired, r)
		if s.scheduler.Claim(r) {
			s.claimed = append(s.claimed, r)
		}
	})
}

func (s *SchedulerSuite) TestDelayFor() {
	s.Equal(30*time.Second, s.scheduler.DelayFor(true))
	s.Equal(2*time.Second, s.scheduler.DelayFor(false))
}

func (s *SchedulerSuite) TestZeroConfigUsesDefaults() {
	sched := New(s.clock, Config{}, testutil.NopLogger())
	s.Equal(DefaultRoundGrace, sched.DelayFor(true))
	s.Equal(DefaultShortGrace, sched.DelayFor(false))
}

func (s *SchedulerSuite) TestFiresAfterDelay() {
	s.scheduler.ScheduleRemoval("room-1", "alice", 30*time.Second)

	s.clock.Advance(29 * time.Second)
	s.Empty(s.fired)

	s.clock.Advance(time.Second)
	s.Require().Len(s.claimed, 1)
	s.Equal(model.RoomID("room-1"), s.claimed[0].RoomID)
	s.Equal(model.PlayerID("alice"), s.claimed[0].PlayerID)
	s.Equal(0, s.scheduler.Len())
}

func (s *SchedulerSuite) TestFiresExactlyOnce() {
	s.scheduler.ScheduleRemoval("room-1", "alice", 2*time.Second)

	s.clock.Advance(time.Minute)
	s.clock.Advance(time.Minute)

	s.Len(s.fired, 1)
	s.Len(s.claimed, 1)
}

func (s *SchedulerSuite) TestCancelPreventsFiring() {
	s.scheduler.ScheduleRemoval("room-1", "alice", 30*time.Second)

	s.clock.Advance(10 * time.Second)
	s.True(s.scheduler.Cancel("room-1", "alice"))
	s.clock.Advance(time.Minute)

	s.Empty(s.fired)
	s.False(s.scheduler.Cancel("room-1", "alice"))
}

func (s *SchedulerSuite) TestRescheduleReplacesTimer() {
	first := s.scheduler.ScheduleRemoval("room-1", "alice", 2*time.Second)
	s.scheduler.ScheduleRemoval("room-1", "alice", 30*time.Second)
	s.Equal(1, s.scheduler.Len())

	s.clock.Advance(2 * time.Second)
	s.Empty(s.fired)

	// A stale token is rejected even if presented
	s.False(s.scheduler.Claim(first))

	s.clock.Advance(28 * time.Second)
	s.Len(s.claimed, 1)
}

func (s *SchedulerSuite) TestTimersAreIndependentPerRoomAndPlayer() {
	s.scheduler.ScheduleRemoval("room-1", "alice", 2*time.Second)
	s.scheduler.ScheduleRemoval("room-2", "alice", 2*time.Second)
	s.scheduler.ScheduleRemoval("room-1", "bob", 2*time.Second)
	s.Equal(3, s.scheduler.Len())

	s.scheduler.Cancel("room-1", "alice")
	s.clock.Advance(2 * time.Second)

	s.Len(s.claimed, 2)
}

func (s *SchedulerSuite) TestClaimAfterCancelFails() {
	var stale Removal
	s.scheduler.SetFireFunc(func(ctx context.Context, r Removal) {
		stale = r
		// Reconnect lands between the timer firing and the callback claiming
		s.scheduler.Cancel(r.RoomID, r.PlayerID)
		s.fired = append(s.fired, r)
		if s.scheduler.Claim(r) {
			s.claimed = append(s.claimed, r)
		}
	})
	s.scheduler.ScheduleRemoval("room-1", "alice", 2*time.Second)

	s.clock.Advance(2 * time.Second)

	s.Len(s.fired, 1)
	s.Empty(s.claimed)
	s.False(s.scheduler.Claim(stale))
}

func (s *SchedulerSuite) TestPending() {
	_, ok := s.scheduler.Pending("room-1", "alice")
	s.False(ok)

	s.scheduler.ScheduleRemoval("room-1", "alice", 30*time.Second)

	r, ok := s.scheduler.Pending("room-1", "alice")
	s.True(ok)
	s.Equal(s.clock.Now().Add(30*time.Second), r.FireAt)
}

func (s *SchedulerSuite) TestStopDisarmsEverything() {
	s.scheduler.ScheduleRemoval("room-1", "alice", 2*time.Second)
	s.scheduler.Stop()

	s.scheduler.ScheduleRemoval("room-1", "bob", 2*time.Second)
	s.clock.Advance(time.Minute)

	s.Empty(s.fired)
	s.Equal(0, s.scheduler.Len())
	s.Equal(0, s.clock.PendingTimers())
}
