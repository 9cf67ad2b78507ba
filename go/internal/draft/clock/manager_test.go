package clock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	clockmocks "github.com/mcdev12/bbdraft/go/internal/draft/clock/mocks"
	"github.com/mcdev12/bbdraft/go/internal/draft/drafttest"
	"github.com/mcdev12/bbdraft/go/internal/draft/events"
	"github.com/mcdev12/bbdraft/go/internal/draft/lifecycle"
	"github.com/mcdev12/bbdraft/go/internal/draft/pick"
	roommocks "github.com/mcdev12/bbdraft/go/internal/draft/room/mocks"
	"github.com/mcdev12/bbdraft/go/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ManagerTestSuite struct {
	suite.Suite
	ctx             context.Context
	mockCtrl        *gomock.Controller
	mockBroadcaster *roommocks.MockBroadcaster
	mockHandler     *clockmocks.MockTimeoutHandler
	fx              *drafttest.Fixture
	manager         *Manager
}

func (s *ManagerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.mockCtrl = gomock.NewController(s.T())
	s.mockBroadcaster = roommocks.NewMockBroadcaster(s.mockCtrl)
	s.mockHandler = clockmocks.NewMockTimeoutHandler(s.mockCtrl)
	s.setup()
}

func (s *ManagerTestSuite) TearDownTest() {
	s.manager.Close()
}

func (s *ManagerTestSuite) setup(opts ...drafttest.Option) {
	if s.manager != nil {
		s.manager.Close()
	}
	s.fx = drafttest.New(s.T(), opts...)
	s.manager = s.newManager(Deps{})
}

// newManager fills in the fixture store, clock and mocks for any zero field.
func (s *ManagerTestSuite) newManager(deps Deps) *Manager {
	if deps.Drafts == nil {
		deps.Drafts = s.fx.Store
	}
	if deps.Handler == nil {
		deps.Handler = s.mockHandler
	}
	if deps.Broadcaster == nil {
		deps.Broadcaster = s.mockBroadcaster
	}
	if deps.Clock == nil {
		deps.Clock = s.fx.Clock
	}
	return NewManager(deps)
}

func TestManagerTestSuite(t *testing.T) {
	suite.Run(t, new(ManagerTestSuite))
}

func (s *ManagerTestSuite) TestTickBroadcastsTimeRemaining() {
	s.fx.Clock.Advance(30 * time.Second)

	var got events.ClockTickPayload
	s.mockBroadcaster.EXPECT().
		Broadcast(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, env events.Envelope) error {
			s.Equal(events.TypeClockTick, env.Type)
			s.Equal(s.fx.DraftID, env.DraftID)
			return env.Decode(&got)
		})

	s.True(s.manager.tick(s.ctx, s.fx.DraftID))
	s.Equal(1, got.OverallPick)
	s.Equal(60, got.TimeRemaining)
	s.Require().NotNil(got.OnTheClock)
	s.Equal(s.fx.Teams[0].ID, got.OnTheClock.TeamID)
}

func (s *ManagerTestSuite) TestExpiredClockCallsHandler() {
	s.fx.ExpireClock(s.T())

	s.mockBroadcaster.EXPECT().Broadcast(gomock.Any(), gomock.Any()).Return(nil)
	s.mockHandler.EXPECT().HandleTimeout(gomock.Any(), s.fx.DraftID, 1).Return(nil)

	s.True(s.manager.tick(s.ctx, s.fx.DraftID))
}

func (s *ManagerTestSuite) TestHandlerErrorKeepsTaskAlive() {
	s.fx.ExpireClock(s.T())

	s.mockBroadcaster.EXPECT().Broadcast(gomock.Any(), gomock.Any()).Return(nil)
	s.mockHandler.EXPECT().HandleTimeout(gomock.Any(), s.fx.DraftID, 1).Return(context.DeadlineExceeded)

	s.True(s.manager.tick(s.ctx, s.fx.DraftID))
}

func (s *ManagerTestSuite) TestTickExitsWhenDraftNotRunning() {
	s.Run("paused", func() {
		s.setup(drafttest.WithStatus(models.DraftStatusPaused))
		s.False(s.manager.tick(s.ctx, s.fx.DraftID))
	})
	s.Run("scheduled", func() {
		s.setup(drafttest.WithStatus(models.DraftStatusScheduled))
		s.False(s.manager.tick(s.ctx, s.fx.DraftID))
	})
	s.Run("missing", func() {
		s.False(s.manager.tick(s.ctx, uuid.New()))
	})
}

func (s *ManagerTestSuite) TestLeaseLetsOneReplicaHandleTimeout() {
	mr := miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s.T().Cleanup(func() { _ = client.Close() })

	first := s.newManager(Deps{Lease: NewRedisLease(client, "replica-a")})
	second := s.newManager(Deps{Lease: NewRedisLease(client, "replica-b")})
	defer first.Close()
	defer second.Close()

	s.fx.ExpireClock(s.T())
	s.mockBroadcaster.EXPECT().Broadcast(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	s.mockHandler.EXPECT().HandleTimeout(gomock.Any(), s.fx.DraftID, 1).Return(nil).Times(1)

	s.True(first.tick(s.ctx, s.fx.DraftID))
	s.True(second.tick(s.ctx, s.fx.DraftID))
	s.True(mr.Exists(leaseKey(s.fx.DraftID, 1)))

	// The lease lapses so a failed attempt can be retried.
	mr.FastForward(DefaultConfig().LeaseTTL + time.Second)
	s.False(mr.Exists(leaseKey(s.fx.DraftID, 1)))
}

func (s *ManagerTestSuite) TestFailedTimeoutReleasesLease() {
	mr := miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s.T().Cleanup(func() { _ = client.Close() })

	manager := s.newManager(Deps{Lease: NewRedisLease(client, "replica-a")})
	defer manager.Close()

	s.fx.ExpireClock(s.T())
	s.mockBroadcaster.EXPECT().Broadcast(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	gomock.InOrder(
		s.mockHandler.EXPECT().HandleTimeout(gomock.Any(), s.fx.DraftID, 1).Return(context.DeadlineExceeded),
		s.mockHandler.EXPECT().HandleTimeout(gomock.Any(), s.fx.DraftID, 1).Return(nil),
	)

	s.True(manager.tick(s.ctx, s.fx.DraftID))
	s.False(mr.Exists(leaseKey(s.fx.DraftID, 1)))

	// retried on the very next tick, no TTL wait
	s.True(manager.tick(s.ctx, s.fx.DraftID))
	s.True(mr.Exists(leaseKey(s.fx.DraftID, 1)))
}

func TestReleaseKeepsAnotherOwnersLease(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	a := NewRedisLease(client, "replica-a")
	b := NewRedisLease(client, "replica-b")
	ok, err := a.Acquire(ctx, "draft:clock:x:1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, b.Release(ctx, "draft:clock:x:1"))
	assert.True(t, mr.Exists("draft:clock:x:1"))

	require.NoError(t, a.Release(ctx, "draft:clock:x:1"))
	assert.False(t, mr.Exists("draft:clock:x:1"))
}

func (s *ManagerTestSuite) TestHandleEventsStartsAndStopsTasks() {
	s.mockBroadcaster.EXPECT().Broadcast(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	id := s.fx.DraftID

	s.manager.HandleEvents(s.ctx, []events.Envelope{{DraftID: id, Type: events.TypeDraftStarted}})
	s.True(s.manager.Active(id))

	// Starting twice keeps a single task.
	s.manager.HandleEvents(s.ctx, []events.Envelope{{DraftID: id, Type: events.TypePickMade}})
	s.True(s.manager.Active(id))

	s.manager.HandleEvents(s.ctx, []events.Envelope{{DraftID: id, Type: events.TypeDraftPaused}})
	s.False(s.manager.Active(id))

	s.manager.HandleEvents(s.ctx, []events.Envelope{
		{DraftID: id, Type: events.TypePickMade},
		{DraftID: id, Type: events.TypeCompleted},
	})
	s.False(s.manager.Active(id))
}

func (s *ManagerTestSuite) TestClockExpiresWithNobodyConnected() {
	app := pick.NewApp(pick.Deps{
		Drafts:  s.fx.Store,
		Ledger:  s.fx.Store,
		Teams:   s.fx.Store,
		Players: s.fx.Store,
		Leagues: s.fx.Store,
		Clock:   s.fx.Clock,
	})
	s.manager = s.newManager(Deps{Handler: app})
	s.mockBroadcaster.EXPECT().Broadcast(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	s.manager.Ensure(s.fx.DraftID)
	ctx, cancel := context.WithTimeout(s.ctx, time.Second)
	defer cancel()
	s.Require().NoError(s.fx.Clock.BlockUntilContext(ctx, 1))

	s.fx.Clock.Advance(91 * time.Second)

	s.Eventually(func() bool {
		return s.fx.Draft(s.T()).CurrentOverallPick == 2
	}, time.Second, 10*time.Millisecond)

	picks, err := s.fx.Store.ListPicks(s.ctx, s.fx.DraftID)
	s.Require().NoError(err)
	s.Require().Len(picks, 1)
	s.True(picks[0].WasAutoPick)
	s.Equal(s.fx.Teams[0].ID, picks[0].TeamID)
	s.True(s.manager.Active(s.fx.DraftID))
}

func (s *ManagerTestSuite) TestSweepForfeitsExpiredCatchUps() {
	app := pick.NewApp(pick.Deps{
		Drafts:  s.fx.Store,
		Ledger:  s.fx.Store,
		Teams:   s.fx.Store,
		Players: s.fx.Store,
		Leagues: s.fx.Store,
		Clock:   s.fx.Clock,
	})
	skip, err := app.ManualSkip(s.ctx, pick.SkipRequest{DraftID: s.fx.DraftID, UserID: s.fx.Commissioner})
	s.Require().NoError(err)
	s.Equal(models.CatchUpStatusAvailable, skip.CatchUpStatus)

	s.manager = s.newManager(Deps{Forfeiter: app})
	s.mockBroadcaster.EXPECT().Broadcast(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	s.mockHandler.EXPECT().HandleTimeout(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	s.fx.Clock.Advance(31 * time.Minute)
	s.manager.sweep(s.ctx)

	d := s.fx.Draft(s.T())
	s.Require().Len(d.SkipQueue, 1)
	s.Equal(models.CatchUpStatusForfeited, d.SkipQueue[0].CatchUpStatus)
	s.True(s.manager.Active(s.fx.DraftID))
}

func (s *ManagerTestSuite) TestSweepAutoResumesLongPauses() {
	lc := lifecycle.NewApp(lifecycle.Deps{
		Drafts:  s.fx.Store,
		Ledger:  s.fx.Store,
		Teams:   s.fx.Store,
		Players: s.fx.Store,
		Leagues: s.fx.Store,
		Clock:   s.fx.Clock,
	})
	_, err := lc.PauseDraft(s.ctx, lifecycle.ControlRequest{DraftID: s.fx.DraftID, UserID: s.fx.Commissioner})
	s.Require().NoError(err)

	s.manager = s.newManager(Deps{Resumer: lc})
	s.mockBroadcaster.EXPECT().Broadcast(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	s.manager.sweep(s.ctx)
	s.Equal(models.DraftStatusPaused, s.fx.Draft(s.T()).Status)
	s.False(s.manager.Active(s.fx.DraftID))

	s.fx.Clock.Advance(301 * time.Second)
	s.manager.sweep(s.ctx)

	d := s.fx.Draft(s.T())
	s.Equal(models.DraftStatusInProgress, d.Status)
	s.Require().NotNil(d.OnTheClock)
	s.Equal(90, d.OnTheClock.TimeRemaining(s.fx.Clock.Now()))
	s.True(s.manager.Active(s.fx.DraftID))
}
