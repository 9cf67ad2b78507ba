package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/draft/drafterr"
	"github.com/mcdev12/bbdraft/go/internal/draft/drafttest"
	"github.com/mcdev12/bbdraft/go/internal/draft/events"
	"github.com/mcdev12/bbdraft/go/internal/draft/pick"
	"github.com/mcdev12/bbdraft/go/internal/models"
	"github.com/stretchr/testify/suite"
)

type LifecycleTestSuite struct {
	suite.Suite
	ctx context.Context
	fx  *drafttest.Fixture
	app *App

	mu     sync.Mutex
	events []events.Envelope
}

func (s *LifecycleTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.setup(drafttest.WithStatus(models.DraftStatusScheduled))
}

func (s *LifecycleTestSuite) setup(opts ...drafttest.Option) {
	s.fx = drafttest.New(s.T(), opts...)
	s.events = nil
	s.fx.Store.AddCommitHook(func(_ context.Context, evts []events.Envelope) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.events = append(s.events, evts...)
	})
	s.app = NewApp(Deps{
		Drafts:  s.fx.Store,
		Ledger:  s.fx.Store,
		Teams:   s.fx.Store,
		Players: s.fx.Store,
		Leagues: s.fx.Store,
		Clock:   s.fx.Clock,
	})
}

func (s *LifecycleTestSuite) lastEvent() events.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Require().NotEmpty(s.events)
	return s.events[len(s.events)-1]
}

func (s *LifecycleTestSuite) control() ControlRequest {
	return ControlRequest{DraftID: s.fx.DraftID, UserID: s.fx.Commissioner}
}

func TestLifecycleTestSuite(t *testing.T) {
	suite.Run(t, new(LifecycleTestSuite))
}

func (s *LifecycleTestSuite) TestCreateDraft() {
	s.setup(drafttest.WithoutDraft())

	d, err := s.app.CreateDraft(s.ctx, CreateDraftRequest{
		LeagueID: s.fx.League.ID,
		UserID:   s.fx.Commissioner,
		Mode:     models.DraftModeTimed,
		Configuration: &models.ConfigurationPatch{
			CatchUpWindow: ptr(45),
		},
	})
	s.Require().NoError(err)

	s.Equal(models.DraftStatusScheduled, d.Status)
	s.Equal(models.DraftModeTimed, d.Mode)
	s.Equal(1, d.CurrentOverallPick)
	s.Equal(4, d.TeamCount)
	s.Equal(2, d.TotalRounds)
	s.Equal(90, d.PickTimer)
	s.Equal(2025, d.SeasonYear)
	s.Equal(45, d.Configuration.CatchUpWindow)
	s.Equal(300, d.Configuration.MaxPauseDuration)
	s.Len(d.TimeBank, 4)
	s.ElementsMatch(teamIDs(s.fx.Teams), d.DraftOrder)

	for i, id := range d.DraftOrder {
		team, err := s.fx.Store.GetTeam(s.ctx, id)
		s.Require().NoError(err)
		s.Require().NotNil(team.DraftPosition)
		s.Equal(i+1, *team.DraftPosition)
	}

	_, err = s.app.CreateDraft(s.ctx, CreateDraftRequest{LeagueID: s.fx.League.ID, UserID: s.fx.Commissioner})
	s.Equal(drafterr.KindInvalidState, drafterr.KindOf(err))
}

func (s *LifecycleTestSuite) TestCreateDraftRejections() {
	s.Run("not the commissioner", func() {
		s.setup(drafttest.WithoutDraft())
		_, err := s.app.CreateDraft(s.ctx, CreateDraftRequest{LeagueID: s.fx.League.ID, UserID: uuid.New()})
		s.Equal(drafterr.KindUnauthorized, drafterr.KindOf(err))
	})

	s.Run("unknown league", func() {
		_, err := s.app.CreateDraft(s.ctx, CreateDraftRequest{LeagueID: uuid.New(), UserID: s.fx.Commissioner})
		s.Equal(drafterr.KindNotFound, drafterr.KindOf(err))
	})

	s.Run("one team", func() {
		s.setup(drafttest.WithoutDraft(), drafttest.WithTeams(1))
		_, err := s.app.CreateDraft(s.ctx, CreateDraftRequest{LeagueID: s.fx.League.ID, UserID: s.fx.Commissioner})
		s.Equal(drafterr.KindValidation, drafterr.KindOf(err))
	})

	s.Run("unknown mode", func() {
		s.setup(drafttest.WithoutDraft())
		_, err := s.app.CreateDraft(s.ctx, CreateDraftRequest{LeagueID: s.fx.League.ID, UserID: s.fx.Commissioner, Mode: "blitz"})
		s.Equal(drafterr.KindValidation, drafterr.KindOf(err))
	})
}

func (s *LifecycleTestSuite) TestStartDraft() {
	_, err := s.app.StartDraft(s.ctx, ControlRequest{DraftID: s.fx.DraftID, UserID: s.fx.Teams[0].OwnerID})
	s.Equal(drafterr.KindUnauthorized, drafterr.KindOf(err))

	d, err := s.app.StartDraft(s.ctx, s.control())
	s.Require().NoError(err)
	s.Equal(models.DraftStatusInProgress, d.Status)
	s.Require().NotNil(d.OnTheClock)
	s.Equal(s.fx.Teams[0].ID, d.OnTheClock.TeamID)
	s.Equal(drafttest.Epoch.Add(90*time.Second), d.OnTheClock.ClockExpires)
	s.Require().NotNil(d.ActualStart)

	league, err := s.fx.Store.GetLeague(s.ctx, s.fx.League.ID)
	s.Require().NoError(err)
	s.Equal(models.LeagueStatusDrafting, league.Status)
	s.Equal(events.TypeDraftStarted, s.lastEvent().Type)

	_, err = s.app.StartDraft(s.ctx, s.control())
	s.Equal(drafterr.KindInvalidState, drafterr.KindOf(err))
}

func (s *LifecycleTestSuite) TestPauseFreezesAndResumeRestartsFullWindow() {
	_, err := s.app.StartDraft(s.ctx, s.control())
	s.Require().NoError(err)

	s.fx.Clock.Advance(60 * time.Second)
	paused, err := s.app.PauseDraft(s.ctx, ControlRequest{DraftID: s.fx.DraftID, UserID: s.fx.Commissioner, Reason: "dinner"})
	s.Require().NoError(err)
	s.Equal(models.DraftStatusPaused, paused.Status)
	s.Require().NotNil(paused.PausedAt)

	var payload events.DraftPausedPayload
	s.Require().NoError(s.lastEvent().Decode(&payload))
	s.Equal("dinner", payload.Reason)

	_, err = s.app.PauseDraft(s.ctx, s.control())
	s.Equal(drafterr.KindInvalidState, drafterr.KindOf(err))

	s.fx.Clock.Advance(2 * time.Minute)
	resumed, err := s.app.ResumeDraft(s.ctx, s.control())
	s.Require().NoError(err)
	s.Equal(models.DraftStatusInProgress, resumed.Status)
	s.Nil(resumed.PausedAt)
	s.Equal(1, resumed.CurrentOverallPick)
	s.Equal(s.fx.Clock.Now().Add(90*time.Second), resumed.OnTheClock.ClockExpires)
	s.Equal(events.TypeDraftResumed, s.lastEvent().Type)

	_, err = s.app.ResumeDraft(s.ctx, s.control())
	s.Equal(drafterr.KindInvalidState, drafterr.KindOf(err))
}

func (s *LifecycleTestSuite) TestPauseDisabled() {
	s.setup(drafttest.WithConfig(func(c *models.DraftConfiguration) { c.PauseEnabled = false }))
	_, err := s.app.PauseDraft(s.ctx, s.control())
	s.Equal(drafterr.KindInvalidState, drafterr.KindOf(err))
}

func (s *LifecycleTestSuite) TestAutoResume() {
	s.setup(drafttest.WithConfig(func(c *models.DraftConfiguration) { c.MaxPauseDuration = 120 }))
	_, err := s.app.PauseDraft(s.ctx, s.control())
	s.Require().NoError(err)

	s.fx.Clock.Advance(119 * time.Second)
	resumed, err := s.app.AutoResume(s.ctx)
	s.Require().NoError(err)
	s.Empty(resumed)

	s.fx.Clock.Advance(time.Second)
	resumed, err = s.app.AutoResume(s.ctx)
	s.Require().NoError(err)
	s.Equal([]uuid.UUID{s.fx.DraftID}, resumed)
	s.Equal(models.DraftStatusInProgress, s.fx.Draft(s.T()).Status)
}

func (s *LifecycleTestSuite) TestAutoResumeDisabledByZeroLimit() {
	s.setup(drafttest.WithConfig(func(c *models.DraftConfiguration) { c.MaxPauseDuration = 0 }))
	_, err := s.app.PauseDraft(s.ctx, s.control())
	s.Require().NoError(err)

	s.fx.Clock.Advance(24 * time.Hour)
	resumed, err := s.app.AutoResume(s.ctx)
	s.Require().NoError(err)
	s.Empty(resumed)
}

func (s *LifecycleTestSuite) TestRunLottery() {
	for _, method := range []LotteryMethod{LotteryRandom, LotteryWeighted} {
		s.Run(string(method), func() {
			res, err := s.app.RunLottery(s.ctx, LotteryRequest{DraftID: s.fx.DraftID, UserID: s.fx.Commissioner, Method: method})
			s.Require().NoError(err)
			s.ElementsMatch(teamIDs(s.fx.Teams), res.DraftOrder)
			s.Equal(res.DraftOrder, s.fx.Draft(s.T()).DraftOrder)

			first, err := s.fx.Store.GetTeam(s.ctx, res.DraftOrder[0])
			s.Require().NoError(err)
			s.Equal(1, *first.DraftPosition)
			s.Equal(events.TypeOrderUpdated, s.lastEvent().Type)
		})
	}

	_, err := s.app.RunLottery(s.ctx, LotteryRequest{DraftID: s.fx.DraftID, UserID: s.fx.Commissioner, Method: LotteryWeighted, Weights: []float64{1, 2}})
	s.Equal(drafterr.KindValidation, drafterr.KindOf(err))

	_, err = s.app.StartDraft(s.ctx, s.control())
	s.Require().NoError(err)
	_, err = s.app.RunLottery(s.ctx, LotteryRequest{DraftID: s.fx.DraftID, UserID: s.fx.Commissioner})
	s.Equal(drafterr.KindInvalidState, drafterr.KindOf(err))
}

func (s *LifecycleTestSuite) TestUpdateConfiguration() {
	d, err := s.app.UpdateConfiguration(s.ctx, ConfigurationRequest{
		DraftID: s.fx.DraftID,
		UserID:  s.fx.Commissioner,
		Patch:   models.ConfigurationPatch{AutoPickOnTimeout: ptr(false), MaxQueueDepth: ptr(5)},
	})
	s.Require().NoError(err)
	s.False(d.Configuration.AutoPickOnTimeout)
	s.Equal(5, d.Configuration.MaxQueueDepth)
	s.True(d.Configuration.PauseEnabled)

	_, err = s.app.UpdateConfiguration(s.ctx, ConfigurationRequest{
		DraftID: s.fx.DraftID,
		UserID:  s.fx.Commissioner,
		Patch:   models.ConfigurationPatch{CatchUpWindow: ptr(-1)},
	})
	s.Equal(drafterr.KindValidation, drafterr.KindOf(err))

	_, err = s.app.StartDraft(s.ctx, s.control())
	s.Require().NoError(err)
	_, err = s.app.UpdateConfiguration(s.ctx, ConfigurationRequest{DraftID: s.fx.DraftID, UserID: s.fx.Commissioner})
	s.Equal(drafterr.KindInvalidState, drafterr.KindOf(err))
}

func (s *LifecycleTestSuite) TestGridAndAvailablePlayers() {
	s.setup()
	picks := pick.NewApp(pick.Deps{
		Drafts:  s.fx.Store,
		Ledger:  s.fx.Store,
		Teams:   s.fx.Store,
		Players: s.fx.Store,
		Leagues: s.fx.Store,
		Clock:   s.fx.Clock,
	})
	for i := 0; i < 4; i++ {
		team := s.fx.OnClock(s.T())
		_, err := picks.ApplyPick(s.ctx, pick.PickRequest{DraftID: s.fx.DraftID, TeamID: team.ID, PlayerID: s.fx.Players[i].ID, UserID: team.OwnerID})
		s.Require().NoError(err)
	}
	_, err := picks.ManualSkip(s.ctx, pick.SkipRequest{DraftID: s.fx.DraftID, UserID: s.fx.Commissioner})
	s.Require().NoError(err)

	grid, err := s.app.GetGrid(s.ctx, s.fx.DraftID)
	s.Require().NoError(err)
	s.Require().Len(grid.Rounds, 2)
	s.Equal(RoundCompleted, grid.Rounds[0].Status)
	s.Equal(RoundInProgress, grid.Rounds[1].Status)
	s.Len(grid.Teams, 4)

	round2 := grid.Rounds[1].Cells
	s.Require().Len(round2, 4)
	// serpentine: the last team opens round two
	s.Equal(s.fx.Teams[3].ID, round2[0].TeamID)
	s.Nil(round2[0].Pick)
	s.Require().NotNil(round2[0].Skip)
	s.Equal(s.fx.Teams[0].ID, round2[3].TeamID)
	for _, cell := range grid.Rounds[0].Cells {
		s.NotNil(cell.Pick)
	}

	avail, err := s.app.ListAvailablePlayers(s.ctx, AvailablePlayersRequest{DraftID: s.fx.DraftID, Limit: 5})
	s.Require().NoError(err)
	s.Len(avail.Items, 5)
	s.Equal(20, avail.Count)
	s.Equal(4, avail.DraftedCount)
	s.Equal(s.fx.Players[4].ID, avail.Items[0].ID)

	ss, err := s.app.ListAvailablePlayers(s.ctx, AvailablePlayersRequest{DraftID: s.fx.DraftID, Position: "SS"})
	s.Require().NoError(err)
	for _, p := range ss.Items {
		s.Equal("SS", p.PrimaryPosition)
		s.NotEqual(s.fx.Players[0].ID, p.ID)
	}

	_, err = s.app.ListAvailablePlayers(s.ctx, AvailablePlayersRequest{DraftID: s.fx.DraftID, Limit: -1})
	s.Equal(drafterr.KindValidation, drafterr.KindOf(err))

	view, err := s.app.GetDraft(s.ctx, s.fx.DraftID)
	s.Require().NoError(err)
	s.Len(view.Picks, 4)
	s.Equal(6, view.Draft.CurrentOverallPick)
}

func ptr[T any](v T) *T { return &v }
