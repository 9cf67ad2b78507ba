package pick

import (
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/draft/drafterr"
	"github.com/mcdev12/bbdraft/go/internal/draft/drafttest"
	"github.com/mcdev12/bbdraft/go/internal/draft/events"
	"github.com/mcdev12/bbdraft/go/internal/models"
)

// skipFirst lets the first slot time out with auto-pick off and returns the
// resulting skip.
func (s *PickAppTestSuite) skipFirst(configure func(*models.DraftConfiguration)) models.SkippedPick {
	s.setup(drafttest.WithConfig(func(c *models.DraftConfiguration) {
		c.AutoPickOnTimeout = false
		if configure != nil {
			configure(c)
		}
	}))
	s.fx.ExpireClock(s.T())
	s.Require().NoError(s.app.HandleTimeout(s.ctx, s.fx.DraftID, 1))
	d := s.fx.Draft(s.T())
	s.Require().Len(d.SkipQueue, 1)
	return d.SkipQueue[0]
}

func (s *PickAppTestSuite) catchUpReq(skip models.SkippedPick, player *models.Player) CatchUpRequest {
	team := s.fx.Team(skip.TeamID)
	return CatchUpRequest{
		DraftID:  s.fx.DraftID,
		TeamID:   team.ID,
		PlayerID: player.ID,
		SkipID:   skip.ID,
		UserID:   team.OwnerID,
	}
}

func (s *PickAppTestSuite) TestCatchUpFillsSkippedSlot() {
	skip := s.skipFirst(nil)

	// the live turn moves on before the catch-up
	_, err := s.pickFor(s.fx.OnClock(s.T()), s.fx.Players[0])
	s.Require().NoError(err)
	before := s.fx.Draft(s.T()).CurrentOverallPick

	s.fx.Clock.Advance(5 * time.Minute)
	pick, err := s.app.ApplyCatchUp(s.ctx, s.catchUpReq(skip, s.fx.Players[3]))
	s.Require().NoError(err)

	s.True(pick.WasCatchUp)
	s.False(pick.WasAutoPick)
	s.Equal(skip.OverallPick, pick.OverallPick)
	s.Equal(skip.Round, pick.Round)
	s.Equal(skip.PickInRound, pick.PickInRound)
	s.Equal(skip.TeamID, pick.TeamID)

	d := s.fx.Draft(s.T())
	s.Equal(before, d.CurrentOverallPick)
	s.Equal(1, d.Statistics.CatchUpCount)
	updated := d.FindSkip(skip.ID)
	s.Require().NotNil(updated)
	s.Equal(models.CatchUpStatusCompleted, updated.CatchUpStatus)
	s.Require().NotNil(updated.CatchUpCompletedAt)
	s.Equal(s.fx.Clock.Now(), *updated.CatchUpCompletedAt)
	s.Require().NotNil(updated.PlayerID)
	s.Equal(s.fx.Players[3].ID, *updated.PlayerID)

	stored, err := s.fx.Store.GetPick(s.ctx, s.fx.DraftID, skip.OverallPick)
	s.Require().NoError(err)
	s.True(stored.WasCatchUp)

	s.Equal(events.TypeCatchUpMade, s.eventTypes()[len(s.eventTypes())-1])
}

func (s *PickAppTestSuite) TestCatchUpRejections() {
	skip := s.skipFirst(nil)
	_, err := s.pickFor(s.fx.OnClock(s.T()), s.fx.Players[0])
	s.Require().NoError(err)

	s.Run("other team's skip", func() {
		other := s.fx.Teams[1]
		_, err := s.app.ApplyCatchUp(s.ctx, CatchUpRequest{
			DraftID:  s.fx.DraftID,
			TeamID:   other.ID,
			PlayerID: s.fx.Players[4].ID,
			SkipID:   skip.ID,
			UserID:   other.OwnerID,
		})
		s.Equal(drafterr.KindNotFound, drafterr.KindOf(err))
	})

	s.Run("unknown skip", func() {
		req := s.catchUpReq(skip, s.fx.Players[4])
		req.SkipID = uuid.New()
		_, err := s.app.ApplyCatchUp(s.ctx, req)
		s.Equal(drafterr.KindNotFound, drafterr.KindOf(err))
	})

	s.Run("not the owner", func() {
		req := s.catchUpReq(skip, s.fx.Players[4])
		req.UserID = s.fx.Teams[2].OwnerID
		_, err := s.app.ApplyCatchUp(s.ctx, req)
		s.Equal(drafterr.KindUnauthorized, drafterr.KindOf(err))
	})

	s.Run("player already drafted", func() {
		_, err := s.app.ApplyCatchUp(s.ctx, s.catchUpReq(skip, s.fx.Players[0]))
		s.Equal(drafterr.KindAlreadyDrafted, drafterr.KindOf(err))
	})

	s.Run("used twice", func() {
		_, err := s.app.ApplyCatchUp(s.ctx, s.catchUpReq(skip, s.fx.Players[4]))
		s.Require().NoError(err)
		_, err = s.app.ApplyCatchUp(s.ctx, s.catchUpReq(skip, s.fx.Players[5]))
		s.Equal(drafterr.KindInvalidState, drafterr.KindOf(err))
	})
}

func (s *PickAppTestSuite) TestCatchUpAfterDeadline() {
	skip := s.skipFirst(func(c *models.DraftConfiguration) { c.CatchUpWindow = 10 })

	s.fx.Clock.Advance(10 * time.Minute)
	_, err := s.app.ApplyCatchUp(s.ctx, s.catchUpReq(skip, s.fx.Players[2]))
	s.Equal(drafterr.KindInvalidState, drafterr.KindOf(err))

	view, err := s.app.ListSkips(s.ctx, s.fx.DraftID)
	s.Require().NoError(err)
	s.Len(view.Skips, 1)
	s.Empty(view.CatchUpAvailable)

	n, err := s.app.ForfeitExpiredSkips(s.ctx, s.fx.DraftID)
	s.Require().NoError(err)
	s.Equal(1, n)
	s.Equal(models.CatchUpStatusForfeited, s.fx.Draft(s.T()).SkipQueue[0].CatchUpStatus)

	n, err = s.app.ForfeitExpiredSkips(s.ctx, s.fx.DraftID)
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *PickAppTestSuite) TestListSkipsOpenWindow() {
	skip := s.skipFirst(nil)

	view, err := s.app.ListSkips(s.ctx, s.fx.DraftID)
	s.Require().NoError(err)
	s.Require().Len(view.CatchUpAvailable, 1)
	s.Equal(skip.ID, view.CatchUpAvailable[0].ID)

	n, err := s.app.ForfeitExpiredSkips(s.ctx, s.fx.DraftID)
	s.Require().NoError(err)
	s.Zero(n)
}
