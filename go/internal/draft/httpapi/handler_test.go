package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/auth"
	"github.com/mcdev12/bbdraft/go/internal/draft/drafterr"
	"github.com/mcdev12/bbdraft/go/internal/draft/drafttest"
	"github.com/mcdev12/bbdraft/go/internal/draft/lifecycle"
	"github.com/mcdev12/bbdraft/go/internal/draft/pick"
	"github.com/mcdev12/bbdraft/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type HandlerTestSuite struct {
	suite.Suite
	fx       *drafttest.Fixture
	verifier *auth.Verifier
	router   *gin.Engine
}

func (s *HandlerTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
}

func (s *HandlerTestSuite) setup(opts ...drafttest.Option) {
	s.fx = drafttest.New(s.T(), opts...)
	lifecycleApp := lifecycle.NewApp(lifecycle.Deps{
		Drafts:  s.fx.Store,
		Ledger:  s.fx.Store,
		Teams:   s.fx.Store,
		Players: s.fx.Store,
		Leagues: s.fx.Store,
		Clock:   s.fx.Clock,
	})
	pickApp := pick.NewApp(pick.Deps{
		Drafts:  s.fx.Store,
		Ledger:  s.fx.Store,
		Teams:   s.fx.Store,
		Players: s.fx.Store,
		Leagues: s.fx.Store,
		Clock:   s.fx.Clock,
	})
	s.verifier = auth.NewVerifier("http-test-secret", "")
	s.router = gin.New()
	NewHandler(lifecycleApp, pickApp).RegisterRoutes(s.router, s.verifier)
}

func (s *HandlerTestSuite) SetupTest() {
	s.setup()
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func (s *HandlerTestSuite) do(method, path string, user uuid.UUID, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != uuid.Nil {
		token, err := s.verifier.Sign(user, time.Hour)
		s.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerTestSuite) decode(rec *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func (s *HandlerTestSuite) draftPath(suffix string) string {
	return "/api/drafts/" + s.fx.DraftID.String() + suffix
}

func (s *HandlerTestSuite) TestCreateAndStart() {
	s.setup(drafttest.WithoutDraft())

	rec := s.do(http.MethodPost, "/api/drafts", s.fx.Commissioner, map[string]any{
		"league_id": s.fx.League.ID,
		"mode":      "live",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var d models.Draft
	s.decode(rec, &d)
	s.Equal(models.DraftStatusScheduled, d.Status)

	rec = s.do(http.MethodPost, "/api/drafts/"+d.ID.String()+"/start", s.fx.Commissioner, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.decode(rec, &d)
	s.Equal(models.DraftStatusInProgress, d.Status)
}

func (s *HandlerTestSuite) TestPickThenReadViews() {
	team := s.fx.OnClock(s.T())

	rec := s.do(http.MethodPost, s.draftPath("/pick"), team.OwnerID, map[string]any{
		"team_id":   team.ID,
		"player_id": s.fx.Players[2].ID,
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var p models.DraftPick
	s.decode(rec, &p)
	s.Equal(1, p.OverallPick)

	rec = s.do(http.MethodGet, s.draftPath("/picks"), team.OwnerID, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var picks struct {
		Picks []models.DraftPick `json:"picks"`
	}
	s.decode(rec, &picks)
	s.Len(picks.Picks, 1)

	rec = s.do(http.MethodGet, s.draftPath(""), team.OwnerID, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var view lifecycle.DraftView
	s.decode(rec, &view)
	s.Equal(2, view.Draft.CurrentOverallPick)

	rec = s.do(http.MethodGet, s.draftPath("/grid"), team.OwnerID, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var grid lifecycle.Grid
	s.decode(rec, &grid)
	s.Len(grid.Rounds, 2)

	rec = s.do(http.MethodGet, s.draftPath("/available?position=SP&limit=2"), team.OwnerID, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var page lifecycle.AvailablePlayers
	s.decode(rec, &page)
	s.Len(page.Items, 2)
	for _, player := range page.Items {
		s.Equal("SP", player.PrimaryPosition)
	}
	s.Equal(1, page.DraftedCount)
}

func (s *HandlerTestSuite) TestSkipAndCatchUp() {
	skipped := s.fx.OnClock(s.T())

	rec := s.do(http.MethodPost, s.draftPath("/skip"), s.fx.Commissioner, map[string]any{"reason": "manual"})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var skip models.SkippedPick
	s.decode(rec, &skip)

	rec = s.do(http.MethodGet, s.draftPath("/skips"), skipped.OwnerID, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var view pick.SkipsView
	s.decode(rec, &view)
	s.Len(view.CatchUpAvailable, 1)

	rec = s.do(http.MethodPost, s.draftPath("/catchup"), skipped.OwnerID, map[string]any{
		"team_id":   skipped.ID,
		"player_id": s.fx.Players[5].ID,
		"skip_id":   skip.ID,
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var p models.DraftPick
	s.decode(rec, &p)
	s.True(p.WasCatchUp)
}

func (s *HandlerTestSuite) TestPauseResumeAndConfiguration() {
	rec := s.do(http.MethodPost, s.draftPath("/pause"), s.fx.Commissioner, map[string]any{"reason": "stretch"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, s.draftPath("/resume"), s.fx.Commissioner, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	// configuration is frozen once the draft is running
	rec = s.do(http.MethodPut, s.draftPath("/configuration"), s.fx.Commissioner, map[string]any{"max_queue_depth": 3})
	s.Equal(http.StatusBadRequest, rec.Code)
	var body ErrorResponse
	s.decode(rec, &body)
	s.Equal(string(drafterr.KindInvalidState), body.Code)
}

func (s *HandlerTestSuite) TestLottery() {
	s.setup(drafttest.WithStatus(models.DraftStatusScheduled))

	rec := s.do(http.MethodPost, s.draftPath("/lottery"), s.fx.Commissioner, map[string]any{"method": "random"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var result lifecycle.LotteryResult
	s.decode(rec, &result)
	s.Len(result.DraftOrder, len(s.fx.Teams))

	rec = s.do(http.MethodPost, s.draftPath("/lottery"), s.fx.Commissioner, map[string]any{"method": "coin_flip"})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerTestSuite) TestErrorStatuses() {
	onClock := s.fx.OnClock(s.T())
	var waiting *models.FantasyTeam
	for _, team := range s.fx.Teams {
		if team.ID != onClock.ID {
			waiting = team
			break
		}
	}

	tests := []struct {
		name   string
		method string
		path   string
		user   uuid.UUID
		body   any
		status int
		code   drafterr.Kind
	}{
		{"not your turn", http.MethodPost, s.draftPath("/pick"), waiting.OwnerID,
			map[string]any{"team_id": waiting.ID, "player_id": s.fx.Players[0].ID}, http.StatusBadRequest, drafterr.KindOutOfTurn},
		{"not the owner", http.MethodPost, s.draftPath("/pick"), waiting.OwnerID,
			map[string]any{"team_id": onClock.ID, "player_id": s.fx.Players[0].ID}, http.StatusForbidden, drafterr.KindUnauthorized},
		{"unknown draft", http.MethodGet, "/api/drafts/" + uuid.NewString(), waiting.OwnerID, nil, http.StatusNotFound, drafterr.KindNotFound},
		{"malformed id", http.MethodGet, "/api/drafts/not-a-uuid/grid", waiting.OwnerID, nil, http.StatusBadRequest, drafterr.KindValidation},
		{"bad limit", http.MethodGet, s.draftPath("/available?limit=lots"), waiting.OwnerID, nil, http.StatusBadRequest, drafterr.KindValidation},
		{"catch-up without skip", http.MethodPost, s.draftPath("/catchup"), waiting.OwnerID,
			map[string]any{"team_id": waiting.ID, "player_id": s.fx.Players[0].ID}, http.StatusBadRequest, drafterr.KindValidation},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			rec := s.do(tt.method, tt.path, tt.user, tt.body)
			s.Equal(tt.status, rec.Code, rec.Body.String())
			var body ErrorResponse
			s.decode(rec, &body)
			s.Equal(string(tt.code), body.Code)
			s.NotEmpty(body.Error)
		})
	}
}

func (s *HandlerTestSuite) TestAlreadyDraftedIsConflict() {
	first := s.fx.OnClock(s.T())
	rec := s.do(http.MethodPost, s.draftPath("/pick"), first.OwnerID, map[string]any{
		"team_id": first.ID, "player_id": s.fx.Players[0].ID,
	})
	s.Require().Equal(http.StatusCreated, rec.Code)

	second := s.fx.OnClock(s.T())
	rec = s.do(http.MethodPost, s.draftPath("/pick"), second.OwnerID, map[string]any{
		"team_id": second.ID, "player_id": s.fx.Players[0].ID,
	})
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *HandlerTestSuite) TestRequiresToken() {
	rec := s.do(http.MethodGet, s.draftPath(""), uuid.Nil, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, StatusFor(drafterr.KindUnauthorized))
	assert.Equal(t, http.StatusConflict, StatusFor(drafterr.KindAlreadyDrafted))
	assert.Equal(t, http.StatusConflict, StatusFor(drafterr.KindConflict))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(drafterr.KindInternal))
}
