// Package httpapi serves the draft operations as JSON over gin.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/auth"
	"github.com/mcdev12/bbdraft/go/internal/draft/drafterr"
	"github.com/mcdev12/bbdraft/go/internal/draft/lifecycle"
	"github.com/mcdev12/bbdraft/go/internal/draft/pick"
	"github.com/mcdev12/bbdraft/go/internal/models"
)

type LifecycleApp interface {
	CreateDraft(ctx context.Context, req lifecycle.CreateDraftRequest) (*models.Draft, error)
	GetDraft(ctx context.Context, draftID uuid.UUID) (*lifecycle.DraftView, error)
	ListPicks(ctx context.Context, draftID uuid.UUID) ([]models.DraftPick, error)
	StartDraft(ctx context.Context, req lifecycle.ControlRequest) (*models.Draft, error)
	PauseDraft(ctx context.Context, req lifecycle.ControlRequest) (*models.Draft, error)
	ResumeDraft(ctx context.Context, req lifecycle.ControlRequest) (*models.Draft, error)
	RunLottery(ctx context.Context, req lifecycle.LotteryRequest) (*lifecycle.LotteryResult, error)
	UpdateConfiguration(ctx context.Context, req lifecycle.ConfigurationRequest) (*models.Draft, error)
	GetGrid(ctx context.Context, draftID uuid.UUID) (*lifecycle.Grid, error)
	ListAvailablePlayers(ctx context.Context, req lifecycle.AvailablePlayersRequest) (*lifecycle.AvailablePlayers, error)
}

type PickApp interface {
	ApplyPick(ctx context.Context, req pick.PickRequest) (*models.DraftPick, error)
	ApplyCatchUp(ctx context.Context, req pick.CatchUpRequest) (*models.DraftPick, error)
	ManualSkip(ctx context.Context, req pick.SkipRequest) (*models.SkippedPick, error)
	ListSkips(ctx context.Context, draftID uuid.UUID) (*pick.SkipsView, error)
}

type Handler struct {
	lifecycle LifecycleApp
	picks     PickApp
}

func NewHandler(lifecycleApp LifecycleApp, pickApp PickApp) *Handler {
	return &Handler{lifecycle: lifecycleApp, picks: pickApp}
}

// RegisterRoutes mounts /api/drafts behind bearer authentication.
func (h *Handler) RegisterRoutes(router gin.IRouter, verifier *auth.Verifier) {
	drafts := router.Group("/api/drafts")
	drafts.Use(auth.GinMiddleware(verifier))
	{
		drafts.POST("", h.CreateDraft)
		drafts.GET("/:id", h.GetDraft)
		drafts.POST("/:id/start", h.StartDraft)
		drafts.POST("/:id/pause", h.PauseDraft)
		drafts.POST("/:id/resume", h.ResumeDraft)
		drafts.POST("/:id/pick", h.MakePick)
		drafts.GET("/:id/picks", h.ListPicks)
		drafts.POST("/:id/lottery", h.RunLottery)
		drafts.GET("/:id/skips", h.ListSkips)
		drafts.POST("/:id/skip", h.SkipPick)
		drafts.POST("/:id/catchup", h.MakeCatchUpPick)
		drafts.PUT("/:id/configuration", h.UpdateConfiguration)
		drafts.GET("/:id/grid", h.GetGrid)
		drafts.GET("/:id/available", h.ListAvailablePlayers)
	}
}

func userID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := auth.UserIDFromContext(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Code: "UNAUTHENTICATED", Error: "authentication required"})
	}
	return id, ok
}

func draftID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, drafterr.Validation("invalid draft id"))
		return uuid.Nil, false
	}
	return id, true
}

// bind decodes an optional JSON body into v.
func bind(c *gin.Context, v any) bool {
	if c.Request.Body == nil || c.Request.Body == http.NoBody || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, drafterr.Validation("invalid request body: "+err.Error()))
		return false
	}
	return true
}

func (h *Handler) CreateDraft(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}
	var req lifecycle.CreateDraftRequest
	if !bind(c, &req) {
		return
	}
	if req.LeagueID == uuid.Nil {
		writeError(c, drafterr.Validation("league_id is required"))
		return
	}
	req.UserID = user

	d, err := h.lifecycle.CreateDraft(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDraft(c *gin.Context) {
	id, ok := draftID(c)
	if !ok {
		return
	}
	view, err := h.lifecycle.GetDraft(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) StartDraft(c *gin.Context) {
	h.control(c, h.lifecycle.StartDraft)
}

func (h *Handler) PauseDraft(c *gin.Context) {
	h.control(c, h.lifecycle.PauseDraft)
}

func (h *Handler) ResumeDraft(c *gin.Context) {
	h.control(c, h.lifecycle.ResumeDraft)
}

func (h *Handler) control(c *gin.Context, fn func(context.Context, lifecycle.ControlRequest) (*models.Draft, error)) {
	user, ok := userID(c)
	if !ok {
		return
	}
	id, ok := draftID(c)
	if !ok {
		return
	}
	var req lifecycle.ControlRequest
	if !bind(c, &req) {
		return
	}
	req.DraftID = id
	req.UserID = user

	d, err := fn(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) MakePick(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}
	id, ok := draftID(c)
	if !ok {
		return
	}
	var req pick.PickRequest
	if !bind(c, &req) {
		return
	}
	req.DraftID = id
	req.UserID = user

	p, err := h.picks.ApplyPick(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListPicks(c *gin.Context) {
	id, ok := draftID(c)
	if !ok {
		return
	}
	picks, err := h.lifecycle.ListPicks(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"picks": picks})
}

func (h *Handler) RunLottery(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}
	id, ok := draftID(c)
	if !ok {
		return
	}
	var req lifecycle.LotteryRequest
	if !bind(c, &req) {
		return
	}
	req.DraftID = id
	req.UserID = user

	result, err := h.lifecycle.RunLottery(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) ListSkips(c *gin.Context) {
	id, ok := draftID(c)
	if !ok {
		return
	}
	view, err := h.picks.ListSkips(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) SkipPick(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}
	id, ok := draftID(c)
	if !ok {
		return
	}
	var req pick.SkipRequest
	if !bind(c, &req) {
		return
	}
	req.DraftID = id
	req.UserID = user

	skip, err := h.picks.ManualSkip(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, skip)
}

func (h *Handler) MakeCatchUpPick(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}
	id, ok := draftID(c)
	if !ok {
		return
	}
	var req pick.CatchUpRequest
	if !bind(c, &req) {
		return
	}
	if req.SkipID == uuid.Nil {
		writeError(c, drafterr.Validation("skip_id is required"))
		return
	}
	req.DraftID = id
	req.UserID = user

	p, err := h.picks.ApplyCatchUp(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) UpdateConfiguration(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}
	id, ok := draftID(c)
	if !ok {
		return
	}
	var patch models.ConfigurationPatch
	if !bind(c, &patch) {
		return
	}

	d, err := h.lifecycle.UpdateConfiguration(c.Request.Context(), lifecycle.ConfigurationRequest{
		DraftID: id,
		UserID:  user,
		Patch:   patch,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) GetGrid(c *gin.Context) {
	id, ok := draftID(c)
	if !ok {
		return
	}
	grid, err := h.lifecycle.GetGrid(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, grid)
}

func (h *Handler) ListAvailablePlayers(c *gin.Context) {
	id, ok := draftID(c)
	if !ok {
		return
	}
	req := lifecycle.AvailablePlayersRequest{
		DraftID:  id,
		Position: c.Query("position"),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(c, drafterr.Validation("limit must be a number"))
			return
		}
		req.Limit = limit
	}

	page, err := h.lifecycle.ListAvailablePlayers(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
