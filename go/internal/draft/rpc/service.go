// Package rpc serves the draft operations over connect with a JSON codec.
package rpc

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/auth"
	"github.com/mcdev12/bbdraft/go/internal/draft/drafterr"
	"github.com/mcdev12/bbdraft/go/internal/draft/lifecycle"
	"github.com/mcdev12/bbdraft/go/internal/draft/pick"
	"github.com/mcdev12/bbdraft/go/internal/models"
)

const DraftServiceName = "bbdraft.draft.v1.DraftService"

const (
	CreateDraftProcedure          = "/" + DraftServiceName + "/CreateDraft"
	GetDraftProcedure             = "/" + DraftServiceName + "/GetDraft"
	StartDraftProcedure           = "/" + DraftServiceName + "/StartDraft"
	PauseDraftProcedure           = "/" + DraftServiceName + "/PauseDraft"
	ResumeDraftProcedure          = "/" + DraftServiceName + "/ResumeDraft"
	MakePickProcedure             = "/" + DraftServiceName + "/MakePick"
	ListPicksProcedure            = "/" + DraftServiceName + "/ListPicks"
	RunLotteryProcedure           = "/" + DraftServiceName + "/RunLottery"
	ListSkipsProcedure            = "/" + DraftServiceName + "/ListSkips"
	SkipPickProcedure             = "/" + DraftServiceName + "/SkipPick"
	MakeCatchUpPickProcedure      = "/" + DraftServiceName + "/MakeCatchUpPick"
	UpdateConfigurationProcedure  = "/" + DraftServiceName + "/UpdateConfiguration"
	GetGridProcedure              = "/" + DraftServiceName + "/GetGrid"
	ListAvailablePlayersProcedure = "/" + DraftServiceName + "/ListAvailablePlayers"
)

// LifecycleApp defines what the service layer needs from the lifecycle application
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

// PickApp defines what the service layer needs from the pick application
type PickApp interface {
	ApplyPick(ctx context.Context, req pick.PickRequest) (*models.DraftPick, error)
	ApplyCatchUp(ctx context.Context, req pick.CatchUpRequest) (*models.DraftPick, error)
	ManualSkip(ctx context.Context, req pick.SkipRequest) (*models.SkippedPick, error)
	ListSkips(ctx context.Context, draftID uuid.UUID) (*pick.SkipsView, error)
}

// DraftServiceHandler is the server side of the draft service.
type DraftServiceHandler interface {
	CreateDraft(context.Context, *connect.Request[lifecycle.CreateDraftRequest]) (*connect.Response[DraftResponse], error)
	GetDraft(context.Context, *connect.Request[DraftRequest]) (*connect.Response[lifecycle.DraftView], error)
	StartDraft(context.Context, *connect.Request[lifecycle.ControlRequest]) (*connect.Response[DraftResponse], error)
	PauseDraft(context.Context, *connect.Request[lifecycle.ControlRequest]) (*connect.Response[DraftResponse], error)
	ResumeDraft(context.Context, *connect.Request[lifecycle.ControlRequest]) (*connect.Response[DraftResponse], error)
	MakePick(context.Context, *connect.Request[pick.PickRequest]) (*connect.Response[PickResponse], error)
	ListPicks(context.Context, *connect.Request[DraftRequest]) (*connect.Response[PicksResponse], error)
	RunLottery(context.Context, *connect.Request[lifecycle.LotteryRequest]) (*connect.Response[lifecycle.LotteryResult], error)
	ListSkips(context.Context, *connect.Request[DraftRequest]) (*connect.Response[pick.SkipsView], error)
	SkipPick(context.Context, *connect.Request[pick.SkipRequest]) (*connect.Response[SkipResponse], error)
	MakeCatchUpPick(context.Context, *connect.Request[pick.CatchUpRequest]) (*connect.Response[PickResponse], error)
	UpdateConfiguration(context.Context, *connect.Request[lifecycle.ConfigurationRequest]) (*connect.Response[DraftResponse], error)
	GetGrid(context.Context, *connect.Request[DraftRequest]) (*connect.Response[lifecycle.Grid], error)
	ListAvailablePlayers(context.Context, *connect.Request[lifecycle.AvailablePlayersRequest]) (*connect.Response[lifecycle.AvailablePlayers], error)
}

// NewDraftServiceHandler builds an HTTP handler for every procedure. The
// returned path is the mount prefix.
func NewDraftServiceHandler(svc DraftServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(CreateDraftProcedure, connect.NewUnaryHandler(CreateDraftProcedure, svc.CreateDraft, opts...))
	mux.Handle(GetDraftProcedure, connect.NewUnaryHandler(GetDraftProcedure, svc.GetDraft, opts...))
	mux.Handle(StartDraftProcedure, connect.NewUnaryHandler(StartDraftProcedure, svc.StartDraft, opts...))
	mux.Handle(PauseDraftProcedure, connect.NewUnaryHandler(PauseDraftProcedure, svc.PauseDraft, opts...))
	mux.Handle(ResumeDraftProcedure, connect.NewUnaryHandler(ResumeDraftProcedure, svc.ResumeDraft, opts...))
	mux.Handle(MakePickProcedure, connect.NewUnaryHandler(MakePickProcedure, svc.MakePick, opts...))
	mux.Handle(ListPicksProcedure, connect.NewUnaryHandler(ListPicksProcedure, svc.ListPicks, opts...))
	mux.Handle(RunLotteryProcedure, connect.NewUnaryHandler(RunLotteryProcedure, svc.RunLottery, opts...))
	mux.Handle(ListSkipsProcedure, connect.NewUnaryHandler(ListSkipsProcedure, svc.ListSkips, opts...))
	mux.Handle(SkipPickProcedure, connect.NewUnaryHandler(SkipPickProcedure, svc.SkipPick, opts...))
	mux.Handle(MakeCatchUpPickProcedure, connect.NewUnaryHandler(MakeCatchUpPickProcedure, svc.MakeCatchUpPick, opts...))
	mux.Handle(UpdateConfigurationProcedure, connect.NewUnaryHandler(UpdateConfigurationProcedure, svc.UpdateConfiguration, opts...))
	mux.Handle(GetGridProcedure, connect.NewUnaryHandler(GetGridProcedure, svc.GetGrid, opts...))
	mux.Handle(ListAvailablePlayersProcedure, connect.NewUnaryHandler(ListAvailablePlayersProcedure, svc.ListAvailablePlayers, opts...))
	return "/" + DraftServiceName + "/", mux
}

// Service implements DraftServiceHandler on top of the draft apps
type Service struct {
	lifecycle LifecycleApp
	picks     PickApp
}

func NewService(lifecycleApp LifecycleApp, pickApp PickApp) *Service {
	return &Service{lifecycle: lifecycleApp, picks: pickApp}
}

var _ DraftServiceHandler = (*Service)(nil)

// caller returns the authenticated user, put on the context by
// auth.NewInterceptor.
func caller(ctx context.Context) (uuid.UUID, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}

func requireDraftID(id uuid.UUID) error {
	if id == uuid.Nil {
		return drafterr.Validation("draft_id is required")
	}
	return nil
}

func (s *Service) CreateDraft(ctx context.Context, req *connect.Request[lifecycle.CreateDraftRequest]) (*connect.Response[DraftResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	in := *req.Msg
	in.UserID = userID
	if in.LeagueID == uuid.Nil {
		return nil, toConnectError(CreateDraftProcedure, drafterr.Validation("league_id is required"))
	}

	d, err := s.lifecycle.CreateDraft(ctx, in)
	if err != nil {
		return nil, toConnectError(CreateDraftProcedure, err)
	}
	return connect.NewResponse(&DraftResponse{Draft: d}), nil
}

func (s *Service) GetDraft(ctx context.Context, req *connect.Request[DraftRequest]) (*connect.Response[lifecycle.DraftView], error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	if err := requireDraftID(req.Msg.DraftID); err != nil {
		return nil, toConnectError(GetDraftProcedure, err)
	}

	view, err := s.lifecycle.GetDraft(ctx, req.Msg.DraftID)
	if err != nil {
		return nil, toConnectError(GetDraftProcedure, err)
	}
	return connect.NewResponse(view), nil
}

func (s *Service) StartDraft(ctx context.Context, req *connect.Request[lifecycle.ControlRequest]) (*connect.Response[DraftResponse], error) {
	return s.control(ctx, StartDraftProcedure, req.Msg, s.lifecycle.StartDraft)
}

func (s *Service) PauseDraft(ctx context.Context, req *connect.Request[lifecycle.ControlRequest]) (*connect.Response[DraftResponse], error) {
	return s.control(ctx, PauseDraftProcedure, req.Msg, s.lifecycle.PauseDraft)
}

func (s *Service) ResumeDraft(ctx context.Context, req *connect.Request[lifecycle.ControlRequest]) (*connect.Response[DraftResponse], error) {
	return s.control(ctx, ResumeDraftProcedure, req.Msg, s.lifecycle.ResumeDraft)
}

func (s *Service) control(
	ctx context.Context,
	procedure string,
	msg *lifecycle.ControlRequest,
	fn func(context.Context, lifecycle.ControlRequest) (*models.Draft, error),
) (*connect.Response[DraftResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	in := *msg
	in.UserID = userID
	if err := requireDraftID(in.DraftID); err != nil {
		return nil, toConnectError(procedure, err)
	}

	d, err := fn(ctx, in)
	if err != nil {
		return nil, toConnectError(procedure, err)
	}
	return connect.NewResponse(&DraftResponse{Draft: d}), nil
}

func (s *Service) MakePick(ctx context.Context, req *connect.Request[pick.PickRequest]) (*connect.Response[PickResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	in := *req.Msg
	in.UserID = userID
	if err := requireDraftID(in.DraftID); err != nil {
		return nil, toConnectError(MakePickProcedure, err)
	}

	p, err := s.picks.ApplyPick(ctx, in)
	if err != nil {
		return nil, toConnectError(MakePickProcedure, err)
	}
	return connect.NewResponse(&PickResponse{Pick: p}), nil
}

func (s *Service) ListPicks(ctx context.Context, req *connect.Request[DraftRequest]) (*connect.Response[PicksResponse], error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	if err := requireDraftID(req.Msg.DraftID); err != nil {
		return nil, toConnectError(ListPicksProcedure, err)
	}

	picks, err := s.lifecycle.ListPicks(ctx, req.Msg.DraftID)
	if err != nil {
		return nil, toConnectError(ListPicksProcedure, err)
	}
	return connect.NewResponse(&PicksResponse{Picks: picks}), nil
}

func (s *Service) RunLottery(ctx context.Context, req *connect.Request[lifecycle.LotteryRequest]) (*connect.Response[lifecycle.LotteryResult], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	in := *req.Msg
	in.UserID = userID
	if err := requireDraftID(in.DraftID); err != nil {
		return nil, toConnectError(RunLotteryProcedure, err)
	}

	result, err := s.lifecycle.RunLottery(ctx, in)
	if err != nil {
		return nil, toConnectError(RunLotteryProcedure, err)
	}
	return connect.NewResponse(result), nil
}

func (s *Service) ListSkips(ctx context.Context, req *connect.Request[DraftRequest]) (*connect.Response[pick.SkipsView], error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	if err := requireDraftID(req.Msg.DraftID); err != nil {
		return nil, toConnectError(ListSkipsProcedure, err)
	}

	view, err := s.picks.ListSkips(ctx, req.Msg.DraftID)
	if err != nil {
		return nil, toConnectError(ListSkipsProcedure, err)
	}
	return connect.NewResponse(view), nil
}

func (s *Service) SkipPick(ctx context.Context, req *connect.Request[pick.SkipRequest]) (*connect.Response[SkipResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	in := *req.Msg
	in.UserID = userID
	if err := requireDraftID(in.DraftID); err != nil {
		return nil, toConnectError(SkipPickProcedure, err)
	}

	skip, err := s.picks.ManualSkip(ctx, in)
	if err != nil {
		return nil, toConnectError(SkipPickProcedure, err)
	}
	return connect.NewResponse(&SkipResponse{Skip: skip}), nil
}

func (s *Service) MakeCatchUpPick(ctx context.Context, req *connect.Request[pick.CatchUpRequest]) (*connect.Response[PickResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	in := *req.Msg
	in.UserID = userID
	if err := requireDraftID(in.DraftID); err != nil {
		return nil, toConnectError(MakeCatchUpPickProcedure, err)
	}
	if in.SkipID == uuid.Nil {
		return nil, toConnectError(MakeCatchUpPickProcedure, drafterr.Validation("skip_id is required"))
	}

	p, err := s.picks.ApplyCatchUp(ctx, in)
	if err != nil {
		return nil, toConnectError(MakeCatchUpPickProcedure, err)
	}
	return connect.NewResponse(&PickResponse{Pick: p}), nil
}

func (s *Service) UpdateConfiguration(ctx context.Context, req *connect.Request[lifecycle.ConfigurationRequest]) (*connect.Response[DraftResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	in := *req.Msg
	in.UserID = userID
	if err := requireDraftID(in.DraftID); err != nil {
		return nil, toConnectError(UpdateConfigurationProcedure, err)
	}

	d, err := s.lifecycle.UpdateConfiguration(ctx, in)
	if err != nil {
		return nil, toConnectError(UpdateConfigurationProcedure, err)
	}
	return connect.NewResponse(&DraftResponse{Draft: d}), nil
}

func (s *Service) GetGrid(ctx context.Context, req *connect.Request[DraftRequest]) (*connect.Response[lifecycle.Grid], error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	if err := requireDraftID(req.Msg.DraftID); err != nil {
		return nil, toConnectError(GetGridProcedure, err)
	}

	grid, err := s.lifecycle.GetGrid(ctx, req.Msg.DraftID)
	if err != nil {
		return nil, toConnectError(GetGridProcedure, err)
	}
	return connect.NewResponse(grid), nil
}

func (s *Service) ListAvailablePlayers(ctx context.Context, req *connect.Request[lifecycle.AvailablePlayersRequest]) (*connect.Response[lifecycle.AvailablePlayers], error) {
	if _, err := caller(ctx); err != nil {
		return nil, err
	}
	if err := requireDraftID(req.Msg.DraftID); err != nil {
		return nil, toConnectError(ListAvailablePlayersProcedure, err)
	}

	page, err := s.lifecycle.ListAvailablePlayers(ctx, *req.Msg)
	if err != nil {
		return nil, toConnectError(ListAvailablePlayersProcedure, err)
	}
	return connect.NewResponse(page), nil
}
