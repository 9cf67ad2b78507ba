package rpc

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/draft/lifecycle"
	"github.com/mcdev12/bbdraft/go/internal/draft/pick"
	"github.com/mcdev12/bbdraft/go/internal/models"
)

// Client calls the draft service. Classified server errors come back as
// *drafterr.Error.
type Client struct {
	createDraft          *connect.Client[lifecycle.CreateDraftRequest, DraftResponse]
	getDraft             *connect.Client[DraftRequest, lifecycle.DraftView]
	startDraft           *connect.Client[lifecycle.ControlRequest, DraftResponse]
	pauseDraft           *connect.Client[lifecycle.ControlRequest, DraftResponse]
	resumeDraft          *connect.Client[lifecycle.ControlRequest, DraftResponse]
	makePick             *connect.Client[pick.PickRequest, PickResponse]
	listPicks            *connect.Client[DraftRequest, PicksResponse]
	runLottery           *connect.Client[lifecycle.LotteryRequest, lifecycle.LotteryResult]
	listSkips            *connect.Client[DraftRequest, pick.SkipsView]
	skipPick             *connect.Client[pick.SkipRequest, SkipResponse]
	makeCatchUpPick      *connect.Client[pick.CatchUpRequest, PickResponse]
	updateConfiguration  *connect.Client[lifecycle.ConfigurationRequest, DraftResponse]
	getGrid              *connect.Client[DraftRequest, lifecycle.Grid]
	listAvailablePlayers *connect.Client[lifecycle.AvailablePlayersRequest, lifecycle.AvailablePlayers]
}

func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &Client{
		createDraft:          connect.NewClient[lifecycle.CreateDraftRequest, DraftResponse](httpClient, baseURL+CreateDraftProcedure, opts...),
		getDraft:             connect.NewClient[DraftRequest, lifecycle.DraftView](httpClient, baseURL+GetDraftProcedure, opts...),
		startDraft:           connect.NewClient[lifecycle.ControlRequest, DraftResponse](httpClient, baseURL+StartDraftProcedure, opts...),
		pauseDraft:           connect.NewClient[lifecycle.ControlRequest, DraftResponse](httpClient, baseURL+PauseDraftProcedure, opts...),
		resumeDraft:          connect.NewClient[lifecycle.ControlRequest, DraftResponse](httpClient, baseURL+ResumeDraftProcedure, opts...),
		makePick:             connect.NewClient[pick.PickRequest, PickResponse](httpClient, baseURL+MakePickProcedure, opts...),
		listPicks:            connect.NewClient[DraftRequest, PicksResponse](httpClient, baseURL+ListPicksProcedure, opts...),
		runLottery:           connect.NewClient[lifecycle.LotteryRequest, lifecycle.LotteryResult](httpClient, baseURL+RunLotteryProcedure, opts...),
		listSkips:            connect.NewClient[DraftRequest, pick.SkipsView](httpClient, baseURL+ListSkipsProcedure, opts...),
		skipPick:             connect.NewClient[pick.SkipRequest, SkipResponse](httpClient, baseURL+SkipPickProcedure, opts...),
		makeCatchUpPick:      connect.NewClient[pick.CatchUpRequest, PickResponse](httpClient, baseURL+MakeCatchUpPickProcedure, opts...),
		updateConfiguration:  connect.NewClient[lifecycle.ConfigurationRequest, DraftResponse](httpClient, baseURL+UpdateConfigurationProcedure, opts...),
		getGrid:              connect.NewClient[DraftRequest, lifecycle.Grid](httpClient, baseURL+GetGridProcedure, opts...),
		listAvailablePlayers: connect.NewClient[lifecycle.AvailablePlayersRequest, lifecycle.AvailablePlayers](httpClient, baseURL+ListAvailablePlayersProcedure, opts...),
	}
}

func call[Req, Res any](ctx context.Context, c *connect.Client[Req, Res], req *Req) (*Res, error) {
	res, err := c.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, fromConnectError(err)
	}
	return res.Msg, nil
}

func (c *Client) CreateDraft(ctx context.Context, req lifecycle.CreateDraftRequest) (*models.Draft, error) {
	res, err := call(ctx, c.createDraft, &req)
	if err != nil {
		return nil, err
	}
	return res.Draft, nil
}

func (c *Client) GetDraft(ctx context.Context, draftID uuid.UUID) (*lifecycle.DraftView, error) {
	return call(ctx, c.getDraft, &DraftRequest{DraftID: draftID})
}

func (c *Client) StartDraft(ctx context.Context, req lifecycle.ControlRequest) (*models.Draft, error) {
	res, err := call(ctx, c.startDraft, &req)
	if err != nil {
		return nil, err
	}
	return res.Draft, nil
}

func (c *Client) PauseDraft(ctx context.Context, req lifecycle.ControlRequest) (*models.Draft, error) {
	res, err := call(ctx, c.pauseDraft, &req)
	if err != nil {
		return nil, err
	}
	return res.Draft, nil
}

func (c *Client) ResumeDraft(ctx context.Context, req lifecycle.ControlRequest) (*models.Draft, error) {
	res, err := call(ctx, c.resumeDraft, &req)
	if err != nil {
		return nil, err
	}
	return res.Draft, nil
}

func (c *Client) MakePick(ctx context.Context, req pick.PickRequest) (*models.DraftPick, error) {
	res, err := call(ctx, c.makePick, &req)
	if err != nil {
		return nil, err
	}
	return res.Pick, nil
}

func (c *Client) ListPicks(ctx context.Context, draftID uuid.UUID) ([]models.DraftPick, error) {
	res, err := call(ctx, c.listPicks, &DraftRequest{DraftID: draftID})
	if err != nil {
		return nil, err
	}
	return res.Picks, nil
}

func (c *Client) RunLottery(ctx context.Context, req lifecycle.LotteryRequest) (*lifecycle.LotteryResult, error) {
	return call(ctx, c.runLottery, &req)
}

func (c *Client) ListSkips(ctx context.Context, draftID uuid.UUID) (*pick.SkipsView, error) {
	return call(ctx, c.listSkips, &DraftRequest{DraftID: draftID})
}

func (c *Client) SkipPick(ctx context.Context, req pick.SkipRequest) (*models.SkippedPick, error) {
	res, err := call(ctx, c.skipPick, &req)
	if err != nil {
		return nil, err
	}
	return res.Skip, nil
}

func (c *Client) MakeCatchUpPick(ctx context.Context, req pick.CatchUpRequest) (*models.DraftPick, error) {
	res, err := call(ctx, c.makeCatchUpPick, &req)
	if err != nil {
		return nil, err
	}
	return res.Pick, nil
}

func (c *Client) UpdateConfiguration(ctx context.Context, req lifecycle.ConfigurationRequest) (*models.Draft, error) {
	res, err := call(ctx, c.updateConfiguration, &req)
	if err != nil {
		return nil, err
	}
	return res.Draft, nil
}

func (c *Client) GetGrid(ctx context.Context, draftID uuid.UUID) (*lifecycle.Grid, error) {
	return call(ctx, c.getGrid, &DraftRequest{DraftID: draftID})
}

func (c *Client) ListAvailablePlayers(ctx context.Context, req lifecycle.AvailablePlayersRequest) (*lifecycle.AvailablePlayers, error) {
	return call(ctx, c.listAvailablePlayers, &req)
}
