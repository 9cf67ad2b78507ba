package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/draft/drafterr"
	"github.com/mcdev12/bbdraft/go/internal/draft/events"
	"github.com/mcdev12/bbdraft/go/internal/draft/pick"
	"github.com/mcdev12/bbdraft/go/internal/draft/store"
	"github.com/mcdev12/bbdraft/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Inbound message types.
const (
	MsgJoin        = "join"
	MsgLeave       = "leave"
	MsgPick        = "pick"
	MsgQueueUpdate = "queue_update"
	MsgChat        = "chat"
)

// MaxChatLength caps chat messages, in characters.
const MaxChatLength = 500

// Message is the inbound frame a client sends.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type JoinMessage struct {
	DraftID uuid.UUID `json:"draft_id"`
	TeamID  uuid.UUID `json:"team_id"`
}

type LeaveMessage struct {
	DraftID uuid.UUID `json:"draft_id"`
}

type PickMessage struct {
	DraftID  uuid.UUID `json:"draft_id"`
	TeamID   uuid.UUID `json:"team_id"`
	PlayerID uuid.UUID `json:"player_id"`
}

type QueueUpdateMessage struct {
	DraftID uuid.UUID   `json:"draft_id"`
	TeamID  uuid.UUID   `json:"team_id"`
	Queue   []uuid.UUID `json:"queue"`
}

type ChatMessage struct {
	DraftID uuid.UUID `json:"draft_id"`
	Message string    `json:"message"`
}

func (h *Hub) dispatch(c *Client, raw []byte) {
	ctx := c.ctx
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.replyError(c, uuid.Nil, drafterr.Validation("malformed message"))
		return
	}

	var (
		draftID uuid.UUID
		err     error
	)
	switch msg.Type {
	case MsgJoin:
		var m JoinMessage
		if err = decode(msg.Data, &m); err == nil {
			draftID = m.DraftID
			err = h.join(ctx, c, m)
		}
	case MsgLeave:
		var m LeaveMessage
		if err = decode(msg.Data, &m); err == nil {
			draftID = m.DraftID
			err = h.leave(ctx, c, m.DraftID)
		}
	case MsgPick:
		var m PickMessage
		if err = decode(msg.Data, &m); err == nil {
			draftID = m.DraftID
			_, err = h.picks.ApplyPick(ctx, pick.PickRequest{
				DraftID:  m.DraftID,
				TeamID:   m.TeamID,
				PlayerID: m.PlayerID,
				UserID:   c.userID,
			})
		}
	case MsgQueueUpdate:
		var m QueueUpdateMessage
		if err = decode(msg.Data, &m); err == nil {
			draftID = m.DraftID
			err = h.updateQueue(ctx, c, m)
		}
	case MsgChat:
		var m ChatMessage
		if err = decode(msg.Data, &m); err == nil {
			draftID = m.DraftID
			err = h.chat(ctx, c, m)
		}
	default:
		err = drafterr.Validation(fmt.Sprintf("unknown message type %q", msg.Type))
	}

	if err != nil {
		h.replyError(c, draftID, err)
	}
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return drafterr.Validation("message data is required")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return drafterr.Validation("malformed message data")
	}
	return nil
}

func (h *Hub) join(ctx context.Context, c *Client, m JoinMessage) error {
	d, err := h.drafts.GetDraft(ctx, m.DraftID)
	if err != nil {
		return store.Classify(err, "draft")
	}
	team, err := h.ownedTeam(ctx, c, d, m.TeamID)
	if err != nil {
		return err
	}

	h.register(c, d.ID, team.ID)
	if h.presence != nil {
		if err := h.presence.Join(ctx, d.ID, events.Member{UserID: c.userID, TeamID: team.ID}); err != nil {
			log.Warn().Err(err).Str("draft_id", d.ID.String()).Msg("failed to record presence")
		}
	}

	state, err := h.snapshot(ctx, d)
	if err != nil {
		if last := h.unregister(c, d.ID); last && h.presence != nil {
			if err := h.presence.Leave(ctx, d.ID, c.userID); err != nil {
				log.Warn().Err(err).Str("draft_id", d.ID.String()).Msg("failed to clear presence")
			}
		}
		return err
	}
	if !c.enqueue(mustMarshal(state)) {
		c.close()
		return nil
	}

	now := h.clock.Now()
	h.publish(ctx, events.MustNew(d.ID, events.TypeUserConnected, events.UserConnectedPayload{
		UserID:  c.userID,
		TeamID:  team.ID,
		Members: h.members(ctx, d.ID),
	}, now))

	if d.Status == models.DraftStatusInProgress && h.keeper != nil {
		h.keeper.Ensure(d.ID)
	}

	log.Info().
		Str("connection_id", c.id).
		Str("draft_id", d.ID.String()).
		Str("team_id", team.ID.String()).
		Msg("client joined draft room")
	return nil
}

func (h *Hub) leave(ctx context.Context, c *Client, draftID uuid.UUID) error {
	if !c.inRoom(draftID) {
		return drafterr.InvalidState("not in this draft room")
	}
	h.depart(ctx, c, draftID)
	return nil
}

// disconnect removes a closed client from every room it joined.
func (h *Hub) disconnect(c *Client) {
	ctx := context.Background()
	for _, draftID := range c.joined() {
		h.depart(ctx, c, draftID)
	}
	h.forget(c)

	log.Info().
		Str("connection_id", c.id).
		Str("user_id", c.userID.String()).
		Msg("websocket connection closed")
}

func (h *Hub) depart(ctx context.Context, c *Client, draftID uuid.UUID) {
	if last := h.unregister(c, draftID); last && h.presence != nil {
		if err := h.presence.Leave(ctx, draftID, c.userID); err != nil {
			log.Warn().Err(err).Str("draft_id", draftID.String()).Msg("failed to clear presence")
		}
	}

	h.publish(ctx, events.MustNew(draftID, events.TypeUserDisconnected, events.UserDisconnectedPayload{
		UserID:  c.userID,
		Members: h.members(ctx, draftID),
	}, h.clock.Now()))
}

func (h *Hub) updateQueue(ctx context.Context, c *Client, m QueueUpdateMessage) error {
	d, err := h.drafts.GetDraft(ctx, m.DraftID)
	if err != nil {
		return store.Classify(err, "draft")
	}
	team, err := h.ownedTeam(ctx, c, d, m.TeamID)
	if err != nil {
		return err
	}
	if d.Status == models.DraftStatusCompleted {
		return drafterr.InvalidState("draft is completed")
	}
	if !d.Configuration.AllowQueuePicks {
		return drafterr.InvalidState("draft queues are disabled for this draft")
	}
	if depth := d.Configuration.MaxQueueDepth; depth > 0 && len(m.Queue) > depth {
		return drafterr.Validation(fmt.Sprintf("queue may hold at most %d players", depth))
	}
	seen := make(map[uuid.UUID]bool, len(m.Queue))
	for _, id := range m.Queue {
		if id == uuid.Nil {
			return drafterr.Validation("queue contains an empty player id")
		}
		if seen[id] {
			return drafterr.Validation("queue contains duplicate players")
		}
		seen[id] = true
	}

	queue := m.Queue
	if queue == nil {
		queue = []uuid.UUID{}
	}
	if err := h.teams.UpdateDraftQueue(ctx, team.ID, queue); err != nil {
		return store.Classify(err, "team")
	}

	h.publish(ctx, events.MustNew(d.ID, events.TypeQueueUpdated, events.QueueUpdatedPayload{
		TeamID: team.ID,
		Queue:  queue,
	}, h.clock.Now()))
	return nil
}

func (h *Hub) chat(ctx context.Context, c *Client, m ChatMessage) error {
	if !c.inRoom(m.DraftID) {
		return drafterr.InvalidState("join the draft room before chatting")
	}
	text := strings.TrimSpace(m.Message)
	if text == "" {
		return drafterr.Validation("message is required")
	}
	if utf8.RuneCountInString(text) > MaxChatLength {
		return drafterr.Validation(fmt.Sprintf("message must be at most %d characters", MaxChatLength))
	}

	now := h.clock.Now()
	h.publish(ctx, events.MustNew(m.DraftID, events.TypeChatMessage, events.ChatMessagePayload{
		UserID:    c.userID,
		Message:   text,
		Timestamp: now.UTC(),
	}, now))
	return nil
}

func (h *Hub) ownedTeam(ctx context.Context, c *Client, d *models.Draft, teamID uuid.UUID) (*models.FantasyTeam, error) {
	team, err := h.teams.GetTeam(ctx, teamID)
	if err != nil {
		return nil, store.Classify(err, "team")
	}
	if team.LeagueID != d.LeagueID {
		return nil, drafterr.Validation("team is not in this draft's league")
	}
	if team.OwnerID != c.userID {
		return nil, drafterr.Unauthorized("you do not own this team")
	}
	return team, nil
}

func (h *Hub) snapshot(ctx context.Context, d *models.Draft) (events.Envelope, error) {
	picks, err := h.ledger.ListPicks(ctx, d.ID)
	if err != nil {
		return events.Envelope{}, fmt.Errorf("failed to list picks: %w", err)
	}
	if picks == nil {
		picks = []models.DraftPick{}
	}
	teams, err := h.teams.ListTeamsByLeague(ctx, d.LeagueID)
	if err != nil {
		return events.Envelope{}, fmt.Errorf("failed to list teams: %w", err)
	}
	summaries := make([]events.TeamSummary, 0, len(teams))
	for _, t := range teams {
		summaries = append(summaries, events.TeamSummary{
			ID:            t.ID,
			Name:          t.Name,
			Abbreviation:  t.Abbreviation,
			OwnerID:       t.OwnerID,
			DraftPosition: t.DraftPosition,
		})
	}

	now := h.clock.Now()
	remaining := 0
	if d.Status == models.DraftStatusInProgress {
		remaining = d.OnTheClock.TimeRemaining(now)
	}
	return events.New(d.ID, events.TypeState, events.StatePayload{
		Draft:         d,
		Picks:         picks,
		Teams:         summaries,
		TimeRemaining: remaining,
		Members:       h.members(ctx, d.ID),
	}, now)
}

func (h *Hub) publish(ctx context.Context, env events.Envelope) {
	if err := h.broadcaster.Broadcast(ctx, env); err != nil {
		log.Error().
			Err(err).
			Str("draft_id", env.DraftID.String()).
			Str("event_type", string(env.Type)).
			Msg("failed to broadcast room event")
	}
}

// replyError sends an error event to c alone.
func (h *Hub) replyError(c *Client, draftID uuid.UUID, err error) {
	kind := drafterr.KindOf(err)
	message := "internal error"
	var de *drafterr.Error
	if errors.As(err, &de) && de.Message != "" {
		message = de.Message
	}
	if kind == drafterr.KindInternal || kind == drafterr.KindConflict {
		log.Error().Err(err).Str("connection_id", c.id).Str("draft_id", draftID.String()).Msg("room request failed")
	}

	env := events.MustNew(draftID, events.TypeError, events.ErrorPayload{
		Code:    string(kind),
		Message: message,
	}, h.clock.Now())
	if !c.enqueue(mustMarshal(env)) {
		c.close()
	}
}

func mustMarshal(env events.Envelope) []byte {
	data, err := json.Marshal(env)
	if err != nil {
		panic(err)
	}
	return data
}
