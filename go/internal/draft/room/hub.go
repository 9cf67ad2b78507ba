// Package room keeps the live membership of each draft room and fans the
// draft's event stream out to connected websocket clients.
package room

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/bbdraft/go/internal/auth"
	"github.com/mcdev12/bbdraft/go/internal/draft/events"
	"github.com/mcdev12/bbdraft/go/internal/draft/pick"
	"github.com/mcdev12/bbdraft/go/internal/draft/store"
	"github.com/mcdev12/bbdraft/go/internal/models"
	"github.com/rs/zerolog/log"
)

// PickService makes manual picks on behalf of room members.
type PickService interface {
	ApplyPick(ctx context.Context, req pick.PickRequest) (*models.DraftPick, error)
}

// ClockKeeper makes sure a running draft has a clock task.
type ClockKeeper interface {
	Ensure(draftID uuid.UUID)
}

type Deps struct {
	Drafts store.DraftStore
	Ledger store.PickLedger
	Teams  store.TeamStore
	Picks  PickService
	// Broadcaster defaults to delivering through this hub only.
	Broadcaster Broadcaster
	// Optional collaborators.
	Keeper   ClockKeeper
	Presence Presence
	Clock    clockwork.Clock
	Config   Config
}

// Hub tracks which clients sit in which draft rooms.
type Hub struct {
	drafts      store.DraftStore
	ledger      store.PickLedger
	teams       store.TeamStore
	picks       PickService
	broadcaster Broadcaster
	keeper      ClockKeeper
	presence    Presence
	clock       clockwork.Clock
	config      Config
	upgrader    websocket.Upgrader

	mu      sync.RWMutex
	rooms   map[uuid.UUID]map[*Client]struct{}
	clients map[*Client]struct{}
}

func NewHub(deps Deps) *Hub {
	cfg := deps.Config.withDefaults()
	h := &Hub{
		drafts:      deps.Drafts,
		ledger:      deps.Ledger,
		teams:       deps.Teams,
		picks:       deps.Picks,
		broadcaster: deps.Broadcaster,
		keeper:      deps.Keeper,
		presence:    deps.Presence,
		clock:       deps.Clock,
		config:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     cfg.checkOrigin,
		},
		rooms:   make(map[uuid.UUID]map[*Client]struct{}),
		clients: make(map[*Client]struct{}),
	}
	if h.clock == nil {
		h.clock = clockwork.NewRealClock()
	}
	if h.broadcaster == nil {
		h.broadcaster = NewLocalBroadcaster(h)
	}
	return h
}

// Broadcaster returns the fan-out the hub publishes room events through.
func (h *Hub) Broadcaster() Broadcaster {
	return h.broadcaster
}

// ServeWS upgrades an authenticated request into a room client. The client
// joins rooms by sending join messages.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to upgrade websocket connection")
		return
	}

	c := newClient(h, conn, userID)
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go c.writePump()
	go c.readPump()

	log.Info().
		Str("connection_id", c.id).
		Str("user_id", userID.String()).
		Msg("websocket connection established")
}

// RegisterRoutes mounts the room endpoint. The handler must run behind
// authentication middleware.
func (h *Hub) RegisterRoutes(mux *http.ServeMux, wrap func(http.Handler) http.Handler) {
	mux.Handle("/ws/draft", wrap(http.HandlerFunc(h.ServeWS)))
}

// Deliver writes env to every local client in its draft room. Clients that
// cannot keep up are disconnected.
func (h *Hub) Deliver(env events.Envelope) {
	h.mu.RLock()
	members := h.rooms[env.DraftID]
	targets := make([]*Client, 0, len(members))
	for c := range members {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	data, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(env.Type)).Msg("failed to marshal event for delivery")
		return
	}

	for _, c := range targets {
		if !c.enqueue(data) {
			log.Warn().
				Str("connection_id", c.id).
				Str("user_id", c.userID.String()).
				Msg("connection send buffer full, closing connection")
			c.close()
		}
	}

	log.Debug().
		Str("event_type", string(env.Type)).
		Str("draft_id", env.DraftID.String()).
		Int("connections", len(targets)).
		Msg("event delivered")
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	all := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		all = append(all, c)
	}
	h.mu.RUnlock()

	for _, c := range all {
		c.close()
	}
}

// Connections returns the number of open connections per draft room.
func (h *Hub) Connections() map[uuid.UUID]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[uuid.UUID]int, len(h.rooms))
	for id, members := range h.rooms {
		out[id] = len(members)
	}
	return out
}

func (h *Hub) register(c *Client, draftID, teamID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[draftID] == nil {
		h.rooms[draftID] = make(map[*Client]struct{})
	}
	h.rooms[draftID][c] = struct{}{}
	c.setRoom(draftID, teamID)

	log.Debug().
		Str("connection_id", c.id).
		Str("draft_id", draftID.String()).
		Int("room_size", len(h.rooms[draftID])).
		Msg("client joined room")
}

// unregister removes c from the room and reports whether the user has no
// other connection left in it.
func (h *Hub) unregister(c *Client, draftID uuid.UUID) (lastForUser bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.clearRoom(draftID)
	members, ok := h.rooms[draftID]
	if !ok {
		return true
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, draftID)
		return true
	}
	for other := range members {
		if other.userID == c.userID {
			return false
		}
	}
	return true
}

func (h *Hub) forget(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// members lists who is in a room, from presence when configured and from
// local connections otherwise.
func (h *Hub) members(ctx context.Context, draftID uuid.UUID) []events.Member {
	if h.presence != nil {
		members, err := h.presence.Members(ctx, draftID)
		if err == nil {
			return members
		}
		log.Warn().Err(err).Str("draft_id", draftID.String()).Msg("failed to read room presence, using local members")
	}

	h.mu.RLock()
	seen := make(map[uuid.UUID]events.Member)
	for c := range h.rooms[draftID] {
		seen[c.userID] = events.Member{UserID: c.userID, TeamID: c.teamIn(draftID)}
	}
	h.mu.RUnlock()

	out := make([]events.Member, 0, len(seen))
	for _, m := range seen {
		out = append(out, m)
	}
	sortMembers(out)
	return out
}

func sortMembers(ms []events.Member) {
	sort.Slice(ms, func(i, j int) bool {
		return ms[i].UserID.String() < ms[j].UserID.String()
	})
}
