package room

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/draft/events"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Presence records room membership across replicas.
type Presence interface {
	Join(ctx context.Context, draftID uuid.UUID, m events.Member) error
	Leave(ctx context.Context, draftID, userID uuid.UUID) error
	Members(ctx context.Context, draftID uuid.UUID) ([]events.Member, error)
}

const presenceKeyPrefix = "draft:presence:"

// RedisPresence keeps one hash per room, user id -> team id. The hash
// expires after ttl without joins so crashed replicas do not leave ghosts
// forever.
type RedisPresence struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisPresence(client redis.UniversalClient, ttl time.Duration) *RedisPresence {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &RedisPresence{client: client, ttl: ttl}
}

func presenceKey(draftID uuid.UUID) string {
	return presenceKeyPrefix + draftID.String()
}

func (p *RedisPresence) Join(ctx context.Context, draftID uuid.UUID, m events.Member) error {
	key := presenceKey(draftID)
	pipe := p.client.Pipeline()
	pipe.HSet(ctx, key, m.UserID.String(), m.TeamID.String())
	pipe.Expire(ctx, key, p.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record presence: %w", err)
	}
	return nil
}

func (p *RedisPresence) Leave(ctx context.Context, draftID, userID uuid.UUID) error {
	if err := p.client.HDel(ctx, presenceKey(draftID), userID.String()).Err(); err != nil {
		return fmt.Errorf("failed to clear presence: %w", err)
	}
	return nil
}

func (p *RedisPresence) Members(ctx context.Context, draftID uuid.UUID) ([]events.Member, error) {
	fields, err := p.client.HGetAll(ctx, presenceKey(draftID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read presence: %w", err)
	}

	out := make([]events.Member, 0, len(fields))
	for user, team := range fields {
		userID, err := uuid.Parse(user)
		if err != nil {
			log.Warn().Str("field", user).Str("draft_id", draftID.String()).Msg("skipping malformed presence entry")
			continue
		}
		teamID, _ := uuid.Parse(team)
		out = append(out, events.Member{UserID: userID, TeamID: teamID})
	}
	sortMembers(out)
	return out, nil
}
