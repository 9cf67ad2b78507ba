package clock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lease lets one replica claim a slot's timeout when several run the same
// draft clock.
type Lease interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release gives up a key this replica holds so the next tick can retry.
	Release(ctx context.Context, key string) error
}

// releaseScript deletes the key only while it still names this owner.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLease claims keys with SET NX PX.
type RedisLease struct {
	client redis.UniversalClient
	owner  string
}

func NewRedisLease(client redis.UniversalClient, owner string) *RedisLease {
	return &RedisLease{client: client, owner: owner}
}

func (l *RedisLease) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, key, l.owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set lease %s: %w", key, err)
	}
	return ok, nil
}

func (l *RedisLease) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, l.client, []string{key}, l.owner).Err(); err != nil {
		return fmt.Errorf("failed to release lease %s: %w", key, err)
	}
	return nil
}

func leaseKey(draftID uuid.UUID, overallPick int) string {
	return fmt.Sprintf("draft:clock:%s:%d", draftID, overallPick)
}
