package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Print lock key pattern:
// - printlock:{event_id}:{guest_id} - 20s TTL, holds the acquiring station/tab id

// DefaultPrintLockTTL is the staleness window for a single-guest print lock.
// An unreleased lock simply expires, making the guest printable again.
const DefaultPrintLockTTL = 20 * time.Second

// PrintLock prevents two admin tabs from double-printing one guest's badge.
// It is a soft lock: expiry stands in for explicit abandonment handling.
type PrintLock struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewPrintLock(client *goredis.Client, ttl time.Duration) *PrintLock {
	if ttl <= 0 {
		ttl = DefaultPrintLockTTL
	}
	return &PrintLock{client: client, ttl: ttl}
}

func printLockKey(eventID, guestID uuid.UUID) string {
	return fmt.Sprintf("printlock:%s:%s", eventID, guestID)
}

// Acquire returns true when the caller now holds the lock. A redis error
// counts as "did not acquire".
func (l *PrintLock) Acquire(ctx context.Context, eventID, guestID uuid.UUID, holder string) (bool, error) {
	ok, err := l.client.SetNX(ctx, printLockKey(eventID, guestID), holder, l.ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// Release deletes the lock only when still held by holder.
func (l *PrintLock) Release(ctx context.Context, eventID, guestID uuid.UUID, holder string) error {
	return releaseScript.Run(ctx, l.client, []string{printLockKey(eventID, guestID)}, holder).Err()
}
