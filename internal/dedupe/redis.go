package dedupe

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "bridge:dedupe:"
	valueReserved = "reserved"
	valueDone     = "done"
)

// redisGuard backs the idempotency check with Redis SET NX so the reserve
// step stays atomic across independently scheduled service instances.
type redisGuard struct {
	client     *redis.Client
	reserveTTL time.Duration
	confirmTTL time.Duration
	logger     *slog.Logger
}

// NewRedisGuard builds a cross-process guard on the given client. reserveTTL
// should comfortably exceed the request deadline including outbound retries;
// confirmTTL is the duplicate-suppression window and must never drop below
// the plausible duplicate-delivery window.
func NewRedisGuard(client *redis.Client, reserveTTL, confirmTTL time.Duration, logger *slog.Logger) Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisGuard{
		client:     client,
		reserveTTL: reserveTTL,
		confirmTTL: confirmTTL,
		logger:     logger,
	}
}

func (g *redisGuard) CheckAndReserve(ctx context.Context, recordID, triggerLabel string) (Reservation, error) {
	k := keyPrefix + key(recordID, triggerLabel)

	ok, err := g.client.SetNX(ctx, k, valueReserved, g.reserveTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("reserving dedupe key: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyProcessed
	}

	g.logger.DebugContext(ctx, "dedupe key reserved", "record_id", recordID, "trigger_label", triggerLabel)
	return &redisReservation{guard: g, key: k}, nil
}

type redisReservation struct {
	guard *redisGuard
	key   string
}

func (r *redisReservation) Confirm(ctx context.Context) error {
	if err := r.guard.client.Set(ctx, r.key, valueDone, r.guard.confirmTTL).Err(); err != nil {
		return fmt.Errorf("confirming dedupe key: %w", err)
	}
	return nil
}

func (r *redisReservation) Release(ctx context.Context) error {
	if err := r.guard.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("releasing dedupe key: %w", err)
	}
	return nil
}
