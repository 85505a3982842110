// Package dedupe guarantees at-most-one ticket per (record, trigger label)
// pair, including under concurrent duplicate deliveries. The guard follows a
// reserve-then-confirm discipline: a reservation is only promoted to a
// processed marker after the outbound call succeeds, so a failed attempt can
// be retried by a later duplicate delivery.
package dedupe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrAlreadyProcessed is returned by CheckAndReserve when the key is held or
// confirmed. A normal no-op outcome, not a fault.
var ErrAlreadyProcessed = errors.New("record already processed for trigger")

// Guard is the single atomic primitive the pipeline needs: check-and-reserve.
// If two requests race on the same key, exactly one receives a reservation.
type Guard interface {
	CheckAndReserve(ctx context.Context, recordID, triggerLabel string) (Reservation, error)
}

// Reservation is a held idempotency key. Exactly one of Confirm or Release
// must be called: Confirm after the ticket was definitively created, Release
// when the attempt failed or was abandoned.
type Reservation interface {
	Confirm(ctx context.Context) error
	Release(ctx context.Context) error
}

func key(recordID, triggerLabel string) string {
	return fmt.Sprintf("%s\x00%s", recordID, triggerLabel)
}

// memoryGuard is the single-process fallback used when no Redis URL is
// configured, and the default in tests. Reservations expire so a crashed
// request cannot wedge a key forever.
type memoryGuard struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	reserveTTL time.Duration
	confirmTTL time.Duration
	now        func() time.Time
}

type memoryEntry struct {
	expiresAt time.Time
	confirmed bool
}

// NewMemoryGuard builds an in-process guard. reserveTTL bounds how long an
// unconfirmed reservation blocks duplicates; confirmTTL bounds how long a
// confirmed marker suppresses re-triggers.
func NewMemoryGuard(reserveTTL, confirmTTL time.Duration) Guard {
	return newMemoryGuard(reserveTTL, confirmTTL, time.Now)
}

func newMemoryGuard(reserveTTL, confirmTTL time.Duration, now func() time.Time) *memoryGuard {
	return &memoryGuard{
		entries:    make(map[string]memoryEntry),
		reserveTTL: reserveTTL,
		confirmTTL: confirmTTL,
		now:        now,
	}
}

func (g *memoryGuard) CheckAndReserve(ctx context.Context, recordID, triggerLabel string) (Reservation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	k := key(recordID, triggerLabel)
	if entry, ok := g.entries[k]; ok && g.now().Before(entry.expiresAt) {
		return nil, ErrAlreadyProcessed
	}

	g.entries[k] = memoryEntry{expiresAt: g.now().Add(g.reserveTTL)}
	return &memoryReservation{guard: g, key: k}, nil
}

type memoryReservation struct {
	guard *memoryGuard
	key   string
}

func (r *memoryReservation) Confirm(ctx context.Context) error {
	r.guard.mu.Lock()
	defer r.guard.mu.Unlock()
	r.guard.entries[r.key] = memoryEntry{
		expiresAt: r.guard.now().Add(r.guard.confirmTTL),
		confirmed: true,
	}
	return nil
}

func (r *memoryReservation) Release(ctx context.Context) error {
	r.guard.mu.Lock()
	defer r.guard.mu.Unlock()
	delete(r.guard.entries, r.key)
	return nil
}
