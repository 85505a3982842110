package service_test

import (
	"context"
	"sync"

	"legalbridge.app/bridge/internal/dedupe"
	"legalbridge.app/bridge/internal/model"
)

// fakeCreator counts calls so tests can assert at-most-once semantics.
type fakeCreator struct {
	CreateTicketFn func(ctx context.Context, content *model.TicketContent) (*model.TicketResult, error)

	mu       sync.Mutex
	calls    int
	contents []*model.TicketContent
}

func (f *fakeCreator) CreateTicket(ctx context.Context, content *model.TicketContent) (*model.TicketResult, error) {
	f.mu.Lock()
	f.calls++
	f.contents = append(f.contents, content)
	f.mu.Unlock()
	return f.CreateTicketFn(ctx, content)
}

func (f *fakeCreator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSource struct {
	FetchPropertiesFn func(ctx context.Context, recordID string) (map[string]model.Property, error)
	calls             int
}

func (f *fakeSource) FetchProperties(ctx context.Context, recordID string) (map[string]model.Property, error) {
	f.calls++
	return f.FetchPropertiesFn(ctx, recordID)
}

type fakeGuard struct {
	CheckAndReserveFn func(ctx context.Context, recordID, triggerLabel string) (dedupe.Reservation, error)
}

func (f *fakeGuard) CheckAndReserve(ctx context.Context, recordID, triggerLabel string) (dedupe.Reservation, error) {
	return f.CheckAndReserveFn(ctx, recordID, triggerLabel)
}

// recordingStore keeps every audit row written during a test.
type recordingStore struct {
	mu         sync.Mutex
	deliveries []model.Delivery
	createErr  error
}

func (s *recordingStore) Create(ctx context.Context, delivery *model.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.deliveries = append(s.deliveries, *delivery)
	return nil
}

func (s *recordingStore) GetByID(ctx context.Context, id int64) (*model.Delivery, error) {
	return nil, nil
}

func (s *recordingStore) ListByRecord(ctx context.Context, recordID string, limit int32) ([]model.Delivery, error) {
	return nil, nil
}

func (s *recordingStore) outcomes() []model.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Outcome, 0, len(s.deliveries))
	for _, d := range s.deliveries {
		out = append(out, d.Outcome)
	}
	return out
}
