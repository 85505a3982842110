package store

import (
	"context"

	"legalbridge.app/bridge/internal/model"
)

// noopDeliveryStore is used when no database is configured. Audit is
// best-effort, so a disabled store simply accepts and forgets.
type noopDeliveryStore struct{}

func NewNoopDeliveryStore() DeliveryStore {
	return noopDeliveryStore{}
}

func (noopDeliveryStore) Create(ctx context.Context, delivery *model.Delivery) error {
	return nil
}

func (noopDeliveryStore) GetByID(ctx context.Context, id int64) (*model.Delivery, error) {
	return nil, ErrNotFound
}

func (noopDeliveryStore) ListByRecord(ctx context.Context, recordID string, limit int32) ([]model.Delivery, error) {
	return nil, nil
}
