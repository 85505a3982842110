package store

import (
	"context"
	"errors"

	"legalbridge.app/bridge/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// DeliveryStore defines the contract for delivery audit data access.
type DeliveryStore interface {
	Create(ctx context.Context, delivery *model.Delivery) error
	GetByID(ctx context.Context, id int64) (*model.Delivery, error)
	ListByRecord(ctx context.Context, recordID string, limit int32) ([]model.Delivery, error)
}
