package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"legalbridge.app/bridge/internal/model"
)

type deliveryStore struct {
	pool *pgxpool.Pool
}

// NewDeliveryStore returns a Postgres-backed audit store.
func NewDeliveryStore(pool *pgxpool.Pool) DeliveryStore {
	return &deliveryStore{pool: pool}
}

func (s *deliveryStore) Create(ctx context.Context, delivery *model.Delivery) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO deliveries (id, record_id, outcome, ticket_key, error)
		 VALUES ($1, $2, $3, $4, $5)`,
		delivery.ID, delivery.RecordID, string(delivery.Outcome),
		delivery.TicketKey, delivery.Error,
	)
	return err
}

func (s *deliveryStore) GetByID(ctx context.Context, id int64) (*model.Delivery, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, record_id, outcome, ticket_key, error, created_at
		 FROM deliveries WHERE id = $1`, id)

	delivery, err := scanDelivery(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return delivery, nil
}

func (s *deliveryStore) ListByRecord(ctx context.Context, recordID string, limit int32) ([]model.Delivery, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, record_id, outcome, ticket_key, error, created_at
		 FROM deliveries WHERE record_id = $1
		 ORDER BY created_at DESC LIMIT $2`, recordID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deliveries []model.Delivery
	for rows.Next() {
		delivery, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, *delivery)
	}
	return deliveries, rows.Err()
}

func scanDelivery(row pgx.Row) (*model.Delivery, error) {
	var delivery model.Delivery
	var outcome string
	if err := row.Scan(&delivery.ID, &delivery.RecordID, &outcome,
		&delivery.TicketKey, &delivery.Error, &delivery.CreatedAt); err != nil {
		return nil, err
	}
	delivery.Outcome = model.Outcome(outcome)
	return &delivery, nil
}
