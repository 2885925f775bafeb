package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/vbonduro/larder/internal/domain"
)

// ObservationStore holds the labelled rows the expiry model is trained on.
type ObservationStore struct {
	db *sql.DB
}

func NewObservationStore(db *sql.DB) *ObservationStore {
	return &ObservationStore{db: db}
}

func (s *ObservationStore) Create(ctx context.Context, o domain.ExpiryObservation) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO expiry_observations (category, days_since, storage, status) VALUES (?, ?, ?, ?)
	`, string(o.Category), o.DaysSince, string(o.Storage), string(o.Status))
	if err != nil {
		return 0, fmt.Errorf("failed to create observation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

func (s *ObservationStore) List(ctx context.Context) ([]domain.ExpiryObservation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, days_since, storage, status FROM expiry_observations ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list observations: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var out []domain.ExpiryObservation
	for rows.Next() {
		var (
			o                         domain.ExpiryObservation
			category, storage, status string
		)
		if err := rows.Scan(&o.ID, &category, &o.DaysSince, &storage, &status); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		o.Category = domain.Category(category)
		o.Storage = domain.StorageLocation(storage)
		o.Status = domain.Freshness(status)
		out = append(out, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating observations: %w", err)
	}

	return out, nil
}
