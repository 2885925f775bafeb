package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/vbonduro/larder/internal/domain"
)

// WasteStore records discarded inventory.
type WasteStore struct {
	db *sql.DB
}

func NewWasteStore(db *sql.DB) *WasteStore {
	return &WasteStore{db: db}
}

func (s *WasteStore) Create(ctx context.Context, e domain.WasteEntry) (int64, error) {
	return insertWaste(ctx, s.db, e)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertWaste(ctx context.Context, db execer, e domain.WasteEntry) (int64, error) {
	result, err := db.ExecContext(ctx, `
		INSERT INTO waste_entries (name, quantity, unit, reason, cost, discarded_on) VALUES (?, ?, ?, ?, ?, ?)
	`, e.Name, e.Quantity, e.Unit, e.Reason, e.Cost, e.DiscardedOn.Format(time.DateOnly))
	if err != nil {
		return 0, fmt.Errorf("failed to create waste entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

// List returns entries newest first.
func (s *WasteStore) List(ctx context.Context) ([]domain.WasteEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, quantity, unit, reason, cost, discarded_on FROM waste_entries
		ORDER BY discarded_on DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list waste entries: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var out []domain.WasteEntry
	for rows.Next() {
		var (
			e  domain.WasteEntry
			on string
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Quantity, &e.Unit, &e.Reason, &e.Cost, &on); err != nil {
			return nil, fmt.Errorf("failed to scan waste entry: %w", err)
		}
		if e.DiscardedOn, err = time.Parse(time.DateOnly, on); err != nil {
			return nil, fmt.Errorf("invalid discarded_on %q: %w", on, err)
		}
		out = append(out, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating waste entries: %w", err)
	}

	return out, nil
}

func (s *WasteStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM waste_entries WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete waste entry: %w", err)
	}
	return requireOneRow(result, "waste entry")
}
