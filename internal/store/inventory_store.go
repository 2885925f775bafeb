package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vbonduro/larder/internal/domain"
)

type InventoryStore struct {
	db *sql.DB
}

func NewInventoryStore(db *sql.DB) *InventoryStore {
	return &InventoryStore{db: db}
}

const inventoryColumns = `id, name, quantity, unit, storage, category, cost, acquired_on, expires_on, created_at`

func (s *InventoryStore) Create(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO inventory_items (name, quantity, unit, storage, category, cost, acquired_on, expires_on)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, item.Name, item.Quantity, item.Unit, string(item.Storage), string(item.Category), item.Cost,
		item.AcquiredOn.Format(time.DateOnly), nullDate(item.ExpiresOn))
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID returns nil, nil when no item has the given id.
func (s *InventoryStore) GetByID(ctx context.Context, id int64) (*domain.InventoryItem, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx, `
		SELECT `+inventoryColumns+` FROM inventory_items WHERE id = ?
	`, id))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return item, nil
}

func (s *InventoryStore) List(ctx context.Context) ([]domain.InventoryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+inventoryColumns+` FROM inventory_items ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var items []domain.InventoryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

func (s *InventoryStore) UpdateQuantity(ctx context.Context, id int64, quantity float64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE inventory_items SET quantity = ? WHERE id = ?
	`, quantity, id)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return requireOneRow(result, "item")
}

func (s *InventoryStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM inventory_items WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return requireOneRow(result, "item")
}

// Discard removes the item and records entry in the waste log in a single
// transaction. Either both happen or neither does.
func (s *InventoryStore) Discard(ctx context.Context, id int64, entry domain.WasteEntry) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin discard: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		DELETE FROM inventory_items WHERE id = ?
	`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete item: %w", err)
	}
	if err := requireOneRow(result, "item"); err != nil {
		return 0, err
	}

	wasteID, err := insertWaste(ctx, tx, entry)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit discard: %w", err)
	}
	return wasteID, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.InventoryItem, error) {
	var (
		item              domain.InventoryItem
		storage, category string
		acquiredOn        string
		expiresOn         sql.NullString
	)
	if err := row.Scan(&item.ID, &item.Name, &item.Quantity, &item.Unit, &storage, &category,
		&item.Cost, &acquiredOn, &expiresOn, &item.CreatedAt); err != nil {
		return nil, err
	}
	acquired, err := time.Parse(time.DateOnly, acquiredOn)
	if err != nil {
		return nil, fmt.Errorf("invalid acquired_on %q: %w", acquiredOn, err)
	}
	if expiresOn.Valid {
		expires, err := time.Parse(time.DateOnly, expiresOn.String)
		if err != nil {
			return nil, fmt.Errorf("invalid expires_on %q: %w", expiresOn.String, err)
		}
		item.ExpiresOn = &expires
	}
	item.Storage = domain.StorageLocation(storage)
	item.Category = domain.Category(category)
	item.AcquiredOn = acquired
	return &item, nil
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.DateOnly), Valid: true}
}

func requireOneRow(result sql.Result, what string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}
