package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vbonduro/larder/internal/domain"
)

// RecipeStore persists recipes with their raw ingredient text. Parsing the
// text is left to the caller.
type RecipeStore struct {
	db *sql.DB
}

func NewRecipeStore(db *sql.DB) *RecipeStore {
	return &RecipeStore{db: db}
}

func (s *RecipeStore) Create(ctx context.Context, name, ingredientsText string) (*domain.RecipeRecord, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO recipes (name, ingredients) VALUES (?, ?)
	`, name, ingredientsText)
	if err != nil {
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.getByID(ctx, id)
}

func (s *RecipeStore) getByID(ctx context.Context, id int64) (*domain.RecipeRecord, error) {
	r := &domain.RecipeRecord{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, ingredients, created_at FROM recipes WHERE id = ?
	`, id).Scan(&r.ID, &r.Name, &r.IngredientsText, &r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return r, nil
}

// GetByName matches case-insensitively. A missing recipe yields nil, nil.
func (s *RecipeStore) GetByName(ctx context.Context, name string) (*domain.RecipeRecord, error) {
	r := &domain.RecipeRecord{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, ingredients, created_at FROM recipes WHERE name = ?
	`, name).Scan(&r.ID, &r.Name, &r.IngredientsText, &r.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	return r, nil
}

// List returns the catalog in insertion order.
func (s *RecipeStore) List(ctx context.Context) ([]domain.RecipeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, ingredients, created_at FROM recipes ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var recipes []domain.RecipeRecord
	for rows.Next() {
		var r domain.RecipeRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.IngredientsText, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipes: %w", err)
	}

	return recipes, nil
}

func (s *RecipeStore) Delete(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM recipes WHERE name = ?
	`, name)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("recipe %q: %w", name, domain.ErrNotFound)
	}

	return nil
}
