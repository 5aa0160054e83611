package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerly/internal/categorize"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindCategory(ctx context.Context, ownerID uuid.UUID, title string) (transaction.Category, error) {
	query := `
		SELECT category
		FROM category_rules
		WHERE owner_id = $1 AND STRPOS(LOWER($2), LOWER(pattern)) > 0
		ORDER BY LENGTH(pattern) DESC, created_at DESC
		LIMIT 1
	`

	var category string

	err := s.db.QueryRowContext(ctx, query, ownerID, title).Scan(&category)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}

		return "", fmt.Errorf("finding category: %w", err)
	}

	return transaction.Category(category), nil
}

func (s *Store) CreateRule(ctx context.Context, rule *categorize.Rule) error {
	query := `
		INSERT INTO category_rules (owner_id, pattern, category, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query, rule.OwnerID, rule.Pattern, rule.Category).
		Scan(&rule.ID, &rule.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating rule: %w", err)
	}

	return nil
}
