package categorize

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

type Rule struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Pattern   string
	Category  transaction.Category
	CreatedAt time.Time
}

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=categorize
type Repository interface {
	FindCategory(ctx context.Context, ownerID uuid.UUID, title string) (transaction.Category, error)
	CreateRule(ctx context.Context, rule *Rule) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Suggest returns the category of the owner's longest rule whose pattern occurs in title.
// Returns empty category if no rule matches.
func (s *Service) Suggest(ctx context.Context, ownerID uuid.UUID, title string) (transaction.Category, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", nil
	}

	return s.repo.FindCategory(ctx, ownerID, title)
}

// Learn remembers that titles containing pattern belong to category.
func (s *Service) Learn(ctx context.Context, ownerID uuid.UUID, pattern string, category transaction.Category) (*Rule, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, &transaction.ValidationError{Field: "pattern", Message: "is required"}
	}

	parsed, ok := transaction.ParseCategory(string(category))
	if !ok {
		return nil, &transaction.ValidationError{Field: "category", Message: "unknown category"}
	}

	rule := &Rule{OwnerID: ownerID, Pattern: pattern, Category: parsed}
	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return nil, err
	}

	return rule, nil
}
