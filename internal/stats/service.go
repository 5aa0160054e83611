package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

//go:generate mockgen -source=service.go -destination=lister_mock.go -package=stats
type Lister interface {
	List(ctx context.Context, ownerID uuid.UUID, filter transaction.ListFilter) ([]*transaction.Transaction, error)
}

type Service struct {
	txs Lister
	now func() time.Time
}

type Option func(*Service)

// WithClock replaces the time source used to anchor trends.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(txs Lister, opts ...Option) *Service {
	s := &Service{txs: txs, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Summary aggregates every transaction the owner has.
func (s *Service) Summary(ctx context.Context, ownerID uuid.UUID) (Summary, error) {
	txs, err := s.txs.List(ctx, ownerID, transaction.ListFilter{})
	if err != nil {
		return Summary{}, fmt.Errorf("loading transactions: %w", err)
	}

	return Summarize(txs), nil
}

// Trend buckets the owner's last months calendar months.
func (s *Service) Trend(ctx context.Context, ownerID uuid.UUID, months int) ([]MonthPoint, error) {
	if months < 1 || months > MaxTrendMonths {
		return nil, &transaction.ValidationError{
			Field:   "months",
			Message: fmt.Sprintf("must be between 1 and %d", MaxTrendMonths),
		}
	}

	now := s.now()
	start := TrendStart(now, months)

	txs, err := s.txs.List(ctx, ownerID, transaction.ListFilter{StartDate: &start})
	if err != nil {
		return nil, fmt.Errorf("loading transactions: %w", err)
	}

	return Trend(txs, now, months), nil
}
