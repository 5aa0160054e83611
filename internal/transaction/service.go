package transaction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxTitleLen = 200

// maxAmount is the first value NUMERIC(12,2) can no longer hold.
var maxAmount = decimal.New(1, 10)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	CreateTransaction(ctx context.Context, tx *Transaction) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	UpdateTransaction(ctx context.Context, tx *Transaction) error
	DeleteTransaction(ctx context.Context, id uuid.UUID) error

	ListTransactions(ctx context.Context, ownerID uuid.UUID, filter ListFilter) ([]*Transaction, error)

	BeginImport(ctx context.Context, ownerID uuid.UUID, minDate, maxDate time.Time) (ImportTx, error)
}

type ImportTx interface {
	FindDuplicates(ctx context.Context, txs []*Transaction) ([]*Transaction, error)
	CreateTransactions(ctx context.Context, txs []*Transaction) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo        Repository
	hideForeign bool
	now         func() time.Time
}

type Option func(*Service)

// WithHiddenForeign makes other users' transactions indistinguishable from missing ones.
func WithHiddenForeign(hide bool) Option {
	return func(s *Service) { s.hideForeign = hide }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// CreateParams carries a new transaction. Amount must be present; a zero Date means now.
type CreateParams struct {
	Title    string
	Amount   decimal.NullDecimal
	Category Category
	Type     Type
	Date     time.Time
}

// UpdateParams carries a partial update. Nil fields keep their stored value.
type UpdateParams struct {
	Title    *string
	Amount   *decimal.Decimal
	Category *Category
	Type     *Type
	Date     *time.Time
}

type ListFilter struct {
	Type      *Type
	Search    string
	StartDate *time.Time
	EndDate   *time.Time
}

func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, params CreateParams) (*Transaction, error) {
	tx, err := s.build(ownerID, params)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

// List returns the owner's transactions, newest first.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, filter ListFilter) ([]*Transaction, error) {
	if filter.Type != nil && !filter.Type.Valid() {
		return nil, invalid("type", "must be income or expense")
	}

	filter.Search = strings.TrimSpace(filter.Search)

	return s.repo.ListTransactions(ctx, ownerID, filter)
}

func (s *Service) Get(ctx context.Context, callerID, id uuid.UUID) (*Transaction, error) {
	return s.owned(ctx, callerID, id)
}

func (s *Service) Update(ctx context.Context, callerID, id uuid.UUID, params UpdateParams) (*Transaction, error) {
	tx, err := s.owned(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	if params.Title != nil {
		tx.Title = strings.TrimSpace(*params.Title)
	}

	if params.Amount != nil {
		tx.Amount = params.Amount.Round(2)
	}

	if params.Category != nil {
		tx.Category = *params.Category
	}

	if params.Type != nil {
		tx.Type = *params.Type
	}

	if params.Date != nil {
		tx.Date = *params.Date
	}

	if err := validate(tx); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

func (s *Service) Delete(ctx context.Context, callerID, id uuid.UUID) error {
	if _, err := s.owned(ctx, callerID, id); err != nil {
		return err
	}

	return s.repo.DeleteTransaction(ctx, id)
}

// owned loads a transaction and checks existence before ownership.
func (s *Service) owned(ctx context.Context, callerID, id uuid.UUID) (*Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := Authorize(tx, callerID); err != nil {
		if s.hideForeign {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return tx, nil
}

type ImportResult struct {
	Imported  []*Transaction
	New       []CreateParams
	Conflicts []Conflict
}

type Conflict struct {
	Incoming CreateParams
	Existing *Transaction
}

// ImportBatch stores params unless some of them already exist for the owner, in which
// case nothing is written and the split between new rows and conflicts is returned.
func (s *Service) ImportBatch(ctx context.Context, ownerID uuid.UUID, params []CreateParams) (*ImportResult, error) {
	if len(params) == 0 {
		return &ImportResult{}, nil
	}

	txs, err := s.buildAll(ownerID, params)
	if err != nil {
		return nil, err
	}

	minDate, maxDate := dateRange(txs)

	itx, err := s.repo.BeginImport(ctx, ownerID, minDate, maxDate)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	duplicates, err := itx.FindDuplicates(ctx, txs)
	if err != nil {
		return nil, fmt.Errorf("find duplicates: %w", err)
	}

	lookup := make(map[string]*Transaction, len(duplicates))
	for _, d := range duplicates {
		lookup[d.DuplicateKey()] = d
	}

	var (
		newParams []CreateParams
		fresh     []*Transaction
		conflicts []Conflict
	)

	for i, p := range params {
		p.Date = txs[i].Date

		if existing, found := lookup[txs[i].DuplicateKey()]; found {
			conflicts = append(conflicts, Conflict{Incoming: p, Existing: existing})
			continue
		}

		newParams = append(newParams, p)
		fresh = append(fresh, txs[i])
	}

	if len(conflicts) > 0 {
		return &ImportResult{New: newParams, Conflicts: conflicts}, nil
	}

	if err := itx.CreateTransactions(ctx, fresh); err != nil {
		return nil, fmt.Errorf("create transactions: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	return &ImportResult{Imported: fresh}, nil
}

// CreateBatch stores params atomically without duplicate detection.
func (s *Service) CreateBatch(ctx context.Context, ownerID uuid.UUID, params []CreateParams) ([]*Transaction, error) {
	if len(params) == 0 {
		return nil, nil
	}

	txs, err := s.buildAll(ownerID, params)
	if err != nil {
		return nil, err
	}

	minDate, maxDate := dateRange(txs)

	itx, err := s.repo.BeginImport(ctx, ownerID, minDate, maxDate)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	if err := itx.CreateTransactions(ctx, txs); err != nil {
		return nil, fmt.Errorf("create transactions: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	return txs, nil
}

func (s *Service) build(ownerID uuid.UUID, p CreateParams) (*Transaction, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	tx := p.transaction(ownerID)
	if tx.Date.IsZero() {
		tx.Date = s.now()
	}

	return tx, nil
}

// Validate checks p the way Create does, without touching storage.
func (p CreateParams) Validate() error {
	switch {
	case strings.TrimSpace(p.Title) == "":
		return invalid("title", "is required")
	case !p.Amount.Valid:
		return invalid("amount", "is required")
	case p.Category == "":
		return invalid("category", "is required")
	case p.Type == "":
		return invalid("type", "is required")
	}

	return validate(p.transaction(uuid.Nil))
}

func (p CreateParams) transaction(ownerID uuid.UUID) *Transaction {
	return &Transaction{
		OwnerID:  ownerID,
		Title:    strings.TrimSpace(p.Title),
		Amount:   p.Amount.Decimal.Round(2),
		Category: p.Category,
		Type:     p.Type,
		Date:     p.Date,
	}
}

func (s *Service) buildAll(ownerID uuid.UUID, params []CreateParams) ([]*Transaction, error) {
	txs := make([]*Transaction, len(params))

	for i, p := range params {
		tx, err := s.build(ownerID, p)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				return nil, &ValidationError{Field: fmt.Sprintf("row %d %s", i+1, verr.Field), Message: verr.Message}
			}

			return nil, err
		}

		txs[i] = tx
	}

	return txs, nil
}

// validate enforces the field rules and that the category belongs to the type.
func validate(tx *Transaction) error {
	if tx.Title == "" {
		return invalid("title", "is required")
	}

	if utf8.RuneCountInString(tx.Title) > maxTitleLen {
		return invalid("title", "must be at most %d characters", maxTitleLen)
	}

	if tx.Amount.IsNegative() {
		return invalid("amount", "must not be negative")
	}

	if tx.Amount.GreaterThanOrEqual(maxAmount) {
		return invalid("amount", "must be less than %s", maxAmount)
	}

	if !tx.Type.Valid() {
		return invalid("type", "must be income or expense")
	}

	if !tx.Category.Valid() {
		return invalid("category", "unknown category %q", tx.Category)
	}

	if tx.Category.Type() != tx.Type {
		return invalid("category", "%q is not a valid %s category", tx.Category, tx.Type)
	}

	return nil
}

func dateRange(txs []*Transaction) (time.Time, time.Time) {
	minDate := txs[0].Date
	maxDate := txs[0].Date

	for _, tx := range txs[1:] {
		if tx.Date.Before(minDate) {
			minDate = tx.Date
		}

		if tx.Date.After(maxDate) {
			maxDate = tx.Date
		}
	}

	return minDate, maxDate
}
