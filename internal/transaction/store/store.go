package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const selectColumns = `id, owner_id, title, amount, category, type, date, created_at, updated_at`

// scanTransaction expects the columns in selectColumns order.
func scanTransaction(s scanner) (*transaction.Transaction, error) {
	var (
		tx                transaction.Transaction
		category, txType string
	)

	if err := s.Scan(
		&tx.ID, &tx.OwnerID, &tx.Title, &tx.Amount, &category, &txType,
		&tx.Date, &tx.CreatedAt, &tx.UpdatedAt,
	); err != nil {
		return nil, err
	}

	tx.Category = transaction.Category(category)
	tx.Type = transaction.Type(txType)
	tx.Date = tx.Date.UTC()

	return &tx, nil
}

func scanAll(rows *sql.Rows) ([]*transaction.Transaction, error) {
	defer rows.Close()

	txs := []*transaction.Transaction{}

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}

	return txs, nil
}

const insertQuery = `
	INSERT INTO transactions (owner_id, title, amount, category, type, date, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	RETURNING id, created_at, updated_at
`

func insert(ctx context.Context, q querier, tx *transaction.Transaction) error {
	return q.QueryRowContext(ctx, insertQuery,
		tx.OwnerID,
		tx.Title,
		tx.Amount,
		tx.Category,
		tx.Type,
		tx.Date,
	).Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt)
}

func (s *Store) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	if err := insert(ctx, s.db, tx); err != nil {
		return fmt.Errorf("creating transaction: %w", err)
	}

	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `SELECT ` + selectColumns + ` FROM transactions WHERE id = $1`

	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return tx, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *Store) ListTransactions(
	ctx context.Context,
	ownerID uuid.UUID,
	filter transaction.ListFilter,
) ([]*transaction.Transaction, error) {
	query := `SELECT ` + selectColumns + ` FROM transactions WHERE owner_id = $1`

	args := []any{ownerID}

	if filter.Type != nil {
		args = append(args, *filter.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}

	if filter.Search != "" {
		args = append(args, likeEscaper.Replace(filter.Search))
		query += fmt.Sprintf(" AND title ILIKE '%%' || $%d || '%%'", len(args))
	}

	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}

	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}

	query += " ORDER BY date DESC, created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	return scanAll(rows)
}

func (s *Store) UpdateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	query := `
		UPDATE transactions
		SET title = $1, amount = $2, category = $3, type = $4, date = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		tx.Title,
		tx.Amount,
		tx.Category,
		tx.Type,
		tx.Date,
		tx.ID,
	).Scan(&tx.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return transaction.ErrNotFound
		}

		return fmt.Errorf("updating transaction: %w", err)
	}

	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting transaction: %w", err)
	}

	if n == 0 {
		return transaction.ErrNotFound
	}

	return nil
}

// importLockKey serializes concurrent imports of the same owner and date range.
func importLockKey(ownerID uuid.UUID, minDate, maxDate time.Time) int64 {
	h := fnv.New64a()
	h.Write(ownerID[:])
	h.Write([]byte(transaction.CalendarDate(minDate)))
	h.Write([]byte{0})
	h.Write([]byte(transaction.CalendarDate(maxDate)))

	return int64(h.Sum64())
}

type importTx struct {
	tx      *sql.Tx
	ownerID uuid.UUID
	minDate time.Time
	maxDate time.Time
}

func (s *Store) BeginImport(
	ctx context.Context,
	ownerID uuid.UUID,
	minDate, maxDate time.Time,
) (transaction.ImportTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning import tx: %w", err)
	}

	lockKey := importLockKey(ownerID, minDate, maxDate)
	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", lockKey); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring import lock: %w", err)
	}

	return &importTx{tx: dbTx, ownerID: ownerID, minDate: minDate, maxDate: maxDate}, nil
}

func (itx *importTx) Commit() error   { return itx.tx.Commit() }
func (itx *importTx) Rollback() error { return itx.tx.Rollback() }

// FindDuplicates returns the owner's stored transactions sharing a DuplicateKey with txs.
func (itx *importTx) FindDuplicates(
	ctx context.Context,
	txs []*transaction.Transaction,
) ([]*transaction.Transaction, error) {
	if len(txs) == 0 {
		return nil, nil
	}

	keySet := make(map[string]struct{}, len(txs))
	for _, tx := range txs {
		keySet[tx.DuplicateKey()] = struct{}{}
	}

	// Widen to whole days: keys compare calendar dates, not instants.
	start := transaction.StartOfDay(itx.minDate)
	end := transaction.StartOfDay(itx.maxDate).AddDate(0, 0, 1)

	query := `SELECT ` + selectColumns + `
		FROM transactions
		WHERE owner_id = $1 AND date >= $2 AND date < $3
		ORDER BY date ASC`

	rows, err := itx.tx.QueryContext(ctx, query, itx.ownerID, start, end)
	if err != nil {
		return nil, fmt.Errorf("finding duplicates: %w", err)
	}

	existing, err := scanAll(rows)
	if err != nil {
		return nil, err
	}

	var duplicates []*transaction.Transaction

	for _, tx := range existing {
		if _, found := keySet[tx.DuplicateKey()]; found {
			duplicates = append(duplicates, tx)
		}
	}

	return duplicates, nil
}

func (itx *importTx) CreateTransactions(ctx context.Context, txs []*transaction.Transaction) error {
	for _, tx := range txs {
		if err := insert(ctx, itx.tx, tx); err != nil {
			return fmt.Errorf("creating transaction: %w", err)
		}
	}

	return nil
}
