// Package importer turns CSV exports, either ledgerly's own or a bank's, into
// transaction params ready for transaction.Service.ImportBatch.
package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	enc "github.com/MrJamesThe3rd/ledgerly/internal/encoding"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

var ErrNoHeader = errors.New("no recognizable header: expected date, title and amount (or debit/credit) columns")

// RowError reports a row that could not be turned into a transaction.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

//go:generate mockgen -source=importer.go -destination=suggester_mock.go -package=importer

// Suggester proposes a category for a title, or "" when it has none.
type Suggester interface {
	Suggest(ctx context.Context, ownerID uuid.UUID, title string) (transaction.Category, error)
}

type Service struct {
	suggester Suggester
}

func NewService(suggester Suggester) *Service {
	return &Service{suggester: suggester}
}

var dateLayouts = []string{
	time.DateOnly,
	"02-01-2006",
	"02/01/2006",
	"2006/01/02",
	time.RFC3339,
}

var delimiters = []rune{';', ','}

// Parse decodes r to UTF-8, finds the header row and converts every data row.
// Rows without a date, or with an unparseable date and no amount (bank footers,
// blank lines), are skipped.
func (s *Service) Parse(ctx context.Context, ownerID uuid.UUID, r io.Reader) ([]transaction.CreateParams, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	for _, delim := range delimiters {
		params, found, err := s.parseWith(ctx, ownerID, data, delim)
		if found {
			return params, err
		}
	}

	return nil, ErrNoHeader
}

// parseWith reports found=false when no header row exists under delim.
func (s *Service) parseWith(
	ctx context.Context,
	ownerID uuid.UUID,
	data []byte,
	delim rune,
) ([]transaction.CreateParams, bool, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		l      layout
		found  bool
		params []transaction.CreateParams
	)

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			if !found {
				return nil, false, nil
			}

			return nil, true, fmt.Errorf("read csv: %w", err)
		}

		if !found {
			l, found = detectLayout(row)
			continue
		}

		line, _ := reader.FieldPos(0)

		p, skip, err := s.parseRow(ctx, ownerID, l, row)
		if err != nil {
			return nil, true, &RowError{Line: line, Err: err}
		}

		if !skip {
			params = append(params, p)
		}
	}

	return params, found, nil
}

func (s *Service) parseRow(
	ctx context.Context,
	ownerID uuid.UUID,
	l layout,
	row []string,
) (transaction.CreateParams, bool, error) {
	var p transaction.CreateParams

	dateCell := l.cell(row, colDate)
	if dateCell == "" {
		return p, true, nil
	}

	date, err := parseDate(dateCell)
	if err != nil {
		if !l.hasAmount(row) {
			return p, true, nil
		}

		return p, false, err
	}

	title := l.cell(row, colTitle)
	if title == "" {
		return p, false, errors.New("missing title")
	}

	amount, signType, err := rowAmount(l, row)
	if err != nil {
		return p, false, err
	}

	txType, err := rowType(l, row)
	if err != nil {
		return p, false, err
	}

	category, err := rowCategory(l, row)
	if err != nil {
		return p, false, err
	}

	// Resolution order: explicit type, then the category's type, then the amount sign.
	if txType == "" && category != "" {
		txType = category.Type()
	}

	if txType == "" {
		txType = signType
	}

	if category == "" {
		category, err = s.suggest(ctx, ownerID, title, txType)
		if err != nil {
			return p, false, err
		}
	}

	p = transaction.CreateParams{
		Title:    title,
		Amount:   decimal.NewNullDecimal(amount),
		Category: category,
		Type:     txType,
		Date:     date,
	}

	if err := p.Validate(); err != nil {
		return p, false, err
	}

	return p, false, nil
}

func (s *Service) suggest(
	ctx context.Context,
	ownerID uuid.UUID,
	title string,
	txType transaction.Type,
) (transaction.Category, error) {
	fallback := transaction.CategoryOtherExpense
	if txType == transaction.TypeIncome {
		fallback = transaction.CategoryOtherIncome
	}

	if s.suggester == nil {
		return fallback, nil
	}

	suggested, err := s.suggester.Suggest(ctx, ownerID, title)
	if err != nil {
		return "", fmt.Errorf("suggest category: %w", err)
	}

	if suggested == "" || suggested.Type() != txType {
		return fallback, nil
	}

	return suggested, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// rowAmount returns the magnitude and the type implied by its sign or column.
func rowAmount(l layout, row []string) (decimal.Decimal, transaction.Type, error) {
	switch l.mode {
	case amountSplit:
		if s := l.cell(row, colDebit); s != "" {
			d, err := parseAmount(s)
			if err != nil {
				return decimal.Zero, "", fmt.Errorf("invalid debit %q", s)
			}

			if !d.IsZero() {
				return d.Abs(), transaction.TypeExpense, nil
			}
		}

		s := l.cell(row, colCredit)

		d, err := parseAmount(s)
		if err != nil {
			return decimal.Zero, "", fmt.Errorf("invalid credit %q", s)
		}

		return d.Abs(), transaction.TypeIncome, nil
	default:
		s := l.cell(row, colAmount)

		d, err := parseAmount(s)
		if err != nil {
			return decimal.Zero, "", fmt.Errorf("invalid amount %q", s)
		}

		if d.IsNegative() {
			return d.Abs(), transaction.TypeExpense, nil
		}

		return d, transaction.TypeIncome, nil
	}
}

func rowType(l layout, row []string) (transaction.Type, error) {
	s := strings.ToLower(l.cell(row, colType))
	if s == "" {
		return "", nil
	}

	t := transaction.Type(s)
	if !t.Valid() {
		return "", fmt.Errorf("invalid type %q", s)
	}

	return t, nil
}

func rowCategory(l layout, row []string) (transaction.Category, error) {
	s := l.cell(row, colCategory)
	if s == "" {
		return "", nil
	}

	c, ok := transaction.ParseCategory(s)
	if !ok {
		return "", fmt.Errorf("unknown category %q", s)
	}

	return c, nil
}
