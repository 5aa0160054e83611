package transaction

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

// ParseDate accepts a calendar date ("2024-05-01") or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, &transaction.ValidationError{Field: "date", Message: fmt.Sprintf("invalid date %q", s)}
	}

	return t, nil
}

// categoryOf canonicalizes a known label's case; unknown labels pass through for validation to reject.
func categoryOf(s string) transaction.Category {
	if c, ok := transaction.ParseCategory(s); ok {
		return c
	}

	return transaction.Category(strings.TrimSpace(s))
}

type createTransactionRequest struct {
	Title    string              `json:"title"`
	Amount   decimal.NullDecimal `json:"amount"`
	Category string              `json:"category"`
	Type     string              `json:"type"`
	Date     string              `json:"date"`
}

func (req createTransactionRequest) params() (transaction.CreateParams, error) {
	p := transaction.CreateParams{
		Title:    req.Title,
		Amount:   req.Amount,
		Category: categoryOf(req.Category),
		Type:     transaction.Type(strings.ToLower(strings.TrimSpace(req.Type))),
	}

	if req.Date != "" {
		d, err := ParseDate(req.Date)
		if err != nil {
			return p, err
		}

		p.Date = d
	}

	return p, nil
}

// updateTransactionRequest distinguishes absent fields (nil) from zero values.
type updateTransactionRequest struct {
	Title    *string          `json:"title"`
	Amount   *decimal.Decimal `json:"amount"`
	Category *string          `json:"category"`
	Type     *string          `json:"type"`
	Date     *string          `json:"date"`
}

func (req updateTransactionRequest) params() (transaction.UpdateParams, error) {
	p := transaction.UpdateParams{
		Title:  req.Title,
		Amount: req.Amount,
	}

	if req.Category != nil {
		p.Category = new(categoryOf(*req.Category))
	}

	if req.Type != nil {
		p.Type = new(transaction.Type(strings.ToLower(strings.TrimSpace(*req.Type))))
	}

	if req.Date != nil {
		d, err := ParseDate(*req.Date)
		if err != nil {
			return p, err
		}

		p.Date = &d
	}

	return p, nil
}

// ListFilter reads type, q, start_date and end_date from the query string.
func ListFilter(q url.Values) (transaction.ListFilter, error) {
	filter := transaction.ListFilter{Search: q.Get("q")}

	if s := q.Get("type"); s != "" {
		filter.Type = new(transaction.Type(strings.ToLower(s)))
	}

	if s := q.Get("start_date"); s != "" {
		t, err := ParseDate(s)
		if err != nil {
			return filter, err
		}

		filter.StartDate = &t
	}

	if s := q.Get("end_date"); s != "" {
		t, err := ParseDate(s)
		if err != nil {
			return filter, err
		}

		// A bare date includes the whole day.
		if len(s) == len(time.DateOnly) {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}

		filter.EndDate = &t
	}

	return filter, nil
}
