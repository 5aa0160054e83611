package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerly/internal/stats"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

// Header is the column layout of exported files. The importer reads it back.
var Header = []string{"date", "title", "type", "category", "amount"}

//go:generate mockgen -source=service.go -destination=lister_mock.go -package=export
type Lister interface {
	List(ctx context.Context, ownerID uuid.UUID, filter transaction.ListFilter) ([]*transaction.Transaction, error)
}

// Service renders an owner's transactions as downloadable files.
type Service struct {
	transactions Lister
}

func NewService(transactions Lister) *Service {
	return &Service{transactions: transactions}
}

// WriteCSV writes the owner's transactions matching filter, newest first.
func (s *Service) WriteCSV(ctx context.Context, ownerID uuid.UUID, filter transaction.ListFilter, w io.Writer) error {
	txs, err := s.transactions.List(ctx, ownerID, filter)
	if err != nil {
		return fmt.Errorf("listing transactions: %w", err)
	}

	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, tx := range txs {
		record := []string{
			transaction.CalendarDate(tx.Date),
			tx.Title,
			string(tx.Type),
			string(tx.Category),
			tx.Amount.StringFixed(2),
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing transaction %s: %w", tx.ID, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// WriteDigest writes a plain-text listing of the owner's transactions, one per line
// with expenses signed negative, followed by the totals.
func (s *Service) WriteDigest(ctx context.Context, ownerID uuid.UUID, filter transaction.ListFilter, w io.Writer) error {
	txs, err := s.transactions.List(ctx, ownerID, filter)
	if err != nil {
		return fmt.Errorf("listing transactions: %w", err)
	}

	_, err = io.WriteString(w, Digest(txs))

	return err
}

func Digest(txs []*transaction.Transaction) string {
	var sb strings.Builder

	for _, tx := range txs {
		sign := "-"
		if tx.Type == transaction.TypeIncome {
			sign = "+"
		}

		fmt.Fprintf(&sb, "* %s | %s | %s%s | %s\n",
			transaction.CalendarDate(tx.Date), tx.Title, sign, tx.Amount.StringFixed(2), tx.Category)
	}

	sum := stats.Summarize(txs)

	fmt.Fprintf(&sb, "\nTransactions: %d\n", sum.TransactionCount)
	fmt.Fprintf(&sb, "Income:       +%s\n", sum.TotalIncome.StringFixed(2))
	fmt.Fprintf(&sb, "Expense:      -%s\n", sum.TotalExpense.StringFixed(2))
	fmt.Fprintf(&sb, "Balance:      %s\n", sum.Balance.StringFixed(2))

	return sb.String()
}

// Filename is the suggested attachment name for an export made at now.
func Filename(now time.Time, ext string) string {
	return fmt.Sprintf("ledgerly_%s.%s", now.Format("20060102"), ext)
}
