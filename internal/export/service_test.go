package export_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/ledgerly/internal/export"
	"github.com/MrJamesThe3rd/ledgerly/internal/importer"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

func sample() []*transaction.Transaction {
	return []*transaction.Transaction{
		{
			ID:       uuid.New(),
			Title:    "Groceries, weekly",
			Amount:   decimal.RequireFromString("84.1"),
			Category: transaction.CategoryFood,
			Type:     transaction.TypeExpense,
			Date:     time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:       uuid.New(),
			Title:    "Paycheck",
			Amount:   decimal.NewFromInt(2500),
			Category: transaction.CategorySalary,
			Type:     transaction.TypeIncome,
			Date:     time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestService_WriteCSV(t *testing.T) {
	owner := uuid.New()
	ctrl := gomock.NewController(t)
	lister := export.NewMockLister(ctrl)

	lister.EXPECT().List(gomock.Any(), owner, transaction.ListFilter{}).Return(sample(), nil)

	var buf bytes.Buffer
	require.NoError(t, export.NewService(lister).WriteCSV(context.Background(), owner, transaction.ListFilter{}, &buf))

	want := "date,title,type,category,amount\n" +
		"2024-05-03,\"Groceries, weekly\",expense,Food,84.10\n" +
		"2024-05-01,Paycheck,income,Salary,2500.00\n"
	assert.Equal(t, want, buf.String())
}

func TestService_WriteCSV_ReadableByImporter(t *testing.T) {
	owner := uuid.New()
	ctrl := gomock.NewController(t)
	lister := export.NewMockLister(ctrl)
	lister.EXPECT().List(gomock.Any(), owner, gomock.Any()).Return(sample(), nil)

	var buf bytes.Buffer
	require.NoError(t, export.NewService(lister).WriteCSV(context.Background(), owner, transaction.ListFilter{}, &buf))

	params, err := importer.NewService(nil).Parse(context.Background(), owner, &buf)
	require.NoError(t, err)
	require.Len(t, params, 2)

	for i, tx := range sample() {
		assert.Equal(t, tx.Title, params[i].Title)
		assert.Equal(t, tx.Type, params[i].Type)
		assert.Equal(t, tx.Category, params[i].Category)
		assert.True(t, tx.Amount.Equal(params[i].Amount.Decimal))
		assert.Equal(t, tx.Date, params[i].Date)
	}
}

func TestService_WriteCSV_ListError(t *testing.T) {
	ctrl := gomock.NewController(t)
	lister := export.NewMockLister(ctrl)
	lister.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	var buf bytes.Buffer
	err := export.NewService(lister).WriteCSV(context.Background(), uuid.New(), transaction.ListFilter{}, &buf)
	assert.Error(t, err)
	assert.Empty(t, buf.String())
}

func TestService_WriteDigest(t *testing.T) {
	ctrl := gomock.NewController(t)
	lister := export.NewMockLister(ctrl)
	lister.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).Return(sample(), nil)

	var sb strings.Builder
	require.NoError(t, export.NewService(lister).WriteDigest(context.Background(), uuid.New(), transaction.ListFilter{}, &sb))

	want := "* 2024-05-03 | Groceries, weekly | -84.10 | Food\n" +
		"* 2024-05-01 | Paycheck | +2500.00 | Salary\n" +
		"\n" +
		"Transactions: 2\n" +
		"Income:       +2500.00\n" +
		"Expense:      -84.10\n" +
		"Balance:      2415.90\n"
	assert.Equal(t, want, sb.String())
}

func TestDigest_Empty(t *testing.T) {
	got := export.Digest(nil)

	assert.Contains(t, got, "Transactions: 0")
	assert.Contains(t, got, "Balance:      0.00")
}

func TestService_WriteCSV_DatesInUTCCalendar(t *testing.T) {
	owner := uuid.New()
	ctrl := gomock.NewController(t)
	lister := export.NewMockLister(ctrl)

	// Stored days come back from the driver in the server's zone.
	westOfUTC := time.FixedZone("EDT", -4*60*60)
	txs := sample()
	for _, tx := range txs {
		tx.Date = tx.Date.In(westOfUTC)
	}

	lister.EXPECT().List(gomock.Any(), owner, gomock.Any()).Return(txs, nil)

	var buf bytes.Buffer
	require.NoError(t, export.NewService(lister).WriteCSV(context.Background(), owner, transaction.ListFilter{}, &buf))

	params, err := importer.NewService(nil).Parse(context.Background(), owner, &buf)
	require.NoError(t, err)
	require.Len(t, params, 2)
	assert.Equal(t, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), params[0].Date)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), params[1].Date)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "ledgerly_20240501.csv", export.Filename(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), "csv"))
}
