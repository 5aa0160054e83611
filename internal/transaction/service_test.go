package transaction_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

var fixedNow = time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, opts ...transaction.Option) (*transaction.Service, *transaction.MockRepository) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := transaction.NewMockRepository(ctrl)

	opts = append([]transaction.Option{transaction.WithClock(func() time.Time { return fixedNow })}, opts...)

	return transaction.NewService(repo, opts...), repo
}

func amount(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestService_Create(t *testing.T) {
	owner := uuid.New()

	type testCase struct {
		name      string
		params    transaction.CreateParams
		setupMock func(m *transaction.MockRepository)
		wantField string
		wantErr   bool
		check     func(t *testing.T, tx *transaction.Transaction)
	}

	tests := []testCase{
		{
			name: "Success",
			params: transaction.CreateParams{
				Title:    "  Groceries ",
				Amount:   amount("42.129"),
				Category: transaction.CategoryFood,
				Type:     transaction.TypeExpense,
				Date:     time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().
					CreateTransaction(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
						tx.ID = uuid.New()
						tx.CreatedAt = fixedNow
						return nil
					})
			},
			check: func(t *testing.T, tx *transaction.Transaction) {
				assert.Equal(t, owner, tx.OwnerID)
				assert.Equal(t, "Groceries", tx.Title)
				assert.Equal(t, "42.13", tx.Amount.StringFixed(2))
				assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), tx.Date)
				assert.NotEqual(t, uuid.Nil, tx.ID)
			},
		},
		{
			name: "DefaultsDateToNow",
			params: transaction.CreateParams{
				Title:    "Paycheck",
				Amount:   amount("1000"),
				Category: transaction.CategorySalary,
				Type:     transaction.TypeIncome,
			},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(nil)
			},
			check: func(t *testing.T, tx *transaction.Transaction) {
				assert.Equal(t, fixedNow, tx.Date)
			},
		},
		{
			name: "ZeroAmountIsPresent",
			params: transaction.CreateParams{
				Title:    "Free sample",
				Amount:   amount("0"),
				Category: transaction.CategoryFood,
				Type:     transaction.TypeExpense,
			},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(nil)
			},
			check: func(t *testing.T, tx *transaction.Transaction) {
				assert.True(t, tx.Amount.IsZero())
			},
		},
		{
			name:      "MissingTitle",
			params:    transaction.CreateParams{Title: "  ", Amount: amount("1"), Category: transaction.CategoryFood, Type: transaction.TypeExpense},
			wantField: "title",
		},
		{
			name:      "MissingAmount",
			params:    transaction.CreateParams{Title: "x", Category: transaction.CategoryFood, Type: transaction.TypeExpense},
			wantField: "amount",
		},
		{
			name:      "MissingCategory",
			params:    transaction.CreateParams{Title: "x", Amount: amount("1"), Type: transaction.TypeExpense},
			wantField: "category",
		},
		{
			name:      "MissingType",
			params:    transaction.CreateParams{Title: "x", Amount: amount("1"), Category: transaction.CategoryFood},
			wantField: "type",
		},
		{
			name:      "NegativeAmount",
			params:    transaction.CreateParams{Title: "x", Amount: amount("-5"), Category: transaction.CategoryFood, Type: transaction.TypeExpense},
			wantField: "amount",
		},
		{
			name:      "CategoryOfOtherType",
			params:    transaction.CreateParams{Title: "x", Amount: amount("5"), Category: transaction.CategorySalary, Type: transaction.TypeExpense},
			wantField: "category",
		},
		{
			name:      "UnknownCategory",
			params:    transaction.CreateParams{Title: "x", Amount: amount("5"), Category: "Lottery", Type: transaction.TypeIncome},
			wantField: "category",
		},
		{
			name:      "UnknownType",
			params:    transaction.CreateParams{Title: "x", Amount: amount("5"), Category: transaction.CategoryFood, Type: "transfer"},
			wantField: "type",
		},
		{
			name: "RepoError",
			params: transaction.CreateParams{
				Title: "x", Amount: amount("5"), Category: transaction.CategoryFood, Type: transaction.TypeExpense,
			},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(errors.New("db error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newService(t)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			got, err := svc.Create(context.Background(), owner, tt.params)

			if tt.wantField != "" {
				var verr *transaction.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantField, verr.Field)
				assert.Nil(t, got)

				return
			}

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestService_List(t *testing.T) {
	owner := uuid.New()

	t.Run("PassesOwnerAndTrimmedFilter", func(t *testing.T) {
		svc, repo := newService(t)
		expense := transaction.TypeExpense

		repo.EXPECT().
			ListTransactions(gomock.Any(), owner, transaction.ListFilter{Type: &expense, Search: "coffee"}).
			Return([]*transaction.Transaction{{ID: uuid.New()}, {ID: uuid.New()}}, nil)

		got, err := svc.List(context.Background(), owner, transaction.ListFilter{Type: &expense, Search: " coffee "})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("RejectsUnknownType", func(t *testing.T) {
		svc, _ := newService(t)
		bogus := transaction.Type("transfer")

		_, err := svc.List(context.Background(), owner, transaction.ListFilter{Type: &bogus})

		var verr *transaction.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("Error", func(t *testing.T) {
		svc, repo := newService(t)
		repo.EXPECT().ListTransactions(gomock.Any(), owner, transaction.ListFilter{}).Return(nil, errors.New("list error"))

		got, err := svc.List(context.Background(), owner, transaction.ListFilter{})
		assert.Error(t, err)
		assert.Nil(t, got)
	})
}

func TestService_Ownership(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()
	id := uuid.New()

	stored := func() *transaction.Transaction {
		return &transaction.Transaction{
			ID:       id,
			OwnerID:  owner,
			Title:    "Rent",
			Amount:   decimal.NewFromInt(900),
			Category: transaction.CategoryRent,
			Type:     transaction.TypeExpense,
			Date:     fixedNow,
		}
	}

	operations := map[string]func(svc *transaction.Service, caller uuid.UUID) error{
		"Get": func(svc *transaction.Service, caller uuid.UUID) error {
			_, err := svc.Get(context.Background(), caller, id)
			return err
		},
		"Update": func(svc *transaction.Service, caller uuid.UUID) error {
			_, err := svc.Update(context.Background(), caller, id, transaction.UpdateParams{Title: new("x")})
			return err
		},
		"Delete": func(svc *transaction.Service, caller uuid.UUID) error {
			return svc.Delete(context.Background(), caller, id)
		},
	}

	for name, op := range operations {
		t.Run(name+"/Missing", func(t *testing.T) {
			svc, repo := newService(t)
			repo.EXPECT().GetTransaction(gomock.Any(), id).Return(nil, transaction.ErrNotFound)

			assert.ErrorIs(t, op(svc, owner), transaction.ErrNotFound)
		})

		t.Run(name+"/Foreign", func(t *testing.T) {
			svc, repo := newService(t)
			repo.EXPECT().GetTransaction(gomock.Any(), id).Return(stored(), nil)

			assert.ErrorIs(t, op(svc, stranger), transaction.ErrNotOwner)
		})

		t.Run(name+"/ForeignHidden", func(t *testing.T) {
			svc, repo := newService(t, transaction.WithHiddenForeign(true))
			repo.EXPECT().GetTransaction(gomock.Any(), id).Return(stored(), nil)

			assert.ErrorIs(t, op(svc, stranger), transaction.ErrNotFound)
		})
	}

	t.Run("Delete/Owner", func(t *testing.T) {
		svc, repo := newService(t)
		repo.EXPECT().GetTransaction(gomock.Any(), id).Return(stored(), nil)
		repo.EXPECT().DeleteTransaction(gomock.Any(), id).Return(nil)

		assert.NoError(t, svc.Delete(context.Background(), owner, id))
	})
}

func TestAuthorize(t *testing.T) {
	owner := uuid.New()
	tx := &transaction.Transaction{OwnerID: owner}

	assert.NoError(t, transaction.Authorize(tx, owner))
	assert.ErrorIs(t, transaction.Authorize(tx, uuid.New()), transaction.ErrNotOwner)
}

func TestService_Update(t *testing.T) {
	owner := uuid.New()
	id := uuid.New()
	date := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)

	stored := func() *transaction.Transaction {
		return &transaction.Transaction{
			ID:       id,
			OwnerID:  owner,
			Title:    "Lunch",
			Amount:   decimal.RequireFromString("12.50"),
			Category: transaction.CategoryFood,
			Type:     transaction.TypeExpense,
			Date:     date,
		}
	}

	tests := []struct {
		name      string
		params    transaction.UpdateParams
		wantField string
		check     func(t *testing.T, tx *transaction.Transaction)
	}{
		{
			name:   "ZeroAmountIsKept",
			params: transaction.UpdateParams{Amount: new(decimal.Zero)},
			check: func(t *testing.T, tx *transaction.Transaction) {
				assert.True(t, tx.Amount.IsZero())
				assert.Equal(t, "Lunch", tx.Title)
			},
		},
		{
			name:   "AbsentFieldsAreKept",
			params: transaction.UpdateParams{Title: new("Dinner")},
			check: func(t *testing.T, tx *transaction.Transaction) {
				assert.Equal(t, "Dinner", tx.Title)
				assert.Equal(t, "12.50", tx.Amount.StringFixed(2))
				assert.Equal(t, transaction.CategoryFood, tx.Category)
				assert.Equal(t, transaction.TypeExpense, tx.Type)
				assert.Equal(t, date, tx.Date)
			},
		},
		{
			name: "SwitchTypeWithCategory",
			params: transaction.UpdateParams{
				Type:     new(transaction.TypeIncome),
				Category: new(transaction.CategoryFreelance),
			},
			check: func(t *testing.T, tx *transaction.Transaction) {
				assert.Equal(t, transaction.TypeIncome, tx.Type)
				assert.Equal(t, transaction.CategoryFreelance, tx.Category)
			},
		},
		{
			name:      "SwitchTypeAloneBreaksInvariant",
			params:    transaction.UpdateParams{Type: new(transaction.TypeIncome)},
			wantField: "category",
		},
		{
			name:      "EmptyTitle",
			params:    transaction.UpdateParams{Title: new("   ")},
			wantField: "title",
		},
		{
			name:      "NegativeAmount",
			params:    transaction.UpdateParams{Amount: new(decimal.NewFromInt(-1))},
			wantField: "amount",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newService(t)
			repo.EXPECT().GetTransaction(gomock.Any(), id).Return(stored(), nil)

			if tt.wantField == "" {
				repo.EXPECT().UpdateTransaction(gomock.Any(), gomock.Any()).Return(nil)
			}

			got, err := svc.Update(context.Background(), owner, id, tt.params)

			if tt.wantField != "" {
				var verr *transaction.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantField, verr.Field)

				return
			}

			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestService_ImportBatch_Success(t *testing.T) {
	svc, repo := newService(t)
	itx := transaction.NewMockImportTx(gomock.NewController(t))

	owner := uuid.New()
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	params := []transaction.CreateParams{
		{Title: "Coffee", Amount: amount("3.20"), Category: transaction.CategoryFood, Type: transaction.TypeExpense, Date: date},
		{Title: "Invoice 12", Amount: amount("800"), Category: transaction.CategoryFreelance, Type: transaction.TypeIncome, Date: date},
	}

	repo.EXPECT().BeginImport(gomock.Any(), owner, date, date).Return(itx, nil)
	itx.EXPECT().FindDuplicates(gomock.Any(), gomock.Len(2)).Return(nil, nil)
	itx.EXPECT().CreateTransactions(gomock.Any(), gomock.Len(2)).Return(nil)
	itx.EXPECT().Commit().Return(nil)
	itx.EXPECT().Rollback().Return(nil)

	result, err := svc.ImportBatch(context.Background(), owner, params)
	require.NoError(t, err)
	assert.Len(t, result.Imported, 2)
	assert.Empty(t, result.Conflicts)

	for _, tx := range result.Imported {
		assert.Equal(t, owner, tx.OwnerID)
	}
}

func TestService_ImportBatch_Conflicts(t *testing.T) {
	svc, repo := newService(t)
	itx := transaction.NewMockImportTx(gomock.NewController(t))

	owner := uuid.New()
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	params := []transaction.CreateParams{
		{Title: "Coffee", Amount: amount("3.20"), Category: transaction.CategoryFood, Type: transaction.TypeExpense, Date: date},
		{Title: "Books", Amount: amount("30"), Category: transaction.CategoryEducation, Type: transaction.TypeExpense, Date: date},
	}

	existing := &transaction.Transaction{
		ID:       uuid.New(),
		OwnerID:  owner,
		Title:    "coffee",
		Amount:   decimal.RequireFromString("3.2"),
		Category: transaction.CategoryFood,
		Type:     transaction.TypeExpense,
		Date:     date.Add(9 * time.Hour),
	}

	repo.EXPECT().BeginImport(gomock.Any(), owner, date, date).Return(itx, nil)
	itx.EXPECT().FindDuplicates(gomock.Any(), gomock.Any()).Return([]*transaction.Transaction{existing}, nil)
	itx.EXPECT().Rollback().Return(nil)

	result, err := svc.ImportBatch(context.Background(), owner, params)
	require.NoError(t, err)
	assert.Empty(t, result.Imported)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, existing, result.Conflicts[0].Existing)
	assert.Equal(t, "Coffee", result.Conflicts[0].Incoming.Title)
	require.Len(t, result.New, 1)
	assert.Equal(t, "Books", result.New[0].Title)
}

func TestService_ImportBatch_InvalidRow(t *testing.T) {
	svc, _ := newService(t)

	params := []transaction.CreateParams{
		{Title: "ok", Amount: amount("1"), Category: transaction.CategoryFood, Type: transaction.TypeExpense},
		{Title: "bad", Amount: amount("1"), Category: transaction.CategorySalary, Type: transaction.TypeExpense},
	}

	_, err := svc.ImportBatch(context.Background(), uuid.New(), params)

	var verr *transaction.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "row 2 category", verr.Field)
}

func TestService_ImportBatch_Empty(t *testing.T) {
	svc, _ := newService(t)

	result, err := svc.ImportBatch(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Imported)
}

func TestService_CreateBatch(t *testing.T) {
	svc, repo := newService(t)
	itx := transaction.NewMockImportTx(gomock.NewController(t))

	owner := uuid.New()
	params := []transaction.CreateParams{
		{Title: "Coffee", Amount: amount("3.20"), Category: transaction.CategoryFood, Type: transaction.TypeExpense},
	}

	repo.EXPECT().BeginImport(gomock.Any(), owner, fixedNow, fixedNow).Return(itx, nil)
	itx.EXPECT().CreateTransactions(gomock.Any(), gomock.Len(1)).Return(nil)
	itx.EXPECT().Commit().Return(nil)
	itx.EXPECT().Rollback().Return(nil)

	txs, err := svc.CreateBatch(context.Background(), owner, params)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, fixedNow, txs[0].Date)
}

func TestDuplicateKey_UTCCalendarDay(t *testing.T) {
	incoming := &transaction.Transaction{
		Title:  "Coffee",
		Amount: decimal.RequireFromString("3.2"),
		Type:   transaction.TypeExpense,
		Date:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	// The stored row as the driver returns it on a server west of UTC.
	stored := *incoming
	stored.Title = "COFFEE"
	stored.Date = incoming.Date.In(time.FixedZone("EDT", -4*60*60))

	assert.Equal(t, incoming.DuplicateKey(), stored.DuplicateKey())
	assert.Equal(t, "2024-05-01", transaction.CalendarDate(stored.Date))
	assert.Equal(t, incoming.Date, transaction.StartOfDay(stored.Date.Add(5*time.Hour)))
}
