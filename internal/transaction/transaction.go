package transaction

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type represents the direction of a transaction (income or expense).
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

func (t Type) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Category is one of a fixed set of labels, each belonging to exactly one Type.
type Category string

const (
	CategorySalary       Category = "Salary"
	CategoryFreelance    Category = "Freelance"
	CategoryInvestment   Category = "Investment"
	CategoryOtherIncome  Category = "Other Income"
	CategoryFood         Category = "Food"
	CategoryTravel       Category = "Travel"
	CategoryShopping     Category = "Shopping"
	CategoryRent         Category = "Rent"
	CategoryBills        Category = "Bills"
	CategoryEntertain    Category = "Entertainment"
	CategoryHealthcare   Category = "Healthcare"
	CategoryEducation    Category = "Education"
	CategoryOtherExpense Category = "Other Expense"
)

var (
	incomeCategories = []Category{
		CategorySalary, CategoryFreelance, CategoryInvestment, CategoryOtherIncome,
	}
	expenseCategories = []Category{
		CategoryFood, CategoryTravel, CategoryShopping, CategoryRent, CategoryBills,
		CategoryEntertain, CategoryHealthcare, CategoryEducation, CategoryOtherExpense,
	}

	categoryTypes = func() map[Category]Type {
		m := make(map[Category]Type, len(incomeCategories)+len(expenseCategories))
		for _, c := range incomeCategories {
			m[c] = TypeIncome
		}

		for _, c := range expenseCategories {
			m[c] = TypeExpense
		}

		return m
	}()
)

// Type returns the transaction type the category belongs to, or "" for unknown labels.
func (c Category) Type() Type {
	return categoryTypes[c]
}

func (c Category) Valid() bool {
	_, ok := categoryTypes[c]
	return ok
}

// Categories returns the categories valid for t, in display order.
func Categories(t Type) []Category {
	var src []Category

	switch t {
	case TypeIncome:
		src = incomeCategories
	case TypeExpense:
		src = expenseCategories
	}

	out := make([]Category, len(src))
	copy(out, src)

	return out
}

// ParseCategory matches a label case-insensitively and ignoring surrounding space.
func ParseCategory(s string) (Category, bool) {
	for c := range categoryTypes {
		if equalFold(string(c), s) {
			return c, true
		}
	}

	return "", false
}

// Transaction is a single income or expense record owned by one user.
type Transaction struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Title     string
	Amount    decimal.Decimal // non-negative; direction comes from Type
	Category  Category
	Type      Type
	Date      time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Calendar days are UTC: a date-only value such as "2024-05-01" is midnight UTC,
// and every place that reads a transaction's day uses its UTC fields.

// CalendarDate formats the UTC calendar day of t.
func CalendarDate(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// StartOfDay truncates t to midnight UTC of its UTC calendar day.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DuplicateKey identifies transactions that look like the same real-world movement:
// same day, amount, type and title (case-insensitive).
func (t *Transaction) DuplicateKey() string {
	return strings.Join([]string{
		CalendarDate(t.Date),
		t.Amount.StringFixed(2),
		string(t.Type),
		strings.ToLower(t.Title),
	}, "|")
}
