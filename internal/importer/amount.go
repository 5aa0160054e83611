package importer

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var errEmptyAmount = errors.New("empty amount")

// parseAmount accepts plain ("1234.56"), European ("1.234,56") and English ("1,234.56")
// amounts with an optional sign and currency symbol. When both separators occur, the
// rightmost is the decimal one; a lone comma is a decimal comma.
func parseAmount(s string) (decimal.Decimal, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', ' ', '€', '$', '£':
			return -1
		}

		return r
	}, strings.TrimSpace(s))

	clean = strings.TrimSuffix(strings.TrimSuffix(clean, "EUR"), "USD")
	if clean == "" {
		return decimal.Zero, errEmptyAmount
	}

	lastDot := strings.LastIndex(clean, ".")
	lastComma := strings.LastIndex(clean, ",")

	switch {
	case lastComma > lastDot:
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	case lastDot > lastComma && lastComma >= 0:
		clean = strings.ReplaceAll(clean, ",", "")
	}

	return decimal.NewFromString(clean)
}
