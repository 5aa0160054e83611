package transaction

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("transaction not found")
	ErrNotOwner = errors.New("not authorized")
)

// ValidationError reports a missing or invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}

	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Authorize allows a transaction-scoped operation only for the transaction's owner.
func Authorize(tx *Transaction, callerID uuid.UUID) error {
	if tx.OwnerID != callerID {
		return ErrNotOwner
	}

	return nil
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
