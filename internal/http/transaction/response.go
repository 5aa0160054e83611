package transaction

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

// Response is the JSON shape of a transaction.
type Response struct {
	ID        uuid.UUID            `json:"id"`
	UserID    uuid.UUID            `json:"userId"`
	Title     string               `json:"title"`
	Amount    float64              `json:"amount"`
	Category  transaction.Category `json:"category"`
	Type      transaction.Type     `json:"type"`
	Date      time.Time            `json:"date"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

func ToResponse(tx *transaction.Transaction) Response {
	return Response{
		ID:        tx.ID,
		UserID:    tx.OwnerID,
		Title:     tx.Title,
		Amount:    tx.Amount.InexactFloat64(),
		Category:  tx.Category,
		Type:      tx.Type,
		Date:      tx.Date,
		CreatedAt: tx.CreatedAt,
		UpdatedAt: tx.UpdatedAt,
	}
}

func ToResponseList(txs []*transaction.Transaction) []Response {
	resp := make([]Response, len(txs))
	for i, tx := range txs {
		resp[i] = ToResponse(tx)
	}

	return resp
}
