package transaction

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nmoreau/penny/internal/transaction"
)

type transactionResponse struct {
	ID            int64            `json:"id"`
	Amount        int64            `json:"amount"` // cents
	AmountDollars decimal.Decimal  `json:"amount_dollars"`
	Description   string           `json:"description"`
	Category      string           `json:"category"`
	Type          transaction.Type `json:"type"`
	Date          time.Time        `json:"date"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func toResponse(tx *transaction.Transaction) transactionResponse {
	return transactionResponse{
		ID:            tx.ID,
		Amount:        tx.Amount,
		AmountDollars: tx.Dollars(),
		Description:   tx.Description,
		Category:      tx.Category,
		Type:          tx.Type,
		Date:          tx.Date,
		CreatedAt:     tx.CreatedAt,
		UpdatedAt:     tx.UpdatedAt,
	}
}

func toResponseList(txs []*transaction.Transaction) []transactionResponse {
	resp := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		resp[i] = toResponse(tx)
	}

	return resp
}
