package transaction

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nmoreau/penny/internal/currency"
)

// Type represents the type of transaction (income or expense).
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

// Valid reports whether t is one of the two known transaction types.
func (t Type) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Categories is the advisory category set offered to the model when it
// classifies transactions. The column itself is open: anything the model or a
// caller supplies is stored as-is.
var Categories = []string{
	"technology",
	"subscriptions",
	"food",
	"shopping",
	"groceries",
	"transportation",
	"entertainment",
	"health",
	"utilities",
	"taxes",
}

var (
	ErrNotFound   = errors.New("transaction not found")
	ErrValidation = errors.New("validation error")
)

// Transaction represents a financial transaction. Amount is in cents.
type Transaction struct {
	ID          int64
	Amount      int64
	Description string
	Category    string
	Type        Type
	Date        time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Dollars returns the exact dollar value of the amount.
func (t *Transaction) Dollars() decimal.Decimal {
	return currency.ToDollars(t.Amount)
}
