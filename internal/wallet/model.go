package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types as they appear in statements.
const (
	TypeCredit = "CREDIT"
	TypeDebit  = "DEBIT"
)

// Transaction is one immutable statement line for a user's wallet.
type Transaction struct {
	ID           string
	UserID       string
	Type         string
	Amount       decimal.Decimal
	BalanceAfter decimal.Decimal
	Description  string
	Timestamp    time.Time
}

// Page is one wholesale-fetched slice of a user's statement, newest first.
type Page struct {
	Content       []Transaction
	Page          int
	TotalPages    int
	TotalElements int
}
