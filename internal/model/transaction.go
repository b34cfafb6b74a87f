// Package model contains the value types shared by every stage of the classifier.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is one card transaction awaiting classification.
type Transaction struct {
	Date        *time.Time
	ID          string
	RawMerchant string // merchant exactly as exported by the card issuer
	Merchant    string // normalized merchant, filled in by the pipeline
	Amount      int64  // won, never negative
}

// NewTransaction builds a transaction with a fresh identifier.
func NewTransaction(rawMerchant string, date *time.Time, amount int64) Transaction {
	if amount < 0 {
		amount = -amount
	}
	return Transaction{
		ID:          uuid.NewString(),
		RawMerchant: rawMerchant,
		Date:        date,
		Amount:      amount,
	}
}

// DateString formats the transaction date for tabular output.
func (t Transaction) DateString() string {
	if t.Date == nil {
		return ""
	}
	return t.Date.Format("2006-01-02")
}

// ReferenceEntry maps a normalized merchant to its confirmed category.
type ReferenceEntry struct {
	Merchant string
	Category string
}

// Row is one classified line, emitted in input order.
type Row struct {
	Result Result
	Transaction
}
