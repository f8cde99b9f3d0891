package models

import (
	"github.com/shopspring/decimal"

	"budgettracker/internal/ledger"
)

// Transaction is one income or expense record owned by a user.
type Transaction struct {
	Base
	UserID      string                 `gorm:"type:uuid;not null;index" json:"-"`
	Type        ledger.TransactionType `gorm:"size:16;not null" json:"type"`
	Category    string                 `gorm:"size:100;not null" json:"category"`
	Amount      decimal.Decimal        `gorm:"type:numeric(20,4);not null" json:"amount"`
	Description string                 `gorm:"size:500" json:"description"`
	Date        ledger.Date            `gorm:"type:date;not null;index" json:"date"`
}

// Ledger converts the row into its wire representation.
func (t *Transaction) Ledger() ledger.Transaction {
	return ledger.Transaction{
		ID: ledger.ID(t.ID),
		Entry: ledger.Entry{
			Type:        t.Type,
			Category:    t.Category,
			Amount:      t.Amount,
			Description: t.Description,
			Date:        t.Date,
		},
	}
}

// Apply copies entry into the row.
func (t *Transaction) Apply(entry ledger.Entry) {
	t.Type = entry.Type
	t.Category = entry.Category
	t.Amount = entry.Amount
	t.Description = entry.Description
	t.Date = entry.Date
}
