// Package ledger holds the transaction types shared by the tracker client and
// the ledger service wire format.
package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts travel as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// TransactionType represents the direction of a transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Valid reports whether t is one of the supported types.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// ID is the opaque identifier assigned by the remote store. It decodes from
// either a JSON string or a JSON number.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("ledger: id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Entry is the id-less transaction payload sent to the remote store.
type Entry struct {
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        Date            `json:"date"`
}

// Transaction is a transaction confirmed by the remote store.
type Transaction struct {
	ID ID `json:"id"`
	Entry
}

// Validate checks the invariants every stored transaction must satisfy.
func (t Transaction) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("transaction has no id")
	}
	if !t.Type.Valid() {
		return fmt.Errorf("transaction %s has unsupported type %q", t.ID, t.Type)
	}
	if t.Amount.IsNegative() {
		return fmt.Errorf("transaction %s has negative amount %s", t.ID, t.Amount)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("transaction %s has no date", t.ID)
	}
	return nil
}
