// Package summary derives totals, balance and the chart series from a
// transaction collection. Everything here is pure: the same collection always
// yields the same Summary, and an empty collection yields zeros.
package summary

import (
	"sort"

	"github.com/shopspring/decimal"

	"budgettracker/internal/ledger"
)

// Point is one slice of the income/expense series.
type Point struct {
	Category ledger.TransactionType `json:"category"`
	Value    decimal.Decimal        `json:"value"`
}

// CategoryTotal is the total for one category within one transaction type.
type CategoryTotal struct {
	Type     ledger.TransactionType `json:"type"`
	Category string                 `json:"category"`
	Total    decimal.Decimal        `json:"total"`
	Count    int                    `json:"count"`
}

// Summary is the derived view of a transaction collection.
type Summary struct {
	IncomeTotal  decimal.Decimal `json:"income_total"`
	ExpenseTotal decimal.Decimal `json:"expense_total"`
	Balance      decimal.Decimal `json:"balance"`
	Series       []Point         `json:"series"`
	ByCategory   []CategoryTotal `json:"by_category"`
	Count        int             `json:"count"`
}

// Compute returns the Summary for txs. txs is not modified.
func Compute(txs []ledger.Transaction) Summary {
	income := decimal.Zero
	expense := decimal.Zero

	type key struct {
		typ      ledger.TransactionType
		category string
	}
	buckets := make(map[key]*CategoryTotal)

	for _, tx := range txs {
		switch tx.Type {
		case ledger.TransactionTypeIncome:
			income = income.Add(tx.Amount)
		case ledger.TransactionTypeExpense:
			expense = expense.Add(tx.Amount)
		default:
			continue
		}

		k := key{tx.Type, tx.Category}
		b, ok := buckets[k]
		if !ok {
			b = &CategoryTotal{Type: tx.Type, Category: tx.Category, Total: decimal.Zero}
			buckets[k] = b
		}
		b.Total = b.Total.Add(tx.Amount)
		b.Count++
	}

	byCategory := make([]CategoryTotal, 0, len(buckets))
	for _, b := range buckets {
		byCategory = append(byCategory, *b)
	}
	sort.Slice(byCategory, func(i, j int) bool {
		if byCategory[i].Type != byCategory[j].Type {
			// income first
			return byCategory[i].Type == ledger.TransactionTypeIncome
		}
		return byCategory[i].Category < byCategory[j].Category
	})

	count := 0
	for _, b := range byCategory {
		count += b.Count
	}

	return Summary{
		IncomeTotal:  income,
		ExpenseTotal: expense,
		Balance:      income.Sub(expense),
		Series: []Point{
			{Category: ledger.TransactionTypeIncome, Value: income},
			{Category: ledger.TransactionTypeExpense, Value: expense},
		},
		ByCategory: byCategory,
		Count:      count,
	}
}
