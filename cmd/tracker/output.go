package main

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"budgettracker/internal/ledger"
	"budgettracker/internal/summary"
)

func printTransactions(w io.Writer, txs []ledger.Transaction) {
	if len(txs) == 0 {
		fmt.Fprintln(w, "No transactions.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Date", "Type", "Category", "Amount", "Description"})
	table.SetAutoWrapText(false)
	for _, tx := range txs {
		table.Append([]string{
			string(tx.ID),
			tx.Date.String(),
			string(tx.Type),
			tx.Category,
			tx.Amount.StringFixed(2),
			tx.Description,
		})
	}
	table.Render()
}

func printSummary(w io.Writer, s summary.Summary) {
	fmt.Fprintf(w, "Income:  %s\n", s.IncomeTotal.StringFixed(2))
	fmt.Fprintf(w, "Expense: %s\n", s.ExpenseTotal.StringFixed(2))
	fmt.Fprintf(w, "Balance: %s\n", s.Balance.StringFixed(2))
	if len(s.ByCategory) == 0 {
		return
	}

	fmt.Fprintln(w)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Type", "Category", "Count", "Total"})
	for _, c := range s.ByCategory {
		table.Append([]string{string(c.Type), c.Category, fmt.Sprint(c.Count), c.Total.StringFixed(2)})
	}
	table.Render()
}
