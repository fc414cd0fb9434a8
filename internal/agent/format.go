package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nmoreau/penny/internal/currency"
	"github.com/nmoreau/penny/internal/transaction"
)

// maxListed caps how many transactions a reply enumerates.
const maxListed = 5

func formatAggregate(res *transaction.AggregateResult) string {
	var parts []string

	if res.SumDollars != nil {
		parts = append(parts, "Total: $"+res.SumDollars.StringFixed(2))
	}

	if res.Count != nil {
		parts = append(parts, fmt.Sprintf("Count: %d transactions", *res.Count))
	}

	if res.AverageDollars != nil {
		parts = append(parts, "Average: $"+res.AverageDollars.StringFixed(2))
	}

	if len(parts) == 0 {
		return "No transactions found matching your query."
	}

	return "Query results: " + strings.Join(parts, " | ")
}

func formatTransactions(txs []*transaction.Transaction) string {
	if len(txs) == 0 {
		return "No transactions found matching your query."
	}

	lines := []string{fmt.Sprintf("Found %d transactions:", len(txs))}

	for i, tx := range txs {
		if i == maxListed {
			break
		}

		lines = append(lines, fmt.Sprintf("%d. %s - %s (%s)",
			i+1, currency.Format(tx.Amount), tx.Description, tx.Category))
	}

	if len(txs) > maxListed {
		lines = append(lines, fmt.Sprintf("... and %d more transactions", len(txs)-maxListed))
	}

	return strings.Join(lines, "\n")
}

func formatRows(rows []map[string]any) string {
	if len(rows) == 0 {
		return "No transactions found matching your query."
	}

	buf, err := json.Marshal(rows)
	if err != nil {
		return fmt.Sprint(rows)
	}

	return fmt.Sprintf("Query results: %s", buf)
}
