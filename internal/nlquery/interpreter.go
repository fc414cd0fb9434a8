// Package nlquery translates free-text requests into transaction queries.
// Two strategies exist: deterministic keyword rules producing a QuerySpec,
// and model-generated SQL for requests the rules cannot express.
package nlquery

import (
	"strings"

	"github.com/nmoreau/penny/internal/transaction"
)

type categoryGroup struct {
	name     string
	keywords []string
}

// categoryGroups is scanned in order; the first group with a matching keyword
// wins, so the order is part of the contract.
var categoryGroups = []categoryGroup{
	{"technology", []string{"tech", "computer", "laptop", "software", "technology"}},
	{"food", []string{"food", "restaurant", "coffee", "lunch", "dinner", "breakfast", "groceries"}},
	{"shopping", []string{"shopping", "clothes", "amazon", "store", "purchase"}},
	{"transportation", []string{"uber", "lyft", "gas", "fuel", "transportation", "car"}},
	{"entertainment", []string{"movie", "netflix", "spotify", "entertainment"}},
	{"health", []string{"medical", "doctor", "pharmacy", "health"}},
	{"utilities", []string{"electricity", "water", "internet", "phone", "utilities"}},
}

var (
	expenseCues = []string{"spent", "spend", "spending", "expense", "cost"}
	incomeCues  = []string{"earned", "income", "salary", "revenue"}
)

type aggregationCue struct {
	agg  transaction.Aggregation
	cues []string
}

// At most one aggregation is selected; the first cue list that matches wins.
var aggregationCues = []aggregationCue{
	{transaction.AggregationSum, []string{"total", "sum", "how much"}},
	{transaction.AggregationAverage, []string{"average", "avg"}},
	{transaction.AggregationCount, []string{"count", "how many"}},
}

var monthCues = []string{"this month", "current month", "month"}

// Interpret scans the lower-cased utterance for category, type, aggregation
// and time-window cues and builds a QuerySpec. Cues that do not appear leave
// the corresponding field unset, which applies no filter.
func Interpret(utterance string) transaction.QuerySpec {
	q := strings.ToLower(utterance)

	spec := transaction.QuerySpec{
		SortBy:    "date",
		SortOrder: transaction.SortDesc,
	}

	for _, g := range categoryGroups {
		if containsAny(q, g.keywords) {
			spec.Filters.Category = g.name
			break
		}
	}

	switch {
	case containsAny(q, expenseCues):
		spec.Filters.Type = transaction.TypeExpense
	case containsAny(q, incomeCues):
		spec.Filters.Type = transaction.TypeIncome
	}

	for _, c := range aggregationCues {
		if containsAny(q, c.cues) {
			spec.Aggregations = []transaction.Aggregation{c.agg}
			break
		}
	}

	if containsAny(q, monthCues) {
		spec.Filters.DateRange = transaction.DateRangeThisMonth
	}

	return spec
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}

	return false
}
