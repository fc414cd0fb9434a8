package nlquery_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nmoreau/penny/internal/nlquery"
	"github.com/nmoreau/penny/internal/transaction"
)

func TestInterpret(t *testing.T) {
	type testCase struct {
		name      string
		utterance string
		want      transaction.QuerySpec
	}

	base := transaction.QuerySpec{SortBy: "date", SortOrder: transaction.SortDesc}

	tests := []testCase{
		{
			name:      "SpendOnFoodThisMonth",
			utterance: "How much did I spend on food this month?",
			want: transaction.QuerySpec{
				Filters: transaction.Filters{
					Category:  "food",
					Type:      transaction.TypeExpense,
					DateRange: transaction.DateRangeThisMonth,
				},
				Aggregations: []transaction.Aggregation{transaction.AggregationSum},
				SortBy:       "date",
				SortOrder:    transaction.SortDesc,
			},
		},
		{
			name:      "IncomeCount",
			utterance: "How many salary payments did I receive?",
			want: transaction.QuerySpec{
				Filters:      transaction.Filters{Type: transaction.TypeIncome},
				Aggregations: []transaction.Aggregation{transaction.AggregationCount},
				SortBy:       "date",
				SortOrder:    transaction.SortDesc,
			},
		},
		{
			name:      "AverageTransportation",
			utterance: "What is my average uber cost?",
			want: transaction.QuerySpec{
				Filters: transaction.Filters{
					Category: "transportation",
					Type:     transaction.TypeExpense,
				},
				Aggregations: []transaction.Aggregation{transaction.AggregationAverage},
				SortBy:       "date",
				SortOrder:    transaction.SortDesc,
			},
		},
		{
			name:      "NoCues",
			utterance: "tell me a joke",
			want:      base,
		},
		{
			name:      "CaseInsensitive",
			utterance: "TOTAL SPENT ON GROCERIES",
			want: transaction.QuerySpec{
				Filters: transaction.Filters{
					Category: "food",
					Type:     transaction.TypeExpense,
				},
				Aggregations: []transaction.Aggregation{transaction.AggregationSum},
				SortBy:       "date",
				SortOrder:    transaction.SortDesc,
			},
		},
		{
			name:      "FirstCategoryGroupWins",
			utterance: "laptop and coffee purchases",
			want: transaction.QuerySpec{
				Filters:   transaction.Filters{Category: "technology"},
				SortBy:    "date",
				SortOrder: transaction.SortDesc,
			},
		},
		{
			name:      "SingleAggregationOnly",
			utterance: "how much and how many netflix charges",
			want: transaction.QuerySpec{
				Filters:      transaction.Filters{Category: "entertainment"},
				Aggregations: []transaction.Aggregation{transaction.AggregationSum},
				SortBy:       "date",
				SortOrder:    transaction.SortDesc,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nlquery.Interpret(tt.utterance))
		})
	}
}

func TestInterpret_EmptySpecForUnmatchedUtterance(t *testing.T) {
	spec := nlquery.Interpret("show me something interesting")
	assert.True(t, spec.Empty())
}

func TestCleanSQL(t *testing.T) {
	type testCase struct {
		name  string
		input string
		want  string
	}

	tests := []testCase{
		{
			name:  "Plain",
			input: "SELECT * FROM transactions",
			want:  "SELECT * FROM transactions",
		},
		{
			name:  "Fenced",
			input: "```sql\nSELECT * FROM transactions\n```",
			want:  "SELECT * FROM transactions",
		},
		{
			name:  "FencedNoLanguage",
			input: "```\nSELECT 1\n```",
			want:  "SELECT 1",
		},
		{
			name:  "TrailingSemicolon",
			input: "SELECT 1;",
			want:  "SELECT 1",
		},
		{
			name:  "FencedWithSemicolonAndWhitespace",
			input: "  ```sql\nSELECT amount FROM transactions;\n```  ",
			want:  "SELECT amount FROM transactions",
		},
		{
			name:  "Empty",
			input: "   ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nlquery.CleanSQL(tt.input))
		})
	}
}
