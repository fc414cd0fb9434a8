package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmoreau/penny/internal/transaction"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestBuildSelect(t *testing.T) {
	type testCase struct {
		name      string
		spec      transaction.QuerySpec
		wantQuery string
		wantArgs  []any
	}

	monthStart := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	tests := []testCase{
		{
			name: "NoFilters",
			spec: transaction.QuerySpec{},
			wantQuery: "SELECT " + selectColumns + " FROM transactions" +
				" ORDER BY date DESC",
		},
		{
			name: "CategoryAndType",
			spec: transaction.QuerySpec{
				Filters: transaction.Filters{
					Category: "food",
					Type:     transaction.TypeExpense,
				},
				SortBy:    "date",
				SortOrder: transaction.SortDesc,
			},
			wantQuery: "SELECT " + selectColumns + " FROM transactions" +
				" WHERE category = $1 AND type = $2 ORDER BY date DESC",
			wantArgs: []any{"food", "expense"},
		},
		{
			name: "ThisMonth",
			spec: transaction.QuerySpec{
				Filters: transaction.Filters{DateRange: transaction.DateRangeThisMonth},
			},
			wantQuery: "SELECT " + selectColumns + " FROM transactions" +
				" WHERE date >= $1 AND date < $2 ORDER BY date DESC",
			wantArgs: []any{monthStart, monthEnd},
		},
		{
			name: "SortAscWithLimit",
			spec: transaction.QuerySpec{
				SortBy:    "amount",
				SortOrder: transaction.SortAsc,
				Limit:     10,
			},
			wantQuery: "SELECT " + selectColumns + " FROM transactions" +
				" ORDER BY amount ASC LIMIT $1",
			wantArgs: []any{10},
		},
		{
			name: "UnknownSortFallsBackToDate",
			spec: transaction.QuerySpec{
				SortBy: "description; DROP TABLE transactions",
			},
			wantQuery: "SELECT " + selectColumns + " FROM transactions" +
				" ORDER BY date DESC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildSelect(tt.spec, testNow)

			assert.Equal(t, tt.wantQuery, query)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestBuildAggregate(t *testing.T) {
	type testCase struct {
		name      string
		spec      transaction.QuerySpec
		wantQuery string
		wantArgs  []any
		wantErr   bool
	}

	tests := []testCase{
		{
			name: "Sum",
			spec: transaction.QuerySpec{
				Aggregations: []transaction.Aggregation{transaction.AggregationSum},
			},
			wantQuery: "SELECT COALESCE(SUM(amount), 0) FROM transactions",
		},
		{
			name: "AllThree",
			spec: transaction.QuerySpec{
				Filters: transaction.Filters{Category: "food"},
				Aggregations: []transaction.Aggregation{
					transaction.AggregationSum,
					transaction.AggregationCount,
					transaction.AggregationAverage,
				},
			},
			wantQuery: "SELECT COALESCE(SUM(amount), 0), COUNT(*), COALESCE(AVG(amount), 0)" +
				" FROM transactions WHERE category = $1",
			wantArgs: []any{"food"},
		},
		{
			name:    "None",
			spec:    transaction.QuerySpec{},
			wantErr: true,
		},
		{
			name: "Unknown",
			spec: transaction.QuerySpec{
				Aggregations: []transaction.Aggregation{transaction.Aggregation("median")},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := buildAggregate(tt.spec, testNow)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantQuery, query)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestBuildWhere_MonthBoundaries(t *testing.T) {
	// End of December rolls the window into the next year.
	dec := time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC)

	where, args := buildWhere(transaction.Filters{DateRange: transaction.DateRangeThisMonth}, dec, 1)

	require.Len(t, args, 2)
	assert.Equal(t, " WHERE date >= $1 AND date < $2", where)
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), args[0])
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), args[1])
}
