package transaction

import "github.com/shopspring/decimal"

// DateRange is a named time window a query can be restricted to.
type DateRange string

const DateRangeThisMonth DateRange = "this_month"

// Aggregation is a reducing computation over the amount column.
type Aggregation string

const (
	AggregationSum     Aggregation = "sum"
	AggregationCount   Aggregation = "count"
	AggregationAverage Aggregation = "average"
)

// SortOrder represents result ordering direction.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Filters narrows a query. Zero-valued fields apply no filter.
type Filters struct {
	Category  string
	Type      Type
	DateRange DateRange
}

// QuerySpec is the structured form of a natural-language query. It is built
// per request and never persisted. The zero value matches everything, sorted
// by date descending.
type QuerySpec struct {
	Filters      Filters
	Aggregations []Aggregation
	SortBy       string
	SortOrder    SortOrder
	Limit        int
}

// Empty reports whether the spec carries no filters and no aggregations.
func (s QuerySpec) Empty() bool {
	return s.Filters == (Filters{}) && len(s.Aggregations) == 0
}

// AggregateResult holds the aggregations a query asked for. Nil fields were
// not requested. Sum and Average carry both the cent value and an exact
// dollar decimal for display.
type AggregateResult struct {
	Sum            *int64
	SumDollars     *decimal.Decimal
	Count          *int64
	Average        *float64
	AverageDollars *decimal.Decimal
}
