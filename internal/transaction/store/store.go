package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nmoreau/penny/internal/currency"
	"github.com/nmoreau/penny/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectColumns = `id, amount, description, category, type, date, created_at, updated_at`

func scanTransaction(s scanner) (*transaction.Transaction, error) {
	var tx transaction.Transaction

	var typeStr string

	if err := s.Scan(
		&tx.ID, &tx.Amount, &tx.Description, &tx.Category, &typeStr,
		&tx.Date, &tx.CreatedAt, &tx.UpdatedAt,
	); err != nil {
		return nil, err
	}

	tx.Type = transaction.Type(typeStr)

	return &tx, nil
}

func (s *Store) Insert(ctx context.Context, tx *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (amount, description, category, type, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		tx.Amount,
		tx.Description,
		tx.Category,
		tx.Type,
		tx.Date,
	).Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting transaction: %w", err)
	}

	return nil
}

func (s *Store) Query(ctx context.Context, spec transaction.QuerySpec) ([]*transaction.Transaction, error) {
	query, args := buildSelect(spec, time.Now())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction

	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}

	return txs, nil
}

func (s *Store) Aggregate(ctx context.Context, spec transaction.QuerySpec) (*transaction.AggregateResult, error) {
	query, args, err := buildAggregate(spec, time.Now())
	if err != nil {
		return nil, err
	}

	res := &transaction.AggregateResult{}

	var dests []any

	for _, agg := range spec.Aggregations {
		switch agg {
		case transaction.AggregationSum:
			res.Sum = new(int64)
			dests = append(dests, res.Sum)
		case transaction.AggregationCount:
			res.Count = new(int64)
			dests = append(dests, res.Count)
		case transaction.AggregationAverage:
			res.Average = new(float64)
			dests = append(dests, res.Average)
		}
	}

	if err := s.db.QueryRowContext(ctx, query, args...).Scan(dests...); err != nil {
		return nil, fmt.Errorf("aggregating transactions: %w", err)
	}

	if res.Sum != nil {
		d := currency.ToDollars(*res.Sum)
		res.SumDollars = &d
	}

	if res.Average != nil {
		d := decimal.NewFromFloat(*res.Average).Shift(-2).Round(2)
		res.AverageDollars = &d
	}

	return res, nil
}

// ExecuteRaw runs a query string verbatim and returns rows as field maps. The
// service layer has already checked the statement is a read-only SELECT.
func (s *Store) ExecuteRaw(ctx context.Context, query string) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	var out []map[string]any

	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))

		for i := range vals {
			ptrs[i] = &vals[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		m := make(map[string]any, len(cols))

		for i, c := range cols {
			v := vals[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}

			m[c] = v
		}

		out = append(out, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return out, nil
}

// sortColumns whitelists the fields a QuerySpec may sort by. Anything else
// falls back to date.
var sortColumns = map[string]string{
	"date":       "date",
	"amount":     "amount",
	"category":   "category",
	"created_at": "created_at",
}

func buildSelect(spec transaction.QuerySpec, now time.Time) (string, []any) {
	query := `SELECT ` + selectColumns + ` FROM transactions`

	where, args := buildWhere(spec.Filters, now, 1)
	query += where

	sortBy, ok := sortColumns[spec.SortBy]
	if !ok {
		sortBy = "date"
	}

	order := "DESC"
	if spec.SortOrder == transaction.SortAsc {
		order = "ASC"
	}

	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, order)

	if spec.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)

		args = append(args, spec.Limit)
	}

	return query, args
}

func buildAggregate(spec transaction.QuerySpec, now time.Time) (string, []any, error) {
	var cols []string

	for _, agg := range spec.Aggregations {
		switch agg {
		case transaction.AggregationSum:
			cols = append(cols, "COALESCE(SUM(amount), 0)")
		case transaction.AggregationCount:
			cols = append(cols, "COUNT(*)")
		case transaction.AggregationAverage:
			cols = append(cols, "COALESCE(AVG(amount), 0)")
		default:
			return "", nil, fmt.Errorf("unknown aggregation %q", agg)
		}
	}

	if len(cols) == 0 {
		return "", nil, fmt.Errorf("no aggregations requested")
	}

	query := "SELECT " + strings.Join(cols, ", ") + " FROM transactions"

	where, args := buildWhere(spec.Filters, now, 1)
	query += where

	return query, args, nil
}

func buildWhere(f transaction.Filters, now time.Time, argIdx int) (string, []any) {
	var clauses []string

	var args []any

	if f.Category != "" {
		clauses = append(clauses, fmt.Sprintf("category = $%d", argIdx))

		args = append(args, f.Category)
		argIdx++
	}

	if f.Type != "" {
		clauses = append(clauses, fmt.Sprintf("type = $%d", argIdx))

		args = append(args, string(f.Type))
		argIdx++
	}

	if f.DateRange == transaction.DateRangeThisMonth {
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end := start.AddDate(0, 1, 0)

		clauses = append(clauses, fmt.Sprintf("date >= $%d AND date < $%d", argIdx, argIdx+1))

		args = append(args, start, end)
	}

	if len(clauses) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}
