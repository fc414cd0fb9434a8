package transaction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nmoreau/penny/internal/currency"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	Insert(ctx context.Context, tx *Transaction) error
	Query(ctx context.Context, spec QuerySpec) ([]*Transaction, error)
	Aggregate(ctx context.Context, spec QuerySpec) (*AggregateResult, error)
	ExecuteRaw(ctx context.Context, query string) ([]map[string]any, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	Amount      int64 // cents
	Description string
	Category    string
	Type        Type
	Date        time.Time // zero value means "now"
}

// Insert validates params and persists a new transaction. The returned record
// carries the store-assigned id and timestamps.
func (s *Service) Insert(ctx context.Context, params CreateParams) (*Transaction, error) {
	if err := currency.Validate(params.Amount); err != nil {
		return nil, err
	}

	if strings.TrimSpace(params.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrValidation)
	}

	if strings.TrimSpace(params.Category) == "" {
		return nil, fmt.Errorf("%w: category is required", ErrValidation)
	}

	if !params.Type.Valid() {
		return nil, fmt.Errorf("%w: type must be %q or %q", ErrValidation, TypeExpense, TypeIncome)
	}

	if params.Date.IsZero() {
		params.Date = time.Now()
	}

	tx := &Transaction{
		Amount:      params.Amount,
		Description: params.Description,
		Category:    params.Category,
		Type:        params.Type,
		Date:        params.Date,
	}
	if err := s.repo.Insert(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

func (s *Service) Query(ctx context.Context, spec QuerySpec) ([]*Transaction, error) {
	return s.repo.Query(ctx, spec)
}

func (s *Service) Aggregate(ctx context.Context, spec QuerySpec) (*AggregateResult, error) {
	if len(spec.Aggregations) == 0 {
		return nil, fmt.Errorf("%w: no aggregations requested", ErrValidation)
	}

	return s.repo.Aggregate(ctx, spec)
}

// ErrUnsafeQuery rejects generated query text that is not a single read-only
// statement. Model output is untrusted; anything that could mutate state must
// fail before reaching the store.
var ErrUnsafeQuery = errors.New("query is not read-only")

// ExecuteRaw runs a model-generated query string against the store after
// checking it is a single SELECT.
func (s *Service) ExecuteRaw(ctx context.Context, query string) ([]map[string]any, error) {
	q := strings.TrimSpace(query)
	q = strings.TrimSuffix(q, ";")
	q = strings.TrimSpace(q)

	if err := checkReadOnly(q); err != nil {
		return nil, err
	}

	return s.repo.ExecuteRaw(ctx, q)
}

func checkReadOnly(q string) error {
	if q == "" {
		return fmt.Errorf("%w: empty query", ErrUnsafeQuery)
	}

	upper := strings.ToUpper(q)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return fmt.Errorf("%w: must start with SELECT", ErrUnsafeQuery)
	}

	if strings.Contains(q, ";") {
		return fmt.Errorf("%w: multiple statements", ErrUnsafeQuery)
	}

	return nil
}
