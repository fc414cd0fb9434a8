package transaction_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/nmoreau/penny/internal/currency"
	"github.com/nmoreau/penny/internal/transaction"
)

func TestService_Insert(t *testing.T) {
	type testCase struct {
		name      string
		params    transaction.CreateParams
		setupMock func(m *transaction.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			params: transaction.CreateParams{
				Amount:      1050,
				Description: "Coffee",
				Category:    "food",
				Type:        transaction.TypeExpense,
				Date:        time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
			},
			setupMock: func(m *transaction.MockRepository) {
				m.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
						tx.ID = 42
						tx.CreatedAt = time.Now()
						return nil
					})
			},
		},
		{
			name: "NegativeAmount",
			params: transaction.CreateParams{
				Amount:      -100,
				Description: "Coffee",
				Category:    "food",
				Type:        transaction.TypeExpense,
			},
			wantErr: currency.ErrInvalidAmount,
		},
		{
			name: "AmountOverCap",
			params: transaction.CreateParams{
				Amount:      currency.MaxCents + 1,
				Description: "Yacht",
				Category:    "shopping",
				Type:        transaction.TypeExpense,
			},
			wantErr: currency.ErrInvalidAmount,
		},
		{
			name: "MissingDescription",
			params: transaction.CreateParams{
				Amount:      100,
				Description: "   ",
				Category:    "food",
				Type:        transaction.TypeExpense,
			},
			wantErr: transaction.ErrValidation,
		},
		{
			name: "MissingCategory",
			params: transaction.CreateParams{
				Amount:      100,
				Description: "Coffee",
				Type:        transaction.TypeExpense,
			},
			wantErr: transaction.ErrValidation,
		},
		{
			name: "InvalidType",
			params: transaction.CreateParams{
				Amount:      100,
				Description: "Coffee",
				Category:    "food",
				Type:        transaction.Type("transfer"),
			},
			wantErr: transaction.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := transaction.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := transaction.NewService(repo)
			got, err := svc.Insert(context.Background(), tt.params)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, int64(42), got.ID)
			assert.Equal(t, tt.params.Amount, got.Amount)
		})
	}
}

func TestService_Insert_DefaultsDate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	repo.EXPECT().
		Insert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
			tx.ID = 1
			return nil
		})

	svc := transaction.NewService(repo)

	before := time.Now()
	got, err := svc.Insert(context.Background(), transaction.CreateParams{
		Amount:      100,
		Description: "Coffee",
		Category:    "food",
		Type:        transaction.TypeExpense,
	})

	require.NoError(t, err)
	assert.False(t, got.Date.Before(before))
}

func TestService_Aggregate_RequiresAggregations(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := transaction.NewService(transaction.NewMockRepository(ctrl))

	_, err := svc.Aggregate(context.Background(), transaction.QuerySpec{})
	assert.ErrorIs(t, err, transaction.ErrValidation)
}

func TestService_ExecuteRaw(t *testing.T) {
	type testCase struct {
		name      string
		query     string
		wantQuery string
		wantErr   bool
	}

	tests := []testCase{
		{
			name:      "Select",
			query:     "SELECT * FROM transactions",
			wantQuery: "SELECT * FROM transactions",
		},
		{
			name:      "TrailingSemicolon",
			query:     "SELECT id FROM transactions;",
			wantQuery: "SELECT id FROM transactions",
		},
		{
			name:      "LowercaseSelect",
			query:     "select sum(amount) from transactions",
			wantQuery: "select sum(amount) from transactions",
		},
		{
			name:      "CTE",
			query:     "WITH t AS (SELECT * FROM transactions) SELECT * FROM t",
			wantQuery: "WITH t AS (SELECT * FROM transactions) SELECT * FROM t",
		},
		{
			name:    "Drop",
			query:   "DROP TABLE transactions",
			wantErr: true,
		},
		{
			name:    "Update",
			query:   "UPDATE transactions SET amount = 0",
			wantErr: true,
		},
		{
			name:    "MultipleStatements",
			query:   "SELECT 1; DELETE FROM transactions",
			wantErr: true,
		},
		{
			name:    "Empty",
			query:   "  ;  ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := transaction.NewMockRepository(ctrl)
			if !tt.wantErr {
				repo.EXPECT().
					ExecuteRaw(gomock.Any(), tt.wantQuery).
					Return([]map[string]any{{"ok": true}}, nil)
			}

			svc := transaction.NewService(repo)
			rows, err := svc.ExecuteRaw(context.Background(), tt.query)

			if tt.wantErr {
				assert.ErrorIs(t, err, transaction.ErrUnsafeQuery)
				assert.Nil(t, rows)

				return
			}

			require.NoError(t, err)
			assert.Len(t, rows, 1)
		})
	}
}

func TestService_Query_PassesRepoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := transaction.NewMockRepository(ctrl)
	repo.EXPECT().
		Query(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("db error"))

	svc := transaction.NewService(repo)

	_, err := svc.Query(context.Background(), transaction.QuerySpec{})
	assert.Error(t, err)
}
