package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nmoreau/penny/internal/currency"
	"github.com/nmoreau/penny/internal/llm"
	"github.com/nmoreau/penny/internal/nlquery"
	"github.com/nmoreau/penny/internal/transaction"
)

const (
	toolInsert  = "insert_transaction"
	toolQuery   = "query_transactions"
	toolExtract = "extract_transaction"
)

var toolInvocations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "penny_agent_tool_invocations_total",
		Help: "Tool calls dispatched by the conversation agent",
	},
	[]string{"tool"},
)

func init() {
	prometheus.MustRegister(toolInvocations)
}

func toolDefs() []llm.Tool {
	return []llm.Tool{
		{
			Name:        toolInsert,
			Description: "Insert a new transaction into the database.",
			Params: map[string]llm.Param{
				"amount":      {Type: "number", Description: "Transaction amount in dollars, e.g. 10.50"},
				"description": {Type: "string", Description: "What the transaction was for"},
				"category":    {Type: "string", Description: "Transaction category", Enum: transaction.Categories},
				"type":        {Type: "string", Description: "Transaction type", Enum: []string{"expense", "income"}},
				"date":        {Type: "string", Description: "Transaction date in YYYY-MM-DD format; omit for today"},
			},
			Required: []string{"amount", "description", "category", "type"},
		},
		{
			Name:        toolQuery,
			Description: "Query transactions using natural language.",
			Params: map[string]llm.Param{
				"query": {Type: "string", Description: "The user's question about their transactions"},
			},
			Required: []string{"query"},
		},
		{
			Name:        toolExtract,
			Description: "Extract transaction details from natural language text.",
			Params: map[string]llm.Param{
				"text": {Type: "string", Description: "Text to extract transaction details from"},
			},
			Required: []string{"text"},
		},
	}
}

// dispatch executes one tool call and returns its user-facing string result.
// Failures come back as text for the model to relay; they never propagate.
func (a *Agent) dispatch(ctx context.Context, call llm.ToolCall) string {
	slog.Debug("invoking tool", "tool", call.Name, "call_id", call.ID)
	toolInvocations.WithLabelValues(call.Name).Inc()

	switch call.Name {
	case toolInsert:
		return a.insertTool(ctx, call.Args)
	case toolQuery:
		return a.queryTool(ctx, call.Args)
	case toolExtract:
		return a.extractTool(ctx, call.Args)
	}

	return fmt.Sprintf("Error: unknown tool %q", call.Name)
}

func (a *Agent) insertTool(ctx context.Context, args map[string]any) string {
	cents, err := amountCents(args["amount"])
	if err != nil {
		return fmt.Sprintf("Error inserting transaction: %v", err)
	}

	if err := currency.Validate(cents); err != nil {
		return fmt.Sprintf("Error inserting transaction: %v", err)
	}

	description, _ := args["description"].(string)
	category, _ := args["category"].(string)
	txType, _ := args["type"].(string)

	var date time.Time

	if ds, ok := args["date"].(string); ok && ds != "" {
		date, err = time.Parse("2006-01-02", ds)
		if err != nil {
			return fmt.Sprintf("Error inserting transaction: invalid date %q, expected YYYY-MM-DD", ds)
		}
	}

	tx, err := a.transactions.Insert(ctx, transaction.CreateParams{
		Amount:      cents,
		Description: description,
		Category:    category,
		Type:        transaction.Type(txType),
		Date:        date,
	})
	if err != nil {
		return fmt.Sprintf("Error inserting transaction: %v", err)
	}

	return fmt.Sprintf("Successfully recorded %s of %s for %s in category '%s'. Transaction ID: %d",
		tx.Type, currency.Format(tx.Amount), tx.Description, tx.Category, tx.ID)
}

func (a *Agent) queryTool(ctx context.Context, args map[string]any) string {
	q, _ := args["query"].(string)
	if strings.TrimSpace(q) == "" {
		return "Error querying transactions: query is required"
	}

	spec := nlquery.Interpret(q)

	// No keyword matched anything; fall back to model-generated SQL.
	if spec.Empty() {
		return a.rawQuery(ctx, q)
	}

	if len(spec.Aggregations) > 0 {
		res, err := a.transactions.Aggregate(ctx, spec)
		if err != nil {
			return fmt.Sprintf("Error querying transactions: %v", err)
		}

		return formatAggregate(res)
	}

	txs, err := a.transactions.Query(ctx, spec)
	if err != nil {
		return fmt.Sprintf("Error querying transactions: %v", err)
	}

	return formatTransactions(txs)
}

func (a *Agent) rawQuery(ctx context.Context, q string) string {
	sqlText, err := a.sqlgen.Generate(ctx, q)
	if err != nil {
		return fmt.Sprintf("Error querying transactions: %v", err)
	}

	slog.Debug("generated query", "sql", sqlText)

	rows, err := a.transactions.ExecuteRaw(ctx, sqlText)
	if err != nil {
		return fmt.Sprintf("Error querying transactions: %v", err)
	}

	return formatRows(rows)
}

func (a *Agent) extractTool(ctx context.Context, args map[string]any) string {
	text, _ := args["text"].(string)
	if strings.TrimSpace(text) == "" {
		return "Error extracting transaction: text is required"
	}

	raw, err := a.model.Generate(ctx, extractionPrompt(text))
	if err != nil {
		return fmt.Sprintf("Error extracting transaction: %v", err)
	}

	clean := llm.StripFences(raw)

	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")

	if start == -1 || end <= start {
		return fmt.Sprintf("Could not extract transaction details from: %s", text)
	}

	var details struct {
		Amount      float64 `json:"amount"`
		Description string  `json:"description"`
		Category    string  `json:"category"`
		Type        string  `json:"type"`
	}

	if err := json.Unmarshal([]byte(clean[start:end+1]), &details); err != nil {
		return fmt.Sprintf("Could not extract transaction details from: %s", text)
	}

	pretty, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error extracting transaction: %v", err)
	}

	return fmt.Sprintf("Extracted transaction: %s", pretty)
}

// amountCents accepts the amount however the model chose to send it.
func amountCents(v any) (int64, error) {
	switch x := v.(type) {
	case float64:
		return currency.FromFloat(x), nil
	case string:
		return currency.ParseCents(x)
	case nil:
		return 0, fmt.Errorf("amount is required")
	default:
		return 0, fmt.Errorf("unexpected amount type %T", v)
	}
}
