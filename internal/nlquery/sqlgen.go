package nlquery

import (
	"context"
	"fmt"
	"strings"
)

// TextGenerator is the single-prompt completion surface the SQL generator
// needs from the language model.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// SQLGenerator asks the model to translate an utterance into a single SELECT
// statement over the transactions table. Its output is untrusted and must go
// through the read-only check in the transaction service.
type SQLGenerator struct {
	model TextGenerator
}

func NewSQLGenerator(model TextGenerator) *SQLGenerator {
	return &SQLGenerator{model: model}
}

const schemaDescription = `The transactions table has these columns:
- id (BIGSERIAL PRIMARY KEY)
- amount (BIGINT, stored in cents)
- description (TEXT)
- category (TEXT)
- type (TEXT, either 'expense' or 'income')
- date (TIMESTAMP WITH TIME ZONE)
- created_at (TIMESTAMP WITH TIME ZONE)
- updated_at (TIMESTAMP WITH TIME ZONE)

Important notes:
- Amount is stored in cents, so $10.50 is stored as 1050
- Use amount/100.0 to convert cents to dollars for display
- Types are: expense, income`

func sqlPrompt(utterance string) string {
	return fmt.Sprintf(`Translate this natural language query to SQL: %q

%s

Return ONLY the raw SQL query as a plain string. It must be a single SELECT
statement. Do not use markdown formatting, code blocks, or any other
formatting. Just the SQL query itself.`, utterance, schemaDescription)
}

// Generate returns a cleaned SQL string for the utterance.
func (g *SQLGenerator) Generate(ctx context.Context, utterance string) (string, error) {
	raw, err := g.model.Generate(ctx, sqlPrompt(utterance))
	if err != nil {
		return "", fmt.Errorf("generating query: %w", err)
	}

	sqlText := CleanSQL(raw)
	if sqlText == "" {
		return "", fmt.Errorf("model returned no query")
	}

	return sqlText, nil
}

// CleanSQL strips the decorative formatting models add despite instructions:
// markdown fences, a leading language tag, and a trailing semicolon.
func CleanSQL(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}

		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "sql\n")
	s = strings.TrimSuffix(s, ";")

	return strings.TrimSpace(s)
}
