// Package agent is the conversation orchestrator: it hands the user's message
// to the language model together with the transaction tools, executes the tool
// calls the model asks for, and returns the model's final synthesis.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nmoreau/penny/internal/llm"
	"github.com/nmoreau/penny/internal/nlquery"
	"github.com/nmoreau/penny/internal/transaction"
)

// maxToolRounds bounds the function-calling loop so a confused model cannot
// spin forever.
const maxToolRounds = 4

//go:generate mockgen -source=agent.go -destination=model_mock.go -package=agent
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
	Stream(ctx context.Context, req llm.Request) <-chan llm.Chunk
}

// Message is one prior turn of the conversation, passed through from the
// caller unmodified. Role is "user" or "assistant"/"model".
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Agent holds no state between calls beyond its collaborators; concurrent
// conversations are independent.
type Agent struct {
	model        Model
	transactions *transaction.Service
	sqlgen       *nlquery.SQLGenerator
}

func New(model Model, transactions *transaction.Service) *Agent {
	return &Agent{
		model:        model,
		transactions: transactions,
		sqlgen:       nlquery.NewSQLGenerator(model),
	}
}

// Chat processes one user message against the prior history and returns a
// natural-language reply. Tool failures become part of the reply, never a
// returned error; the conversation survives anything the tools do.
func (a *Agent) Chat(ctx context.Context, message string, history []Message) (string, error) {
	sys := systemPrompt(time.Now())
	contents := seed(message, history)

	for round := 0; round < maxToolRounds; round++ {
		resp, err := a.model.Complete(ctx, llm.Request{
			System:   sys,
			Contents: contents,
			Tools:    toolDefs(),
		})
		if err != nil {
			slog.Error("model call failed", "error", err)
			return fmt.Sprintf("Error processing your request: %v", err), nil
		}

		if len(resp.Calls) == 0 {
			return resp.Text, nil
		}

		contents = append(contents, llm.Content{
			Role:  llm.RoleModel,
			Text:  resp.Text,
			Calls: resp.Calls,
		})

		results := make([]llm.ToolResult, 0, len(resp.Calls))
		for _, call := range resp.Calls {
			results = append(results, llm.ToolResult{
				Call:   call,
				Output: a.dispatch(ctx, call),
			})
		}

		contents = append(contents, llm.Content{Role: llm.RoleUser, Results: results})
	}

	return "Error processing your request: the model kept requesting tools without answering", nil
}

// StreamEvent is one item on a ChatStream channel: a content chunk, a
// terminal Done marker, or an Err message. Err and Done are both terminal;
// the channel never closes without one of them.
type StreamEvent struct {
	Content string
	Err     string
	Done    bool
}

// ChatStream is the streaming variant of Chat. Tool selection and execution
// run as a single non-streamed round; the final synthesis over the tool
// results is streamed chunk by chunk. The channel closes once ctx is
// canceled, so an abandoned consumer never strands the producer.
func (a *Agent) ChatStream(ctx context.Context, message string, history []Message) <-chan StreamEvent {
	out := make(chan StreamEvent, 1)

	go func() {
		defer close(out)

		sys := systemPrompt(time.Now())
		contents := seed(message, history)

		resp, err := a.model.Complete(ctx, llm.Request{
			System:   sys,
			Contents: contents,
			Tools:    toolDefs(),
		})
		if err != nil {
			emit(ctx, out, StreamEvent{Err: fmt.Sprintf("Error processing your request: %v", err)})
			return
		}

		if len(resp.Calls) == 0 {
			if resp.Text != "" {
				if !emit(ctx, out, StreamEvent{Content: resp.Text}) {
					return
				}
			}

			emit(ctx, out, StreamEvent{Done: true})

			return
		}

		contents = append(contents, llm.Content{
			Role:  llm.RoleModel,
			Text:  resp.Text,
			Calls: resp.Calls,
		})

		results := make([]llm.ToolResult, 0, len(resp.Calls))
		for _, call := range resp.Calls {
			results = append(results, llm.ToolResult{
				Call:   call,
				Output: a.dispatch(ctx, call),
			})
		}

		contents = append(contents, llm.Content{Role: llm.RoleUser, Results: results})

		for chunk := range a.model.Stream(ctx, llm.Request{System: sys, Contents: contents}) {
			if chunk.Err != nil {
				emit(ctx, out, StreamEvent{Err: fmt.Sprintf("Error processing your request: %v", chunk.Err)})
				return
			}

			if chunk.Text != "" {
				if !emit(ctx, out, StreamEvent{Content: chunk.Text}) {
					return
				}
			}
		}

		emit(ctx, out, StreamEvent{Done: true})
	}()

	return out
}

// emit delivers ev unless ctx is already canceled, or cancels while the send
// is blocked on a consumer that stopped draining. Returns false once ctx is
// done; the producer must stop then.
func emit(ctx context.Context, out chan<- StreamEvent, ev StreamEvent) bool {
	select {
	case <-ctx.Done():
		return false
	default:
	}

	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func seed(message string, history []Message) []llm.Content {
	contents := make([]llm.Content, 0, len(history)+1)

	for _, m := range history {
		contents = append(contents, llm.Content{Role: m.Role, Text: m.Content})
	}

	return append(contents, llm.Content{Role: llm.RoleUser, Text: message})
}
