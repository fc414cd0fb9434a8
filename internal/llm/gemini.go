package llm

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

// Client talks to the Gemini API. Construct one at process start and share
// it; it is safe for concurrent use.
type Client struct {
	client *genai.Client
	model  string
}

func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &Client{client: c, model: model}, nil
}

// Generate runs a single prompt with no tools and returns the text response.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}

	return text, nil
}

// Complete runs one round of the conversation and returns the model's text
// and any tool calls it issued.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	contents, config := convert(req)

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	out := &Response{Text: resp.Text()}

	for _, fc := range resp.FunctionCalls() {
		id := fc.ID
		if id == "" {
			id = uuid.NewString()
		}

		out.Calls = append(out.Calls, ToolCall{ID: id, Name: fc.Name, Args: fc.Args})
	}

	return out, nil
}

// Stream runs the request and emits response text incrementally. The channel
// closes when the stream ends or ctx is canceled; a Chunk with Err set is
// terminal.
func (c *Client) Stream(ctx context.Context, req Request) <-chan Chunk {
	contents, config := convert(req)

	out := make(chan Chunk)

	go func() {
		defer close(out)

		for resp, err := range c.client.Models.GenerateContentStream(ctx, c.model, contents, config) {
			if err != nil {
				select {
				case out <- Chunk{Err: fmt.Errorf("stream content: %w", err)}:
				case <-ctx.Done():
				}

				return
			}

			if text := resp.Text(); text != "" {
				select {
				case out <- Chunk{Text: text}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

func convert(req Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	var contents []*genai.Content

	for _, c := range req.Contents {
		gc := &genai.Content{Role: normalizeRole(c.Role)}

		if c.Text != "" {
			gc.Parts = append(gc.Parts, &genai.Part{Text: c.Text})
		}

		for _, call := range c.Calls {
			gc.Parts = append(gc.Parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{ID: call.ID, Name: call.Name, Args: call.Args},
			})
		}

		for _, r := range c.Results {
			gc.Parts = append(gc.Parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       r.Call.ID,
					Name:     r.Call.Name,
					Response: map[string]any{"output": r.Output},
				},
			})
		}

		if len(gc.Parts) == 0 {
			continue
		}

		contents = append(contents, gc)
	}

	config := &genai.GenerateContentConfig{}

	if req.System != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}

	if len(req.Tools) > 0 {
		var decls []*genai.FunctionDeclaration

		for _, t := range req.Tools {
			decls = append(decls, declaration(t))
		}

		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	return contents, config
}

func declaration(t Tool) *genai.FunctionDeclaration {
	props := make(map[string]*genai.Schema, len(t.Params))

	for name, p := range t.Params {
		s := &genai.Schema{Type: schemaType(p.Type), Description: p.Description}
		if len(p.Enum) > 0 {
			s.Enum = p.Enum
		}

		props[name] = s
	}

	return &genai.FunctionDeclaration{
		Name:        t.Name,
		Description: t.Description,
		Parameters: &genai.Schema{
			Type:       genai.TypeObject,
			Properties: props,
			Required:   t.Required,
		},
	}
}

func schemaType(t string) genai.Type {
	switch t {
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

func normalizeRole(r string) string {
	if r == RoleModel || r == "assistant" {
		return RoleModel
	}

	return RoleUser
}
