// Package llm wraps the Gemini API behind small request/response types so the
// rest of the codebase never touches the SDK directly.
package llm

import "strings"

// Roles in a conversation. Incoming chat history may also use "assistant",
// which is normalized to RoleModel.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Content is one turn of a conversation: text, tool calls the model issued,
// or results being fed back for synthesis.
type Content struct {
	Role    string
	Text    string
	Calls   []ToolCall
	Results []ToolResult
}

// Param describes one tool parameter. Type is a JSON schema type name
// (string, number, integer, boolean).
type Param struct {
	Type        string
	Description string
	Enum        []string
}

// Tool declares a function the model may call.
type Tool struct {
	Name        string
	Description string
	Params      map[string]Param
	Required    []string
}

// ToolCall is the model's structured request to invoke a named tool.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolResult carries a tool's string output back to the model.
type ToolResult struct {
	Call   ToolCall
	Output string
}

type Request struct {
	System   string
	Contents []Content
	Tools    []Tool
}

type Response struct {
	Text  string
	Calls []ToolCall
}

// Chunk is one streamed piece of a response. A non-nil Err terminates the
// stream.
type Chunk struct {
	Text string
	Err  error
}

// StripFences removes a markdown code fence wrapper if the model added one.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	return strings.TrimSpace(s)
}
