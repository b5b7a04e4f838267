// Package llm defines the language model provider interface used by the
// categorization endpoint, and an Anthropic Messages API implementation.
package llm

import "context"

// RoleUser is the Message.Role of a user turn.
const RoleUser = "user"

// StopReason describes why the model stopped generating.
const (
	StopReasonEndTurn   = "end_turn"
	StopReasonMaxTokens = "max_tokens"
)

// Message is a single turn in the conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the input to a provider's Complete() call.
type CompletionRequest struct {
	Messages     []Message
	SystemPrompt string
	MaxTokens    int      // 0 = provider default
	Temperature  *float64 // nil = provider default
	Model        string   // override provider default if set
}

// CompletionResponse is returned by Complete().
type CompletionResponse struct {
	Text         string
	StopReason   string
	Model        string
	InputTokens  int
	OutputTokens int
}

// LLMProvider is the core abstraction for language model backends.
type LLMProvider interface {
	// Complete sends a completion request and waits for the full response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// ModelID returns the current model identifier string.
	ModelID() string
}

// UserMessage builds a single user turn.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}
