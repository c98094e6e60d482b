package llm

import "context"

// Chat roles understood by OpenAI-compatible completion APIs.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider completes a conversation with the next assistant reply.
type Provider interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}
