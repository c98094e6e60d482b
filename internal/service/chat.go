package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Volatile-Viv/Try-Karo/internal/llm"
	apperrors "github.com/Volatile-Viv/Try-Karo/pkg/errors"
	"github.com/Volatile-Viv/Try-Karo/pkg/httpclient"
)

// SenderUser marks a chat turn written by the visitor. Any other sender is
// treated as the assistant.
const SenderUser = "user"

// SenderAgent is the sender reported on assistant replies.
const SenderAgent = "agent"

const systemPrompt = `You are a helpful assistant for the "Try Karo" website, a product testing and review platform. Your primary purpose is to answer questions related to the website, its features, products, services, and how to use them.

ABOUT TRY KARO:
Try Karo connects brands with people who want to test and review their products. Testers browse available products, try them and write reviews. Brands list products for testing, track reviews and gain feedback.

WEBSITE FEATURES:
- Product browsing by category
- Filtering by category and status
- Product search
- User accounts: register, login and manage a profile
- Cart for products to test
- Reviews: write and read product reviews
- Brand dashboard: manage products, read reviews and view reviewer insights

USER ROLES:
- Testers browse products, test them and write reviews
- Brands add products for testing and view feedback
- Admins manage the platform

RULES:
1. Only answer questions about Try Karo, its content, features, navigation, products or services.
2. If a question is unrelated to the website, politely explain that you can only help with website-related queries and suggest browsing the site.
3. Be friendly, concise and helpful.
4. Do not provide information about other topics, even if the user insists.
5. Do not engage in political discussions, give medical advice or assist with illegal activities.
6. Keep answers short.`

// ChatTurn is one message of the client-side conversation history.
type ChatTurn struct {
	Sender string
	Text   string
}

// ChatService relays visitor questions to the language model behind a fixed
// scope-limiting system prompt.
type ChatService struct {
	provider llm.Provider
	logger   *slog.Logger
}

// NewChatService creates a new chat service.
func NewChatService(provider llm.Provider, logger *slog.Logger) *ChatService {
	return &ChatService{provider: provider, logger: logger}
}

// Reply asks the model for the next answer given the history and the new
// message. Either may be empty, not both.
func (s *ChatService) Reply(ctx context.Context, message string, history []ChatTurn) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" && len(history) == 0 {
		return "", apperrors.InvalidInput("Message is required")
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	for _, turn := range history {
		role := llm.RoleAssistant
		if turn.Sender == SenderUser {
			role = llm.RoleUser
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Text})
	}
	if message != "" {
		messages = append(messages, llm.Message{Role: llm.RoleUser, Content: message})
	}

	text, err := s.provider.Complete(ctx, messages)
	if err != nil {
		attrs := append([]any{slog.Int("history", len(history))}, httpclient.ErrorAttrs(err)...)
		s.logger.ErrorContext(ctx, "chat completion failed", attrs...)
		return "", apperrors.Upstream("Failed to get response from AI", err)
	}

	return text, nil
}
