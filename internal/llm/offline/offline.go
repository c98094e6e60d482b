// Package offline answers chat requests without calling a model. It is
// selected when no LLM API key is configured.
package offline

import (
	"context"

	"github.com/Volatile-Viv/Try-Karo/internal/llm"
)

// Response is returned for every conversation.
const Response = "This is a test response. I can only answer questions related to this website. " +
	"Please set GROQ_API_KEY in your .env file to enable real AI responses."

// Provider returns the canned Response.
type Provider struct{}

// New creates an offline provider.
func New() *Provider { return &Provider{} }

// Complete implements llm.Provider.
func (*Provider) Complete(context.Context, []llm.Message) (string, error) {
	return Response, nil
}
