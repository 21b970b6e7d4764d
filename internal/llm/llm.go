package llm

import (
	"context"
	"errors"
)

type ProviderName string

const (
	OpenAI ProviderName = "openai"
	Gemini ProviderName = "gemini"
)

// GenericFailure is reported when an upstream call fails without a usable message.
const GenericFailure = "Error generating report. Please check API key or try again."

// ErrMissingAPIKey is returned by Complete when no credential is configured.
// Clients check it before opening any connection.
var ErrMissingAPIKey = errors.New("llm: api key is not configured")

// Request is a single system+user prompt exchange.
type Request struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Client is a chat-completion backend that returns the assistant's text.
type Client interface {
	Name() string
	Complete(ctx context.Context, req *Request) (string, error)
}
