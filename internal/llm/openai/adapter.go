package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nulzo/cost-report/internal/config"
	"github.com/nulzo/cost-report/internal/httpclient"
	"github.com/nulzo/cost-report/internal/llm"
	"github.com/nulzo/cost-report/pkg/api"
	"github.com/tidwall/gjson"
)

func init() {
	llm.Register(string(llm.OpenAI), NewAdapter)
}

// Adapter talks to any OpenAI-compatible chat-completions endpoint (x.ai included).
type Adapter struct {
	config config.LLMConfig
	client httpclient.HTTPClient
}

func NewAdapter(cfg config.LLMConfig) (llm.Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	return &Adapter{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (a *Adapter) Name() string { return string(llm.OpenAI) }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// temperature is always sent; zero is a meaningful value here.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

func (a *Adapter) Complete(ctx context.Context, req *llm.Request) (string, error) {
	if strings.TrimSpace(a.config.APIKey) == "" {
		return "", llm.ErrMissingAPIKey
	}

	model := req.Model
	if model == "" {
		model = a.config.Model
	}

	body := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	headers := map[string]string{
		"Authorization": "Bearer " + a.config.APIKey,
	}
	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(a.config.BaseURL, "/"))

	var raw []byte
	if err := httpclient.SendRequest(ctx, a.client, http.MethodPost, url, headers, body, &raw); err != nil {
		return "", a.handleUpstreamError(err)
	}

	content := gjson.GetBytes(raw, "choices.0.message.content")
	if !content.Exists() {
		return "", api.UpstreamError(http.StatusBadGateway, llm.GenericFailure,
			api.WithLog(fmt.Errorf("chat completion without choices: %s", truncate(raw))))
	}
	return content.String(), nil
}

// handleUpstreamError keeps the upstream status and, when the body carries
// one, the upstream message. Transport failures become a generic 502.
func (a *Adapter) handleUpstreamError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var upstreamErr *httpclient.UpstreamError
	if !errors.As(err, &upstreamErr) {
		return api.UpstreamError(http.StatusBadGateway, llm.GenericFailure, api.WithLog(err))
	}

	message := gjson.GetBytes(upstreamErr.Body, "error.message").String()
	if message == "" {
		// some compatible servers answer {"error": "..."}
		if e := gjson.GetBytes(upstreamErr.Body, "error"); e.Type == gjson.String {
			message = e.String()
		}
	}
	if message == "" {
		message = llm.GenericFailure
	}

	opts := []api.ProblemOption{api.WithLog(err)}
	if code := gjson.GetBytes(upstreamErr.Body, "error.code"); code.Exists() {
		opts = append(opts, api.WithExtension("upstream_code", code.Value()))
	}
	if typ := gjson.GetBytes(upstreamErr.Body, "error.type"); typ.Exists() {
		opts = append(opts, api.WithExtension("upstream_type", typ.String()))
	}

	return api.UpstreamError(upstreamErr.StatusCode, message, opts...)
}

func truncate(b []byte) string {
	if len(b) > 256 {
		return string(b[:256]) + "..."
	}
	return string(b)
}
