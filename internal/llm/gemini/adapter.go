package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/nulzo/cost-report/internal/config"
	"github.com/nulzo/cost-report/internal/llm"
	"github.com/nulzo/cost-report/pkg/api"
	"google.golang.org/genai"
)

const defaultModel = "gemini-2.0-flash"

func init() {
	llm.Register(string(llm.Gemini), NewAdapter)
}

// Adapter wraps the official genai client. The client is built on first use
// so a missing key surfaces per request, like every other backend.
type Adapter struct {
	config config.LLMConfig

	once sync.Once
	cli  *genai.Client
	err  error
}

func NewAdapter(cfg config.LLMConfig) (llm.Client, error) {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	return &Adapter{config: cfg}, nil
}

func (a *Adapter) Name() string { return "gemini:" + a.config.Model }

func (a *Adapter) client(ctx context.Context) (*genai.Client, error) {
	a.once.Do(func() {
		cc := &genai.ClientConfig{
			APIKey:     a.config.APIKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: &http.Client{Timeout: a.config.Timeout},
		}
		if a.config.BaseURL != "" {
			cc.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(a.config.BaseURL, "/") + "/"}
		}
		a.cli, a.err = genai.NewClient(ctx, cc)
	})
	return a.cli, a.err
}

func (a *Adapter) Complete(ctx context.Context, req *llm.Request) (string, error) {
	if strings.TrimSpace(a.config.APIKey) == "" {
		return "", llm.ErrMissingAPIKey
	}

	cli, err := a.client(ctx)
	if err != nil {
		return "", api.InternalError("Failed to initialise the report model client", err)
	}

	model := req.Model
	if model == "" {
		model = a.config.Model
	}

	gc := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.System != "" {
		gc.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if req.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := cli.Models.GenerateContent(ctx, model,
		[]*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: req.Prompt}}}},
		gc,
	)
	if err != nil {
		return "", handleUpstreamError(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", api.UpstreamError(http.StatusBadGateway, llm.GenericFailure,
			api.WithLog(errors.New("gemini returned no candidates")))
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

func handleUpstreamError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = llm.GenericFailure
		}
		return api.UpstreamError(apiErr.Code, message,
			api.WithExtension("upstream_status", apiErr.Status),
			api.WithLog(err),
		)
	}

	return api.UpstreamError(http.StatusBadGateway, llm.GenericFailure, api.WithLog(err))
}
