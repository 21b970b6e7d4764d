package llm

import (
	"context"
	"testing"

	"github.com/nulzo/cost-report/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoClient struct{ model string }

func (e *echoClient) Name() string { return "echo" }
func (e *echoClient) Complete(_ context.Context, req *Request) (string, error) {
	return e.model + ":" + req.Prompt, nil
}

func TestRegisterAndNew(t *testing.T) {
	Register("echo-test", func(cfg config.LLMConfig) (Client, error) {
		return &echoClient{model: cfg.Model}, nil
	})

	c, err := New(config.LLMConfig{Provider: "echo-test", Model: "m"})
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), &Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "m:hi", out)

	assert.Panics(t, func() {
		Register("echo-test", func(config.LLMConfig) (Client, error) { return nil, nil })
	})
}

func TestNew_Unknown(t *testing.T) {
	_, err := New(config.LLMConfig{Provider: "nope"})
	assert.Error(t, err)
}
