package version

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func releaseServer(t *testing.T, tag string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"tag_name":"` + tag + `"}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestLatest(t *testing.T) {
	server := releaseServer(t, "v1.4.0")

	latest, outdated, err := Latest(context.Background(), server.URL, "v1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "v1.4.0", latest)
	assert.True(t, outdated)

	_, outdated, err = Latest(context.Background(), server.URL, "v1.4.0")
	require.NoError(t, err)
	assert.False(t, outdated)
}

func TestLatest_BadTag(t *testing.T) {
	server := releaseServer(t, "nightly")

	_, _, err := Latest(context.Background(), server.URL, "v1.0.0")
	assert.Error(t, err)
}

func TestCheckForUpdates_LogsWarning(t *testing.T) {
	server := releaseServer(t, "v2.0.0")
	core, logs := observer.New(zap.DebugLevel)

	CheckForUpdates(context.Background(), server.URL, "v1.0.0", zap.New(core))

	require.Equal(t, 1, logs.FilterMessage("A newer release is available").Len())
}

func TestCheckForUpdates_Disabled(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	CheckForUpdates(context.Background(), "", "v1.0.0", zap.New(core))
	assert.Zero(t, logs.Len())
}
