package version

import (
	"context"
	"fmt"
	"net/http"
	"time"

	goversion "github.com/hashicorp/go-version"
	"github.com/nulzo/cost-report/internal/httpclient"
	"go.uber.org/zap"
)

// AppVersion is overridden at build time with -ldflags "-X ...AppVersion=v1.2.3".
var AppVersion = "v0.0.0"

type release struct {
	TagName string `json:"tag_name"`
}

// Latest fetches the newest release tag from a GitHub-style releases/latest URL
// and reports whether it is newer than current.
func Latest(ctx context.Context, url, current string) (string, bool, error) {
	client := &http.Client{Timeout: 2 * time.Second}

	var rel release
	if err := httpclient.SendRequest(ctx, client, http.MethodGet, url, nil, nil, &rel); err != nil {
		return "", false, err
	}

	cur, err := goversion.NewVersion(current)
	if err != nil {
		return "", false, fmt.Errorf("parse current version %q: %w", current, err)
	}
	latest, err := goversion.NewVersion(rel.TagName)
	if err != nil {
		return "", false, fmt.Errorf("parse release tag %q: %w", rel.TagName, err)
	}

	return rel.TagName, cur.LessThan(latest), nil
}

// CheckForUpdates logs a warning when a newer release exists. An empty url
// disables the check; failures are only logged at debug.
func CheckForUpdates(ctx context.Context, url, current string, logger *zap.Logger) {
	if url == "" {
		return
	}
	if current == "" {
		current = AppVersion
	}

	latest, outdated, err := Latest(ctx, url, current)
	if err != nil {
		logger.Debug("Update check failed", zap.Error(err))
		return
	}
	if outdated {
		logger.Warn("A newer release is available",
			zap.String("current", current),
			zap.String("latest", latest),
		)
	}
}
