package store

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/plextuner/ledshowd/internal/httpclient"
)

// Ping health-checks the HTTP service at baseURL by requesting its /healthz
// endpoint; cmd/ledshowd calls it once against the daemon's own web surface.
// It is the one place this package talks HTTP rather than SQL, so it reuses
// the teacher's retry/backoff client instead of a bare http.Get.
func Ping(ctx context.Context, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("store: build ping request: %w", err)
	}

	resp, err := httpclient.DoWithRetry(ctx, httpclient.Default(), req, httpclient.RetryPolicy{MaxRetries: 2, Retry5xx: true, Backoff5xx: 500 * time.Millisecond})
	if err != nil {
		return fmt.Errorf("store: ping %s: %w", baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("store: ping %s: status %d", baseURL, resp.StatusCode)
	}
	return nil
}
