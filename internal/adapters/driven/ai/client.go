package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/theopenlane/httpsling"

	"github.com/custodia-labs/policylens/internal/core/domain"
)

// defaultRequestTimeout bounds one completion call
const defaultRequestTimeout = 90 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultRequestTimeout}
}

// receive executes the request, decodes the body into out and maps the status.
// 429 wraps domain.ErrRateLimited regardless of whether the body decoded.
func receive(ctx context.Context, provider string, requester *httpsling.Requester, out any) error {
	resp, err := requester.ReceiveWithContext(ctx, out)
	status := 0
	if resp != nil {
		defer resp.Body.Close() //nolint:errcheck // response body close error is non-critical
		status = resp.StatusCode
	}

	if status == http.StatusTooManyRequests {
		return fmt.Errorf("%s: %w", provider, domain.ErrRateLimited)
	}
	if err != nil {
		return fmt.Errorf("%s request failed: %w", provider, err)
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("%s API returned status %d", provider, status)
	}
	return nil
}

// apiError is the error envelope shared by the OpenAI and Anthropic APIs
type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
