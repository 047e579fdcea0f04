package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/eccnrag/internal/domain"
	"github.com/kailas-cloud/eccnrag/internal/retry"
)

// parseAPIError extracts a human-readable error from the API response and wraps it with wrap,
// so the HTTP layer maps it to 502. 429 additionally carries domain.ErrRateLimited and the
// server's wait hint. Other 4xx responses are marked permanent: repeating them cannot succeed.
func parseAPIError(kind string, err error, wrap error, wait time.Duration) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return classify(reqErr.HTTPStatusCode, wait,
			fmt.Errorf("%s API error %d: %s: %w", kind, reqErr.HTTPStatusCode, detail, wrap))
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classify(apiErr.HTTPStatusCode, wait,
			fmt.Errorf("%s API error %d: %s: %w", kind, apiErr.HTTPStatusCode, apiErr.Message, wrap))
	}

	return fmt.Errorf("%s request failed: %w: %w", kind, wrap, err)
}

func classify(status int, wait time.Duration, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return retry.WithRetryAfter(fmt.Errorf("%w: %w", domain.ErrRateLimited, err), wait)
	case status >= 400 && status < 500:
		return retry.Permanent(err)
	default:
		return err
	}
}

// errorType is the metrics label for a failed call.
func errorType(err error) string {
	var reqErr *openai.RequestError
	var apiErr *openai.APIError
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.As(err, &reqErr), errors.As(err, &apiErr):
		return "api_error"
	default:
		return "transport_error"
	}
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
