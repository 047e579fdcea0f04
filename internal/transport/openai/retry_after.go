package openai

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// go-openai errors drop response headers, so the Retry-After of a 429 is captured
// by the HTTP client into a per-request slot carried on the context.

type retryHintKey struct{}

type retryHint struct {
	wait time.Duration
}

func withRetryHint(ctx context.Context) (context.Context, *retryHint) {
	h := &retryHint{}
	return context.WithValue(ctx, retryHintKey{}, h), h
}

// hintRecorder records Retry-After on 429 responses for requests that carry a slot.
type hintRecorder struct {
	next openai.HTTPDoer
	now  func() time.Time
}

func (r hintRecorder) Do(req *http.Request) (*http.Response, error) {
	resp, err := r.next.Do(req)
	if err != nil || resp.StatusCode != http.StatusTooManyRequests {
		return resp, err //nolint:wrapcheck // transparent transport
	}
	if h, ok := req.Context().Value(retryHintKey{}).(*retryHint); ok {
		h.wait = parseRetryAfter(resp.Header.Get("Retry-After"), r.now())
	}
	return resp, nil
}

// parseRetryAfter reads delay-seconds or an HTTP date. Unusable values yield zero.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
