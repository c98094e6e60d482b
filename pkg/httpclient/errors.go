package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// ResponseError is a non-2xx reply from a third-party API.
type ResponseError struct {
	StatusCode int
	// Message is the provider's error message when the body had one,
	// otherwise the truncated raw body.
	Message string
	Type    string
}

func (e *ResponseError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("status %d (%s): %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether the failure is on the provider's side.
func (e *ResponseError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// providerErrorBody matches the {"error": {...}} shape used by both the
// OpenAI-compatible chat API and the image CDN upload API.
type providerErrorBody struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

const maxErrorBody = 1 << 16

// ParseResponseError reads and closes a non-2xx response body and returns a
// *ResponseError describing it.
func ParseResponseError(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return &ResponseError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("read body: %v", err)}
	}

	var body providerErrorBody
	if json.Unmarshal(raw, &body) == nil && body.Error != nil && body.Error.Message != "" {
		return &ResponseError{StatusCode: resp.StatusCode, Message: body.Error.Message, Type: body.Error.Type}
	}

	msg := strings.TrimSpace(string(raw))
	if len(msg) > 512 {
		msg = msg[:512] + "..."
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &ResponseError{StatusCode: resp.StatusCode, Message: msg}
}

// ErrorAttrs describes err for a structured log line. A *ResponseError in
// the chain adds the provider's status and whether a retry could help.
func ErrorAttrs(err error) []any {
	attrs := []any{slog.String("error", err.Error())}
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		attrs = append(attrs,
			slog.Int("upstream_status", respErr.StatusCode),
			slog.Bool("retryable", respErr.Retryable()),
		)
	}
	return attrs
}
