package aiclient

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strconv"

	oai "github.com/openai/openai-go"
)

// networkErrPattern matches the message shapes of transport-level failures
// that warrant a retry.
var networkErrPattern = regexp.MustCompile(`(?i)(connection refused|connection reset|broken pipe|no such host|network is unreachable|i/o timeout|handshake timeout|request timed out|temporarily unavailable|unexpected EOF|socket hang up|fetch failed)`)

// statusInMessage extracts an HTTP status code from flattened error strings
// such as "unexpected status code: 503" or "HTTP 429".
var statusInMessage = regexp.MustCompile(`(?i)(?:status(?: code)?|http)[:\s]+([1-5]\d\d)\b`)

// IsRetryable classifies err as a transient provider failure: HTTP status
// >= 500, 429 (rate limited), request timeouts, or transport-level network
// errors. Auth-invalid failures are explicitly not retryable — they are
// handled by the model-tier downgrade instead.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if IsAuthInvalid(err) {
		return false
	}
	if code := HTTPStatus(err); code != 0 {
		return code >= 500 || code == 429
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return networkErrPattern.MatchString(err.Error())
}

// HTTPStatus extracts the HTTP status code carried by err, or 0 when none is
// recoverable. It understands the OpenAI SDK error type, [APIStatusError],
// and status codes flattened into message strings.
func HTTPStatus(err error) int {
	var oaiErr *oai.Error
	if errors.As(err, &oaiErr) {
		return oaiErr.StatusCode
	}
	var statusErr *APIStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	if m := statusInMessage.FindStringSubmatch(err.Error()); m != nil {
		code, _ := strconv.Atoi(m[1])
		return code
	}
	return 0
}
