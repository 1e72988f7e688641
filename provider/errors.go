package provider

import (
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
)

// Retry configuration. Transient failures retry the full request with
// exponential backoff; everything else fails immediately.
const (
	maxAttempts     = 3
	backoffBase     = 1.5 // seconds, doubled per attempt
	requestTimeout  = 180 // seconds
	defaultMaxToken = 4096
)

// retryableStatus lists the HTTP statuses treated as transient.
var retryableStatus = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
}

// httpErrorHints maps common statuses to user-facing explanations.
var httpErrorHints = map[int]string{
	401: "API Key 无效或已过期，请在设置中检查。",
	402: "账户余额不足，请充值后重试。",
	403: "权限不足，可能是 API Key 没有该模型的访问权限。",
	404: "API 端点或模型名称不存在，请检查 Base URL 和模型名。",
	429: "请求频率过高，请稍后重试。",
	500: "服务端内部错误，请稍后重试。",
	502: "网关错误，服务暂时不可用。",
	503: "服务暂时不可用，请稍后重试。",
}

// MalformedStreamError reports a stream whose incremental tool-call
// fragments could not be assembled into a valid call. The whole request
// fails rather than surfacing a partially built tool call.
type MalformedStreamError struct {
	Detail string
}

func (e *MalformedStreamError) Error() string {
	return fmt.Sprintf("malformed stream: %s", e.Detail)
}

// RequestError wraps a provider failure with the HTTP status and a
// usage hint when one is known.
type RequestError struct {
	StatusCode int
	Hint       string
	Err        error
}

func (e *RequestError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("HTTP %d: %v\n%s", e.StatusCode, e.Err, e.Hint)
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error { return e.Err }

// wrapRequestError attaches status and hint information to an SDK error.
func wrapRequestError(err error) error {
	status := statusCode(err)
	if status == 0 {
		return err
	}
	return &RequestError{StatusCode: status, Hint: httpErrorHints[status], Err: err}
}

// statusCode extracts the HTTP status from an SDK error chain, or 0 for
// transport-level failures.
func statusCode(err error) int {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return apierr.StatusCode
	}
	return 0
}

// retryable reports whether a failed attempt should be retried.
// Transport errors (no HTTP status) count as transient, matching how
// connection resets and timeouts behave in practice.
func retryable(err error) bool {
	status := statusCode(err)
	if status == 0 {
		return true
	}
	return retryableStatus[status]
}
