package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// APIError represents a structured error returned by the completion endpoint.
type APIError struct {
	StatusCode int
	Code       string
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "api error: status=%d", e.StatusCode)
	if e.Code != "" {
		fmt.Fprintf(&b, " code=%s", e.Code)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, " message=%s", e.Message)
	}
	return b.String()
}

// AuthError indicates authentication/authorization failures (401/403).
type AuthError struct{ *APIError }

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.APIError.Error())
}

// RateLimitError indicates 429 responses.
type RateLimitError struct{ *APIError }

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited: %s", e.APIError.Error())
}

// ContextLengthError indicates the prompt did not fit the model's context window.
type ContextLengthError struct{ *APIError }

func (e *ContextLengthError) Error() string {
	return fmt.Sprintf("context length exceeded: %s", e.APIError.Error())
}

// ModelNotFoundError indicates the requested model or deployment is not available.
type ModelNotFoundError struct{ *APIError }

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model not found: %s", e.APIError.Error())
}

// BadRequestError indicates a 4xx request problem (e.g., 400 validation).
type BadRequestError struct{ *APIError }

func (e *BadRequestError) Error() string { return fmt.Sprintf("bad request: %s", e.APIError.Error()) }

// QuotaExceededError indicates billing/quota problems.
type QuotaExceededError struct{ *APIError }

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded: %s", e.APIError.Error())
}

// ServerError indicates 5xx errors from the provider.
type ServerError struct{ *APIError }

func (e *ServerError) Error() string { return fmt.Sprintf("provider error: %s", e.APIError.Error()) }

// UnreachableError indicates the endpoint could not be reached at all.
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e == nil {
		return "unreachable"
	}
	if e.Host != "" {
		return fmt.Sprintf("endpoint unreachable at %s: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("endpoint unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// EmptyResponseError indicates a successful response without any candidate.
type EmptyResponseError struct {
	ID string
}

func (e *EmptyResponseError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("empty response: no choices returned (id=%s)", e.ID)
	}
	return "empty response: no choices returned"
}

// classifyError maps errors returned by the openai client to typed errors.
func classifyError(err error, endpoint string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var oe *openai.APIError
	if errors.As(err, &oe) {
		return classifyAPIError(&APIError{
			StatusCode: oe.HTTPStatusCode,
			Code:       codeString(oe.Code),
			Type:       oe.Type,
			Message:    oe.Message,
		})
	}
	var re *openai.RequestError
	if errors.As(err, &re) {
		msg := ""
		if re.Err != nil {
			msg = re.Err.Error()
		}
		return classifyAPIError(&APIError{StatusCode: re.HTTPStatusCode, Message: msg})
	}
	var ue *url.Error
	var ne net.Error
	if errors.As(err, &ue) || errors.As(err, &ne) {
		return &UnreachableError{Host: hostOf(endpoint), Err: err}
	}
	return fmt.Errorf("chat completion: %w", err)
}

// classifyAPIError maps generic APIError to typed errors for better UX.
func classifyAPIError(apiErr *APIError) error {
	sc := apiErr.StatusCode
	msg := apiErr.Message
	code := apiErr.Code
	// Auth
	if sc == http.StatusUnauthorized || sc == http.StatusForbidden {
		return &AuthError{APIError: apiErr}
	}
	// Quota/billing signals (heuristic)
	if code == "insufficient_quota" || code == "quota_exceeded" || containsAnyFold(msg, "quota", "billing") {
		return &QuotaExceededError{APIError: apiErr}
	}
	// Rate limiting
	if sc == http.StatusTooManyRequests {
		return &RateLimitError{APIError: apiErr}
	}
	// Deployment/model missing
	if sc == http.StatusNotFound {
		if code == "DeploymentNotFound" || code == "model_not_found" ||
			containsAllFold(msg, "deployment", "not", "exist") || containsAllFold(msg, "model", "not", "found") {
			return &ModelNotFoundError{APIError: apiErr}
		}
		return apiErr
	}
	// Bad request
	if sc == http.StatusBadRequest {
		if code == "context_length_exceeded" || containsAllFold(msg, "maximum context length") {
			return &ContextLengthError{APIError: apiErr}
		}
		return &BadRequestError{APIError: apiErr}
	}
	// Server errors
	if sc >= 500 && sc <= 599 {
		return &ServerError{APIError: apiErr}
	}
	return apiErr
}

func codeString(code any) string {
	if code == nil {
		return ""
	}
	return fmt.Sprint(code)
}

func hostOf(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return endpoint
	}
	return u.Host
}

func containsAllFold(s string, subs ...string) bool {
	for _, sub := range subs {
		if !containsFold(s, sub) {
			return false
		}
	}
	return true
}

func containsAnyFold(s string, subs ...string) bool {
	for _, sub := range subs {
		if containsFold(s, sub) {
			return true
		}
	}
	return false
}

func containsFold(s, sub string) bool {
	if s == "" || sub == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
