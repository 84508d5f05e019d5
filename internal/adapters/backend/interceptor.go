package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sunstone-mind/sunstone-web/internal/domain/feedback"
	"github.com/sunstone-mind/sunstone-web/internal/observability/metrics"
)

// Notices raised by the interceptor.
const (
	MsgUnauthorized = "Unauthorized. Please sign in again."
	MsgNotFound     = "Resource not found (404)"
	MsgServerError  = "Server error. Please try again later."
	MsgUnexpected   = "Unexpected error occurred"
)

// SignInPath is where a 401 sends the browser.
const SignInPath = "/auth"

// Category groups failed responses by how the UI reacts to them.
type Category string

const (
	CategoryUnauthorized Category = "unauthorized"
	CategoryNotFound     Category = "not_found"
	CategoryServer       Category = "server"
	CategoryBackend      Category = "backend"
	CategoryTransport    Category = "transport"
)

// APIError is a failed backend call. Message is the user-facing notice;
// BackendMessage is the message field of the response body, if any.
type APIError struct {
	Status         int
	Category       Category
	Message        string
	BackendMessage string
	Cause          error
}

func (e *APIError) Error() string {
	switch {
	case e.Status == 0 && e.Cause != nil:
		return fmt.Sprintf("backend %s: %v", e.Category, e.Cause)
	case e.BackendMessage != "":
		return fmt.Sprintf("backend %d: %s", e.Status, e.BackendMessage)
	default:
		return fmt.Sprintf("backend %d: %s", e.Status, e.Message)
	}
}

func (e *APIError) Unwrap() error { return e.Cause }

// BackendText returns the message field the backend sent, if any.
func (e *APIError) BackendText() string { return e.BackendMessage }

// Classify maps a response onto an APIError. Statuses below 400 yield nil.
func Classify(status int, body []byte) *APIError {
	if status < http.StatusBadRequest {
		return nil
	}
	apiErr := &APIError{Status: status, BackendMessage: backendMessage(body)}
	switch {
	case status == http.StatusUnauthorized:
		apiErr.Category, apiErr.Message = CategoryUnauthorized, MsgUnauthorized
	case status == http.StatusNotFound:
		apiErr.Category, apiErr.Message = CategoryNotFound, MsgNotFound
	case status >= http.StatusInternalServerError:
		apiErr.Category, apiErr.Message = CategoryServer, MsgServerError
	default:
		apiErr.Category, apiErr.Message = CategoryBackend, MsgUnexpected
		if apiErr.BackendMessage != "" {
			apiErr.Message = apiErr.BackendMessage
		}
	}
	return apiErr
}

func backendMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if len(body) == 0 || json.Unmarshal(body, &payload) != nil {
		return ""
	}
	return strings.TrimSpace(payload.Message)
}

// intercept applies the side effects of a failed call. The error itself is
// still returned to the caller.
func (c *Client) intercept(ctx context.Context, req Request, apiErr *APIError, elapsed time.Duration) {
	metrics.EmitBackendResponse(c.metrics, req.Method, string(apiErr.Category), apiErr.Status, elapsed)
	c.logger.WarnContext(ctx, "backend request failed",
		"method", req.Method,
		"path", req.Path,
		"status", apiErr.Status,
		"category", apiErr.Category,
		"error", apiErr,
	)

	sink := feedback.FromContext(ctx)
	sink.Error(apiErr.Message)

	if apiErr.Category != CategoryUnauthorized {
		return
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized(ctx)
	}
	sink.Redirect(SignInPath)
}
