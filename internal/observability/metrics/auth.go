// Package metrics holds the standard metric shapes emitted by the auth flow
// and the backend client.
package metrics

import (
	"time"

	obserrors "github.com/sunstone-mind/sunstone-web/internal/observability/errors"
	"github.com/sunstone-mind/sunstone-web/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultStale   = "stale"
	ResultNoop    = "noop"
)

// MutationMetric describes one finished auth mutation (login, register, identity sync).
type MutationMetric struct {
	Operation string
	Result    string
	Duration  time.Duration
	Err       error
}

// EmitMutation records a counter and, when measured, a timing for an auth mutation.
func EmitMutation(sink statsd.Sink, in MutationMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"operation": in.Operation,
		"result":    in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}
	sink.Count("auth.mutation", 1, tags)
	if in.Duration > 0 {
		sink.Timing("auth.mutation.duration", in.Duration, CloneTags(tags))
	}
}

// EmitBackendResponse records one classified backend response.
func EmitBackendResponse(sink statsd.Sink, method, category string, status int, d time.Duration) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"method":   method,
		"category": category,
		"status":   statusClass(status),
	}
	sink.Count("backend.response", 1, tags)
	if d > 0 {
		sink.Timing("backend.latency", d, CloneTags(tags))
	}
}

// EmitIdentitySync records how a third-party identity event was resolved.
func EmitIdentitySync(sink statsd.Sink, resolution string) {
	if sink == nil {
		return
	}
	sink.Count("identity.sync", 1, map[string]string{"resolution": resolution})
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func statusClass(status int) string {
	switch {
	case status <= 0:
		return "none"
	case status < 200 || status >= 600:
		return "other"
	default:
		return string(rune('0'+status/100)) + "xx"
	}
}
