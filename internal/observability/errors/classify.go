// Package errors turns arbitrary errors into short, low-cardinality class
// names for metric tags and log fields.
package errors

import (
	goerrors "errors"
	"reflect"
	"strings"

	apperrors "github.com/sunstone-mind/sunstone-web/internal/errors"
)

// Classify prefers the AppError code; otherwise it names the innermost
// concrete error type in snake_case-ish form.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}

	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}
	name := strings.ReplaceAll(strings.ToLower(t.String()), ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}
