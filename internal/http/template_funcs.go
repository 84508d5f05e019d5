package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"
)

const friendlyDateTimeLayout = "Jan 2, 2006 3:04 PM"

func templateFuncs(t **template.Template) template.FuncMap {
	return template.FuncMap{
		"renderSection": func(page string, data any) (template.HTML, error) {
			if t == nil || *t == nil {
				return "", errors.New("template not initialized")
			}
			var buf bytes.Buffer
			if err := (*t).ExecuteTemplate(&buf, ContentTemplateFor(page), data); err != nil {
				return "", err
			}
			// #nosec G203 - output of our own html/template set; values were escaped during execution.
			return template.HTML(buf.String()), nil
		},
		"relativeTime": func(ts time.Time) string { return friendlyRelativeTime(ts, time.Now()) },
		"timeTag":      timeTag,
		"truncate":     truncateWithEllipsis,
		"toJSON": func(v any) (string, error) {
			b, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return string(b), nil
		},
		"hasPrefix": strings.HasPrefix,
		"plural": func(n int, singular, plural string) string {
			if n == 1 {
				return "1 " + singular
			}
			return strconv.Itoa(n) + " " + plural
		},
		"decimal": func(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) },
	}
}

// friendlyRelativeTime describes how long before now t occurred.
// Future times read as "just now".
func friendlyRelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return agoString(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return agoString(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return agoString(int(diff.Hours()/24), "day")
	default:
		return t.Local().Format(friendlyDateTimeLayout)
	}
}

func agoString(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return strconv.Itoa(n) + " " + unit + "s ago"
}

func timeTag(t time.Time) template.HTML {
	if t.IsZero() {
		return ""
	}
	// #nosec G203 - built from escaped values only
	return template.HTML(fmt.Sprintf(
		`<time datetime="%s" title="%s">%s</time>`,
		t.UTC().Format(time.RFC3339),
		template.HTMLEscapeString(t.Local().Format(time.RFC1123)),
		template.HTMLEscapeString(t.Local().Format(friendlyDateTimeLayout)),
	))
}

// truncateWithEllipsis shortens text to limit runes, counting the ellipsis.
func truncateWithEllipsis(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	if limit <= 1 {
		return "…"
	}
	return strings.TrimSpace(string(runes[:limit-1])) + "…"
}
