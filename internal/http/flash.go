package httpx

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sunstone-mind/sunstone-web/internal/domain/feedback"
)

// FlashCookieName carries notices across a redirect.
const FlashCookieName = "flash"

const maxFlashNotices = 5

// writeFlash stores notices for the next page render.
func (c CookieConfig) writeFlash(w http.ResponseWriter, r *http.Request, notices []feedback.Notice) {
	notices = normalizeNotices(notices)
	if len(notices) == 0 {
		return
	}
	payload, err := json.Marshal(notices)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(payload),
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.secure(r),
		SameSite: http.SameSiteLaxMode,
	})
}

// readFlash returns and clears the notices left by the previous response.
func (c CookieConfig) readFlash(w http.ResponseWriter, r *http.Request) []feedback.Notice {
	raw := strings.TrimSpace(cookieValue(r, FlashCookieName))
	if raw == "" {
		return nil
	}
	c.clear(w, r, FlashCookieName)
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var notices []feedback.Notice
	if err := json.Unmarshal(decoded, &notices); err != nil {
		return nil
	}
	return normalizeNotices(notices)
}

func normalizeNotices(in []feedback.Notice) []feedback.Notice {
	out := make([]feedback.Notice, 0, len(in))
	for _, n := range in {
		n.Message = strings.TrimSpace(n.Message)
		n.Kind = feedback.Kind(strings.ToLower(strings.TrimSpace(string(n.Kind))))
		if n.Message == "" || !n.Kind.Valid() {
			continue
		}
		out = append(out, n)
		if len(out) == maxFlashNotices {
			break
		}
	}
	return out
}
