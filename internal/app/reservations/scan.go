package reservations

import (
	"net/url"
	"strings"

	"github.com/weddingpass/pass-api/internal/domain"
)

// ParseScannedCode extracts the invitation code from a scanned QR payload.
// Pass links carry it in the "code" query parameter; anything else is taken
// as the code itself.
func ParseScannedCode(scanned string) string {
	text := strings.TrimSpace(scanned)
	if text == "" {
		return ""
	}
	if u, err := url.Parse(text); err == nil {
		if c := u.Query().Get("code"); c != "" {
			return domain.NormalizeCode(c)
		}
	}
	return domain.NormalizeCode(text)
}
