package conn

import "net/http"

// statusPhrase returns the standard reason phrase for code, falling back
// to net/http's table — no ecosystem library improves on the fixed
// IANA status-code registry stdlib already carries.
func statusPhrase(code int) string {
	if p := http.StatusText(code); p != "" {
		return p
	}
	return ""
}
