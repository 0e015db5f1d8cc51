package payme

import (
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"
)

// authorized checks the two credential forms Payme's sandbox and production
// callers use: an X-Auth header carrying the key directly, or HTTP Basic
// where the password component (or the whole token when there is no colon)
// is the key. Neither failure mode is distinguished to the caller.
func (h *Handler) authorized(r *http.Request) bool {
	if x := r.Header.Get("X-Auth"); x != "" && secretsEqual(x, h.key) {
		return true
	}

	basic := r.Header.Get("Authorization")
	if !strings.HasPrefix(basic, "Basic ") {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(basic, "Basic "))
	if err != nil {
		return false
	}

	// the password is the second colon-separated segment; a bare token or a
	// trailing colon falls back to the first
	parts := strings.Split(string(decoded), ":")
	secret := parts[0]
	if len(parts) > 1 && parts[1] != "" {
		secret = parts[1]
	}
	return secretsEqual(secret, h.key)
}

func secretsEqual(got, want string) bool {
	if len(got) != len(want) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
