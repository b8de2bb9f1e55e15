package middleware

import (
	"crypto/subtle"
	"net/http"
	"slices"
	"strings"
)

// tokenSources are tried in order. The query parameter covers browser
// WebSocket upgrades, which cannot carry custom headers.
var tokenSources = []func(*http.Request) string{
	bearerToken,
	func(r *http.Request) string { return r.Header.Get("X-API-Key") },
	func(r *http.Request) string { return r.URL.Query().Get("api_key") },
}

// Auth rejects requests whose token does not match apiKey. CORS preflights
// and the listed public paths pass through, as does everything when apiKey
// is empty.
func Auth(apiKey string, public ...string) func(http.Handler) http.Handler {
	want := []byte(apiKey)
	return func(next http.Handler) http.Handler {
		if apiKey == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || slices.Contains(public, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			switch token := requestToken(r); {
			case token == "":
				unauthorized(w, "missing authentication token")
			case subtle.ConstantTimeCompare([]byte(token), want) != 1:
				unauthorized(w, "invalid authentication token")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func requestToken(r *http.Request) string {
	for _, source := range tokenSources {
		if tok := strings.TrimSpace(source(r)); tok != "" {
			return tok
		}
	}
	return ""
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return token
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="premarket"`)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
