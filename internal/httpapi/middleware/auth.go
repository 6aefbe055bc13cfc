package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hamed0406/checkwatch/internal/eventlog"
)

type Keys struct {
	Public []string
	Admin  []string
}

func readAuth(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if k := r.Header.Get("X-API-Key"); k != "" {
		return strings.TrimSpace(k)
	}
	return ""
}

func hasKey(given string, set []string) bool {
	if given == "" || len(set) == 0 {
		return false
	}
	for _, k := range set {
		if k == given {
			return true
		}
	}
	return false
}

func recorder(events eventlog.Recorder) eventlog.Recorder {
	if events == nil {
		return eventlog.Discard
	}
	return events
}

func reject(w http.ResponseWriter, r *http.Request, events eventlog.Recorder, code int, reason string) {
	events.Record(eventlog.ATK, ClientIP(r), "request_rejected",
		zap.String("reason", reason),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"error":"` + reason + `"}`))
}

// RequireAny allows requests that present either a public or admin key.
// If no keys are configured, it allows all requests (handy for local dev).
// Rejected requests are recorded as ATK events keyed by client IP.
func RequireAny(keys Keys, events eventlog.Recorder) func(http.Handler) http.Handler {
	events = recorder(events)
	enabled := len(keys.Public) > 0 || len(keys.Admin) > 0
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := readAuth(r)
			if hasKey(key, keys.Public) || hasKey(key, keys.Admin) {
				next.ServeHTTP(w, r)
				return
			}
			reject(w, r, events, http.StatusUnauthorized, "unauthorized")
		})
	}
}

// RequireAdmin only permits requests that present an admin key. A missing
// key is 401, a non-admin key 403.
// If no admin keys are configured, it allows all requests (dev).
func RequireAdmin(keys Keys, events eventlog.Recorder) func(http.Handler) http.Handler {
	events = recorder(events)
	enabled := len(keys.Admin) > 0
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := readAuth(r)
			if hasKey(key, keys.Admin) {
				next.ServeHTTP(w, r)
				return
			}
			if key == "" {
				reject(w, r, events, http.StatusUnauthorized, "unauthorized")
				return
			}
			reject(w, r, events, http.StatusForbidden, "forbidden")
		})
	}
}
