package httpmiddleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionCookie is the cookie carrying the session id.
const DefaultSessionCookie = "sid"

type sessionIDKey struct{}

// SessionIDFromContext returns the session id set by Session, or "".
func SessionIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithSessionID returns a copy of ctx carrying the session id.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

// SessionConfig configures the session cookie.
type SessionConfig struct {
	// Cookie is the cookie name. Defaults to DefaultSessionCookie.
	Cookie string
	// MaxAge is the cookie lifetime. Zero makes it a browser-session cookie.
	MaxAge time.Duration
	Secure bool
}

// Session returns a middleware that identifies the browser session by a
// cookie holding a UUID. Requests without a valid cookie get a fresh id and
// the cookie is (re)issued.
func Session(cfg SessionConfig) Middleware {
	if cfg.Cookie == "" {
		cfg.Cookie = DefaultSessionCookie
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(cfg.Cookie); err == nil {
				if u, err := uuid.Parse(c.Value); err == nil {
					id = u.String()
				}
			}
			if id == "" {
				id = uuid.New().String()
				cookie := &http.Cookie{
					Name:     cfg.Cookie,
					Value:    id,
					Path:     "/",
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				}
				if cfg.MaxAge > 0 {
					cookie.MaxAge = int(cfg.MaxAge.Seconds())
				}
				http.SetCookie(w, cookie)
			}
			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), id)))
		})
	}
}
