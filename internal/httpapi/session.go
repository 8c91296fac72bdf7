package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/crackedoura/backend/internal/storage"
)

type sessionKey struct{}

// SessionFrom returns the request's storage session.
func SessionFrom(ctx context.Context) (*storage.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(*storage.Session)
	return sess, ok
}

// withSession attaches one storage session to each request and closes it
// when the handler returns or panics.
func withSession(sc *storage.Context, m *Metrics, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sc.AcquireSession(r.Context())
			if err != nil {
				m.sessionFailures.Inc()
				logger.Error("session acquire failed", "path", r.URL.Path, "error", err)
				writeError(w, http.StatusServiceUnavailable, "storage unavailable")
				return
			}
			defer func() {
				if err := sess.Close(); err != nil {
					logger.Warn("session release failed", "session", sess.ID(), "error", err)
				}
			}()

			ctx := context.WithValue(r.Context(), sessionKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
