package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/instastorehq/storefront-backend/api/responses"
	"github.com/instastorehq/storefront-backend/pkg/config"
	pkgerrors "github.com/instastorehq/storefront-backend/pkg/errors"
	"github.com/instastorehq/storefront-backend/pkg/logger"
	"github.com/instastorehq/storefront-backend/pkg/session"
)

const visitorTokenHeader = "X-SF-Token"

// VisitorSession resolves the anonymous visitor behind every storefront
// request. A valid token (Authorization bearer or X-SF-Token) keeps its
// session id; anything else gets a freshly minted token echoed back in the
// X-SF-Token response header so the client can persist it.
func VisitorSession(cfg config.SessionConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ""
			if token := visitorToken(r); token != "" {
				if parsed, err := session.ParseVisitorToken(cfg, token); err == nil {
					sessionID = parsed
				} else if logg != nil {
					logg.Warn(logg.WithField(r.Context(), "reason", err.Error()), "session.token_rejected")
				}
			}

			if sessionID == "" {
				signed, minted, err := session.MintVisitorToken(cfg, time.Now().UTC())
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint visitor session"))
					return
				}
				sessionID = minted
				w.Header().Set(visitorTokenHeader, signed)
			}

			ctx := WithSessionID(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func visitorToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw != "" {
		return raw
	}
	return strings.TrimSpace(r.Header.Get(visitorTokenHeader))
}
