package middleware

import (
	"net/http"
	"strings"

	"github.com/renohaus/renohaus-backend/api/responses"
	pkgerrors "github.com/renohaus/renohaus-backend/pkg/errors"
	"github.com/renohaus/renohaus-backend/pkg/logger"
)

const userIDHeader = "X-User-Id"

// Identity requires the gateway-injected X-User-Id header and puts the
// caller id on the context. Authentication itself happens upstream.
func Identity(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(userIDHeader))
			if userID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "X-User-Id header required"))
				return
			}

			ctx := WithUserID(r.Context(), userID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, userID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
