package middleware

import (
	"fmt"
	"net/http"

	"github.com/renohaus/renohaus-backend/api/responses"
	pkgerrors "github.com/renohaus/renohaus-backend/pkg/errors"
	"github.com/renohaus/renohaus-backend/pkg/logger"
)

// Recoverer converts a handler panic into a logged 500 so one bad request
// cannot take the process down.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				err := fmt.Errorf("panic: %v", rec)
				ctx := r.Context()
				if logg != nil {
					logg.Error(logg.WithField(ctx, "panic", rec), "request panicked", err)
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
