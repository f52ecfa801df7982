package middleware

import (
	"fmt"
	"net/http"

	"github.com/creamcommerce/commerce-backend/api/responses"
	pkgerrors "github.com/creamcommerce/commerce-backend/pkg/errors"
	"github.com/creamcommerce/commerce-backend/pkg/logger"
)

// Recoverer turns a handler panic into a logged 500 response instead of
// a dropped connection. http.ErrAbortHandler passes through untouched.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				err := fmt.Errorf("panic: %v", rec)
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{"panic": rec})
					logg.Error(ctx, "panic.recovered", err)
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
