package controllers

import (
	"context"
	"net/http"

	"github.com/creamcommerce/commerce-backend/api/responses"
	"github.com/creamcommerce/commerce-backend/pkg/config"
	pkgerrors "github.com/creamcommerce/commerce-backend/pkg/errors"
	"github.com/creamcommerce/commerce-backend/pkg/logger"
)

// Pinger is satisfied by the db and cache clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Cream-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and cache. Nil dependencies are skipped
// so partial wiring in tests still reports ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, db, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Cream-Env", cfg.App.Env)

		checks := map[string]Pinger{"database": db, "cache": cache}
		for name, dep := range checks {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable").
					WithDetails(map[string]any{"dependency": name})
				responses.WriteError(r.Context(), logg, w, wrapped)
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
