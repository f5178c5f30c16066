package controllers

import (
	"context"
	"net/http"

	"github.com/sahilmehra/campustrade-backend/api/responses"
	"github.com/sahilmehra/campustrade-backend/pkg/config"
	pkgerrors "github.com/sahilmehra/campustrade-backend/pkg/errors"
	"github.com/sahilmehra/campustrade-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CampusTrade-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the API's backing dependencies before reporting ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CampusTrade-Env", cfg.App.Env)

		checks := map[string]string{}
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				checks[name] = "unavailable"
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable").WithDetails(checks))
				return
			}
			checks[name] = "ok"
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}

// ReadyDeps adapts concrete clients to the ready-check map.
func ReadyDeps(db pinger, redis pinger, uploads pinger) map[string]pinger {
	deps := map[string]pinger{}
	if db != nil {
		deps["database"] = db
	}
	if redis != nil {
		deps["redis"] = redis
	}
	if uploads != nil {
		deps["uploads"] = uploads
	}
	return deps
}
