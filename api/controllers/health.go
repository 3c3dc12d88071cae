package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/instastorehq/storefront-backend/api/responses"
	"github.com/instastorehq/storefront-backend/pkg/config"
	"github.com/instastorehq/storefront-backend/pkg/logger"
)

const readinessCheckTimeout = 2 * time.Second

// Pinger is anything that can report dependency connectivity.
type Pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and Redis. A failed check flips the
// endpoint to 503 so load balancers stop routing traffic here.
func HealthReady(cfg *config.Config, logg *logger.Logger, db, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessCheckTimeout)
		defer cancel()

		checks := map[string]string{}
		ready := true

		checks["database"] = checkDependency(ctx, db)
		checks["redis"] = checkDependency(ctx, cache)
		for name, status := range checks {
			if status != "ok" {
				ready = false
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "dependency", name), "health.dependency_down")
				}
			}
		}

		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		status := "ready"
		code := http.StatusOK
		if !ready {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		responses.WriteSuccessStatus(w, code, map[string]any{
			"status": status,
			"checks": checks,
		})
	}
}

func checkDependency(ctx context.Context, p Pinger) string {
	if p == nil {
		return "not configured"
	}
	if err := p.Ping(ctx); err != nil {
		return err.Error()
	}
	return "ok"
}
