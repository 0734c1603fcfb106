package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/sellora/sellora-backend/api/responses"
	"github.com/sellora/sellora-backend/pkg/config"
	"github.com/sellora/sellora-backend/pkg/db"
	pkgerrors "github.com/sellora/sellora-backend/pkg/errors"
	"github.com/sellora/sellora-backend/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Sellora-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP db.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Sellora-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := []struct {
			name string
			dep  db.Pinger
		}{
			{name: "postgres", dep: dbP},
			{name: "redis", dep: redisP},
		}
		for _, check := range checks {
			if check.dep == nil {
				continue
			}
			if err := check.dep.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, "readiness check failed").
						WithDetails(map[string]string{"dependency": check.name}))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
