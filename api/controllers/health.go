package controllers

import (
	"context"
	"net/http"

	"github.com/Maiconloureiro96-cyber/distribuidora/api/responses"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/config"
	pkgerrors "github.com/Maiconloureiro96-cyber/distribuidora/pkg/errors"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/logger"
)

const envHeader = "X-Distribuidora-Env"

type pinger interface {
	Ping(ctx context.Context) error
}

// ConnectionChecker is the messenger surface probed by readiness.
type ConnectionChecker interface {
	ConnectionState(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports per-dependency status and fails the probe when any
// wired dependency is down. Nil dependencies are skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, db pinger, cache pinger, messenger ConnectionChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		ctx := r.Context()

		checks := map[string]string{}
		healthy := true

		check := func(name string, err error) {
			if err != nil {
				checks[name] = err.Error()
				healthy = false
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "dependency", name), "readiness check failed")
				}
				return
			}
			checks[name] = "ok"
		}

		if db != nil {
			check("database", db.Ping(ctx))
		}
		if cache != nil {
			check("redis", cache.Ping(ctx))
		}
		if messenger != nil {
			check("evolution", messenger.ConnectionState(ctx))
		}

		if !healthy {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodePersistence, "dependency not ready").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
