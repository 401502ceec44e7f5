package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aquamesh/aquaview-backend/api/responses"
	"github.com/aquamesh/aquaview-backend/pkg/config"
	pkgerrors "github.com/aquamesh/aquaview-backend/pkg/errors"
	"github.com/aquamesh/aquaview-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is any dependency with a liveness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-AquaView-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every named dependency in parallel. Nil pingers are
// reported as skipped.
func HealthReady(cfg *config.Config, deps map[string]Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-AquaView-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := make(map[string]string, len(deps))
		results := make([]string, 0, len(deps))
		names := make([]string, 0, len(deps))
		for name := range deps {
			names = append(names, name)
			results = append(results, "")
		}

		g, gctx := errgroup.WithContext(ctx)
		for i, name := range names {
			pinger := deps[name]
			if pinger == nil {
				results[i] = "skipped"
				continue
			}
			g.Go(func() error {
				if err := pinger.Ping(gctx); err != nil {
					results[i] = "down"
					return fmt.Errorf("%s: %w", name, err)
				}
				results[i] = "up"
				return nil
			})
		}
		err := g.Wait()
		for i, name := range names {
			if results[i] == "" {
				results[i] = "unknown"
			}
			checks[name] = results[i]
		}

		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dependency unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
