package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/DarkRecklessness/ShopService/api/responses"
	pkgerrors "github.com/DarkRecklessness/ShopService/pkg/errors"
	"github.com/DarkRecklessness/ShopService/pkg/logger"
)

const readinessTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadinessCheck names one dependency probed by /health/ready.
type ReadinessCheck struct {
	Name   string
	Pinger Pinger
}

func HealthLive(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "live", "service": service})
	}
}

// HealthReady pings every check and answers 503 with the failing names when
// any of them is down.
func HealthReady(logg *logger.Logger, checks ...ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		status := map[string]string{}
		var failed []string
		for _, check := range checks {
			if check.Pinger == nil {
				continue
			}
			if err := check.Pinger.Ping(ctx); err != nil {
				status[check.Name] = "down"
				failed = append(failed, check.Name)
				if logg != nil {
					logg.Error(logg.WithField(r.Context(), "dependency", check.Name), "readiness check failed", err)
				}
				continue
			}
			status[check.Name] = "ok"
		}

		if len(failed) > 0 {
			err := pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").
				WithDetails(map[string]any{"checks": status})
			responses.WriteError(r.Context(), nil, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": status})
	}
}
