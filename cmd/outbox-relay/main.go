package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DarkRecklessness/ShopService/api/controllers"
	"github.com/DarkRecklessness/ShopService/internal/app"
	"github.com/DarkRecklessness/ShopService/pkg/enums"
	"github.com/DarkRecklessness/ShopService/pkg/env"
)

// outbox-relay runs only the relay loop for SHOP_SERVICE_KIND, so relays can
// be scaled apart from the command API.
func main() {
	cfg, logg, err := app.LoadConfig("outbox-relay")
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	kind, err := enums.ParseServiceKind(cfg.Service.Kind)
	if err != nil {
		logg.Error(context.Background(), "invalid service kind", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"service_kind": kind.String(),
	})

	rt, err := app.Open(ctx, cfg, kind, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap runtime", err)
		os.Exit(1)
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logg.Error(context.Background(), "error closing runtime", err)
		}
	}()

	relaySvc, err := rt.NewRelay()
	if err != nil {
		logg.Error(ctx, "failed to create outbox relay", err)
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Get("/health/live", controllers.HealthLive("outbox-relay"))
	r.Get("/health/ready", controllers.HealthReady(logg, rt.ReadinessChecks()...))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(rt.Metrics, promhttp.HandlerOpts{}))
	addr := ":" + env.Get("PORT", cfg.App.Port)

	logg.Info(logg.WithField(ctx, "instance", rt.Instance), "starting outbox relay")
	err = app.Supervise(ctx, logg,
		app.HTTPServer(addr, r, logg),
		app.Component{Name: "outbox-relay", Run: relaySvc.Run},
	)
	if err != nil {
		logg.Error(ctx, "outbox relay stopped unexpectedly", err)
		stop()
		_ = rt.Close()
		os.Exit(1)
	}
	logg.Info(context.Background(), "outbox relay shut down gracefully")
}
