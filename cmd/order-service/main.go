package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/DarkRecklessness/ShopService/api/routes"
	"github.com/DarkRecklessness/ShopService/internal/app"
	"github.com/DarkRecklessness/ShopService/internal/orders"
	"github.com/DarkRecklessness/ShopService/pkg/enums"
	"github.com/DarkRecklessness/ShopService/pkg/env"
	"github.com/DarkRecklessness/ShopService/pkg/outbox"
)

const serviceName = "order-service"

func main() {
	cfg, logg, err := app.LoadConfig(serviceName)
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	rt, err := app.Open(ctx, cfg, enums.ServiceOrders, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap runtime", err)
		os.Exit(1)
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logg.Error(context.Background(), "error closing runtime", err)
		}
	}()

	conn := rt.DB.DB()
	svc, err := orders.NewService(
		orders.NewRepository(conn),
		rt.DB,
		outbox.NewService(outbox.NewRepository(conn, rt.Kind), logg),
		logg,
	)
	if err != nil {
		logg.Error(ctx, "failed to create order service", err)
		os.Exit(1)
	}

	relaySvc, err := rt.NewRelay()
	if err != nil {
		logg.Error(ctx, "failed to create outbox relay", err)
		os.Exit(1)
	}
	processor, err := rt.NewProcessor(enums.EventPaymentResult, orders.PaymentResultApplier(svc))
	if err != nil {
		logg.Error(ctx, "failed to create payment result consumer", err)
		os.Exit(1)
	}
	scheduler, err := rt.NewScheduler()
	if err != nil {
		logg.Error(ctx, "failed to create maintenance scheduler", err)
		os.Exit(1)
	}

	handler := routes.NewOrderRouter(routes.Common{
		Service:  serviceName,
		Logger:   logg,
		Gatherer: rt.Metrics,
		Checks:   rt.ReadinessChecks(),
	}, svc)
	addr := ":" + env.Get("PORT", cfg.App.Port)

	logg.Info(logg.WithField(ctx, "instance", rt.Instance), "starting order service")
	err = app.Supervise(ctx, logg,
		app.HTTPServer(addr, handler, logg),
		app.Component{Name: "outbox-relay", Run: relaySvc.Run},
		app.Component{Name: "payment-result-consumer", Run: func(ctx context.Context) error {
			return processor.Run(ctx, rt.Broker)
		}},
		app.Component{Name: "cron", Run: scheduler.Run},
	)
	if err != nil {
		logg.Error(ctx, "order service stopped unexpectedly", err)
		stop()
		_ = rt.Close()
		os.Exit(1)
	}
	logg.Info(context.Background(), "order service shut down gracefully")
}
