package app

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/DarkRecklessness/ShopService/pkg/broker"
	"github.com/DarkRecklessness/ShopService/pkg/config"
	"github.com/DarkRecklessness/ShopService/pkg/db"
	"github.com/DarkRecklessness/ShopService/pkg/enums"
	"github.com/DarkRecklessness/ShopService/pkg/instance"
	"github.com/DarkRecklessness/ShopService/pkg/logger"
	"github.com/DarkRecklessness/ShopService/pkg/messaging"
	"github.com/DarkRecklessness/ShopService/pkg/migrate"
	"github.com/DarkRecklessness/ShopService/pkg/outbox/registry"
	"github.com/DarkRecklessness/ShopService/pkg/redis"
)

// LoadConfig reads .env when present, parses the SHOP_* environment and
// returns a logger configured from it.
func LoadConfig(serviceName string) (*config.Config, *logger.Logger, error) {
	logg := logger.New(logger.Options{ServiceName: serviceName})
	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, logg, err
	}
	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	return cfg, logg, nil
}

// Runtime holds the process-wide clients of one service.
type Runtime struct {
	Config   *config.Config
	Kind     enums.ServiceKind
	Logger   *logger.Logger
	DB       *db.Client
	Broker   messaging.Broker
	Redis    *redis.Client // nil when redis is not configured
	Metrics  *prometheus.Registry
	Events   *registry.EventRegistry
	Instance string
}

// Open connects the store (waiting for it), prepares the schema in dev,
// connects the broker and, when configured, redis.
func Open(ctx context.Context, cfg *config.Config, kind enums.ServiceKind, logg *logger.Logger) (*Runtime, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("unknown service kind %q", kind)
	}
	events, err := registry.NewEventRegistry(cfg.Broker)
	if err != nil {
		return nil, fmt.Errorf("building event registry: %w", err)
	}
	rt := &Runtime{
		Config:   cfg,
		Kind:     kind,
		Logger:   logg,
		Metrics:  NewMetricsRegistry(),
		Events:   events,
		Instance: instance.ID(),
	}
	if cfg.RabbitMQ.ConsumerTag == "" {
		cfg.RabbitMQ.ConsumerTag = fmt.Sprintf("%s-%s", kind, rt.Instance)
	}

	rt.DB, err = db.Connect(ctx, cfg.DB, logg)
	if err != nil {
		return nil, err
	}
	if err := migrate.MaybeRunDev(ctx, cfg, logg, rt.DB, kind); err != nil {
		return nil, multierr.Append(fmt.Errorf("preparing schema: %w", err), rt.Close())
	}

	rt.Broker, err = broker.Open(ctx, cfg, logg)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("connecting broker: %w", err), rt.Close())
	}

	if cfg.Redis.Enabled() {
		rt.Redis, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("connecting redis: %w", err), rt.Close())
		}
	} else {
		logg.Info(ctx, "redis not configured; inbox hints off, cron lock is process-local")
	}
	return rt, nil
}

// NewMetricsRegistry returns a registry with the Go and process collectors.
func NewMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Close releases every client that was opened, in reverse order.
func (r *Runtime) Close() error {
	var err error
	if r.Redis != nil {
		err = multierr.Append(err, r.Redis.Close())
	}
	if r.Broker != nil {
		err = multierr.Append(err, r.Broker.Close())
	}
	if r.DB != nil {
		err = multierr.Append(err, r.DB.Close())
	}
	return err
}
