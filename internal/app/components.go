package app

import (
	"fmt"

	"github.com/DarkRecklessness/ShopService/api/controllers"
	"github.com/DarkRecklessness/ShopService/internal/consumers"
	"github.com/DarkRecklessness/ShopService/internal/cron"
	"github.com/DarkRecklessness/ShopService/internal/relay"
	"github.com/DarkRecklessness/ShopService/pkg/enums"
	"github.com/DarkRecklessness/ShopService/pkg/inbox"
	"github.com/DarkRecklessness/ShopService/pkg/inbox/idempotency"
	"github.com/DarkRecklessness/ShopService/pkg/metrics"
	"github.com/DarkRecklessness/ShopService/pkg/outbox"
)

// NewRelay builds the outbox relay for the runtime's service kind.
func (r *Runtime) NewRelay() (*relay.Service, error) {
	return relay.NewService(relay.ServiceParams{
		Kind:         r.Kind,
		Logger:       r.Logger,
		DB:           r.DB,
		Broker:       r.Broker,
		Repository:   outbox.NewRepository(r.DB.DB(), r.Kind),
		Registry:     r.Events,
		Metrics:      metrics.NewRelayMetrics(r.Metrics, r.Kind.String()),
		PollInterval: r.Config.Outbox.PollInterval(),
		ErrorBackoff: r.Config.Outbox.ErrorBackoff(),
		Name:         r.Instance,
	})
}

// NewProcessor builds the inbound processor for eventType, reading the queue
// the registry routes it to.
func (r *Runtime) NewProcessor(eventType enums.EventType, apply consumers.ApplyFunc) (*consumers.Processor, error) {
	queue, err := r.Events.QueueFor(eventType)
	if err != nil {
		return nil, err
	}
	return consumers.NewProcessor(consumers.Params{
		Queue:        queue,
		Logger:       r.Logger,
		Decoder:      r.Events,
		DeadLetters:  inbox.NewDeadLetterRepository(r.DB.DB(), r.Kind),
		Metrics:      metrics.NewConsumerMetrics(r.Metrics, r.Kind.String()),
		ErrorBackoff: r.Config.Broker.ConsumerErrorBackoff,
		Apply:        apply,
	})
}

// HintManager returns the redis-backed inbox hint cache, or nil when redis is
// off.
func (r *Runtime) HintManager() (*idempotency.Manager, error) {
	if r.Redis == nil {
		return nil, nil
	}
	return idempotency.NewManager(r.Redis, r.Config.Eventing.InboxHintTTL)
}

// NewScheduler builds the maintenance scheduler with the outbox backlog job
// plus any extra jobs.
func (r *Runtime) NewScheduler(extra ...cron.Job) (*cron.Service, error) {
	lock, err := r.cronLock()
	if err != nil {
		return nil, err
	}
	backlog, err := cron.NewOutboxBacklogJob(cron.OutboxBacklogJobParams{
		Logger:     r.Logger,
		Repository: outbox.NewRepository(r.DB.DB(), r.Kind),
		Metrics:    metrics.NewBacklogMetrics(r.Metrics, r.Kind.String()),
		WarnAge:    r.Config.Cron.BacklogWarnAge,
	})
	if err != nil {
		return nil, err
	}
	return cron.NewService(cron.ServiceParams{
		Logger:   r.Logger,
		Registry: cron.NewRegistry(append([]cron.Job{backlog}, extra...)...),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(r.Metrics, r.Kind.String()),
		Interval: r.Config.Cron.Interval,
	})
}

func (r *Runtime) cronLock() (cron.Lock, error) {
	if r.Redis == nil {
		return cron.NewLocalLock(), nil
	}
	key := r.Redis.LockKey(fmt.Sprintf("cron:%s:%s", r.Config.App.Env, r.Kind))
	return cron.NewRedisLock(r.Redis, key, r.Config.Cron.LockTTL)
}

// ReadinessChecks lists the dependencies /health/ready probes.
func (r *Runtime) ReadinessChecks() []controllers.ReadinessCheck {
	checks := []controllers.ReadinessCheck{
		{Name: "db", Pinger: r.DB},
		{Name: "broker", Pinger: r.Broker},
	}
	if r.Redis != nil {
		checks = append(checks, controllers.ReadinessCheck{Name: "redis", Pinger: r.Redis})
	}
	return checks
}
