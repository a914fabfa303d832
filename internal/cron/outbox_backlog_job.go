package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/DarkRecklessness/ShopService/pkg/logger"
	"github.com/DarkRecklessness/ShopService/pkg/metrics"
	"github.com/DarkRecklessness/ShopService/pkg/outbox"
)

const defaultBacklogWarnAge = 5 * time.Minute

type backlogReader interface {
	Backlog(ctx context.Context) (outbox.BacklogStats, error)
}

type OutboxBacklogJobParams struct {
	Logger     *logger.Logger
	Repository backlogReader
	Metrics    *metrics.BacklogMetrics
	WarnAge    time.Duration
}

func NewOutboxBacklogJob(params OutboxBacklogJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	warnAge := params.WarnAge
	if warnAge <= 0 {
		warnAge = defaultBacklogWarnAge
	}
	return &outboxBacklogJob{
		logg:    params.Logger,
		repo:    params.Repository,
		metrics: params.Metrics,
		warnAge: warnAge,
		now:     time.Now,
	}, nil
}

type outboxBacklogJob struct {
	logg    *logger.Logger
	repo    backlogReader
	metrics *metrics.BacklogMetrics
	warnAge time.Duration
	now     func() time.Time
}

func (j *outboxBacklogJob) Name() string { return "outbox-backlog" }

func (j *outboxBacklogJob) Run(ctx context.Context) error {
	stats, err := j.repo.Backlog(ctx)
	if err != nil {
		return fmt.Errorf("outbox backlog: %w", err)
	}
	age := stats.OldestAge(j.now().UTC())
	j.metrics.Set(stats.Pending, age)

	if stats.Pending == 0 || age < j.warnAge {
		return nil
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"pending":            stats.Pending,
		"oldest_outbox_id":   stats.OldestID,
		"oldest_age_seconds": int64(age.Seconds()),
		"warn_after_seconds": int64(j.warnAge.Seconds()),
	})
	j.logg.Warn(logCtx, "outbox backlog is not draining")
	return nil
}
