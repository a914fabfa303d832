package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/DarkRecklessness/ShopService/pkg/logger"
)

type inboxPruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type InboxRetentionJobParams struct {
	Logger     *logger.Logger
	Repository inboxPruner
	Days       int
}

// NewInboxRetentionJob returns a nil Job when Days is not positive, which
// keeps inbox keys forever.
func NewInboxRetentionJob(params InboxRetentionJobParams) (Job, error) {
	if params.Days <= 0 {
		return nil, nil
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("inbox repository required")
	}
	return &inboxRetentionJob{
		logg: params.Logger,
		repo: params.Repository,
		days: params.Days,
		now:  time.Now,
	}, nil
}

type inboxRetentionJob struct {
	logg *logger.Logger
	repo inboxPruner
	days int
	now  func() time.Time
}

func (j *inboxRetentionJob) Name() string { return "inbox-retention" }

func (j *inboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.days) * 24 * time.Hour)
	deleted, err := j.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("inbox retention: %w", err)
	}
	if deleted == 0 {
		return nil
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.days,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "inbox retention cleanup complete")
	return nil
}
