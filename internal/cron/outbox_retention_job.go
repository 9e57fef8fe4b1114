package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/pawhaven-backend/pkg/logger"
)

const (
	outboxRetentionDays = 30
	day                 = 24 * time.Hour
)

// OutboxRetentionJobParams configures pruning of delivered outbox rows.
// Retention is in days; zero or less means 30.
type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	Repository outboxPruner
	Retention  int
}

// outboxPruner is satisfied by outbox.Repository. Undelivered rows are never
// pruned.
type outboxPruner interface {
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type outboxRetentionJob struct {
	logg   *logger.Logger
	pruner outboxPruner
	window time.Duration
	now    func() time.Time
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository required")
	}
	days := params.Retention
	if days <= 0 {
		days = outboxRetentionDays
	}
	return &outboxRetentionJob{
		logg:   params.Logger,
		pruner: params.Repository,
		window: time.Duration(days) * day,
		now:    time.Now,
	}, nil
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.window)
	pruned, err := j.pruner.DeletePublishedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune outbox before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":      cutoff,
		"window_days": int(j.window / day),
		"rows_pruned": pruned,
	}), "published outbox rows pruned")
	return nil
}
