package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/pawhaven-backend/pkg/logger"
)

const defaultPetReconcileLimit = 500

// PetStatusReconcileJobParams configures the pet status repair job.
type PetStatusReconcileJobParams struct {
	Logger     *logger.Logger
	Reconciler petReconciler
	Limit      int
}

// petReconciler is satisfied by the adoptions service.
type petReconciler interface {
	Reconcile(ctx context.Context, limit int) (int, error)
}

// NewPetStatusReconcileJob builds the job that moves pending pets without
// open applications back to available and available pets with open ones to
// pending.
func NewPetStatusReconcileJob(params PetStatusReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("reconciler required")
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultPetReconcileLimit
	}
	return &petStatusReconcileJob{
		logg:       params.Logger,
		reconciler: params.Reconciler,
		limit:      limit,
	}, nil
}

type petStatusReconcileJob struct {
	logg       *logger.Logger
	reconciler petReconciler
	limit      int
}

func (j *petStatusReconcileJob) Name() string { return "pet-status-reconcile" }

func (j *petStatusReconcileJob) Run(ctx context.Context) error {
	fixed, err := j.reconciler.Reconcile(ctx, j.limit)
	if err != nil {
		return fmt.Errorf("pet status reconcile: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"pets_fixed": fixed,
		"limit":      j.limit,
	})
	if fixed > 0 {
		j.logg.Warn(logCtx, "pet statuses repaired")
		return nil
	}
	j.logg.Info(logCtx, "pet statuses consistent")
	return nil
}
