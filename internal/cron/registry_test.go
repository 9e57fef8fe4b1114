package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryKeepsOrderAndCopies(t *testing.T) {
	reconcile := &stubJob{name: "pet-status-reconcile"}
	retention := &stubJob{name: "outbox-retention"}
	registry := NewRegistry(reconcile, nil)
	require.NoError(t, registry.Register(retention))

	jobs := registry.Jobs()
	require.Len(t, jobs, 2)
	assert.Same(t, reconcile, jobs[0])
	assert.Same(t, retention, jobs[1])
	assert.Equal(t, []string{"pet-status-reconcile", "outbox-retention"}, registry.Names())

	jobs[0] = nil
	assert.NotNil(t, registry.Jobs()[0])
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	registry := NewRegistry(&stubJob{name: "outbox-retention"})
	assert.Error(t, registry.Register(&stubJob{name: "outbox-retention"}))
	assert.Panics(t, func() { NewRegistry(&stubJob{name: "a"}, &stubJob{name: "a"}) })
}
