package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/pawhaven-backend/pkg/config"
	"github.com/angelmondragon/pawhaven-backend/pkg/db/models"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	"github.com/angelmondragon/pawhaven-backend/pkg/logger"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox/registry"
)

const (
	testPetTopic    = "pet-events"
	testNotifyTopic = "notifications"
)

func TestDrainKeepsGoingAfterTransientFailure(t *testing.T) {
	first := petStatusRow(t, 0)
	second := petStatusRow(t, 0)
	h := newHarness(t, config.OutboxConfig{}, first, second)
	h.pub.errs = []error{errors.New("unavailable"), nil}

	handled, err := h.svc.drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, handled)

	assert.Equal(t, []uuid.UUID{first.ID}, h.store.failed)
	require.Len(t, h.store.retryAt, 1)
	assert.False(t, h.store.retryAt[0].Before(h.clock.Add(firstRetryDelay)), "failed row waits before its next claim")
	assert.True(t, h.store.retryAt[0].Before(h.clock.Add(firstRetryDelay+jitterWindow)))
	assert.Equal(t, []uuid.UUID{second.ID}, h.store.published)
	assert.Empty(t, h.dlq.entries)
	require.Len(t, h.pub.sent, 2)
	assert.Equal(t, first.ID.String(), h.pub.sent[0].Attributes["outbox_id"])
	assert.Equal(t, string(enums.EventPetStatusChanged), h.pub.sent[0].Attributes["event_type"])
	assert.JSONEq(t, string(first.Payload), string(h.pub.sent[0].Data))
}

func TestDrainDeadLettersUnroutableTopic(t *testing.T) {
	row := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventAdoptionSubmitted,
		AggregateType: enums.AggregateAdoption,
		AggregateID:   uuid.New(),
		Payload:       envelope(t, map[string]string{"adoption_id": uuid.NewString()}),
	}
	h := newHarness(t, config.OutboxConfig{}, row)
	h.svc.topics = func(topic string) publisher {
		assert.Equal(t, testNotifyTopic, topic)
		return nil
	}

	_, err := h.svc.drain(context.Background())
	require.NoError(t, err)

	assert.Empty(t, h.store.published)
	require.Len(t, h.dlq.entries, 1)
	assert.Equal(t, enums.OutboxDLQReasonNonRetryable, h.dlq.entries[0].ErrorReason)
	require.NotNil(t, h.dlq.entries[0].ErrorMessage)
	assert.Contains(t, *h.dlq.entries[0].ErrorMessage, errNoPublisher.Error())
	assert.Equal(t, []uuid.UUID{row.ID}, h.store.parked)
}

func TestDrainDeadLettersUndecodableRow(t *testing.T) {
	row := petStatusRow(t, 0)
	row.Payload = json.RawMessage(`{"version":1,"eventId":"x","data":null}`)
	h := newHarness(t, config.OutboxConfig{}, row)

	_, err := h.svc.drain(context.Background())
	require.NoError(t, err)

	require.Len(t, h.dlq.entries, 1)
	entry := h.dlq.entries[0]
	assert.Equal(t, row.ID, entry.EventID)
	assert.JSONEq(t, string(row.Payload), string(entry.Payload))
	assert.Equal(t, enums.OutboxDLQReasonNonRetryable, entry.ErrorReason)
	assert.Equal(t, h.clock, entry.FailedAt)
	assert.Empty(t, h.pub.sent, "nothing is published for a broken row")
	assert.Equal(t, []uuid.UUID{row.ID}, h.store.parked)
}

func TestDrainDeadLettersAtMaxAttempts(t *testing.T) {
	row := petStatusRow(t, 1)
	h := newHarness(t, config.OutboxConfig{BatchSize: 1, MaxAttempts: 2}, row)
	h.pub.errs = []error{errors.New("deadline exceeded")}

	_, err := h.svc.drain(context.Background())
	require.NoError(t, err)

	require.Len(t, h.dlq.entries, 1)
	assert.Equal(t, enums.OutboxDLQReasonMaxAttempts, h.dlq.entries[0].ErrorReason)
	assert.Contains(t, *h.dlq.entries[0].ErrorMessage, "deadline exceeded")
	assert.Empty(t, h.store.failed)
	assert.Equal(t, []uuid.UUID{row.ID}, h.store.parked)
	assert.Equal(t, 2, h.store.ceiling)
}

func TestDrainPermanentPublishErrorSkipsRetries(t *testing.T) {
	row := petStatusRow(t, 0)
	h := newHarness(t, config.OutboxConfig{}, row)
	h.pub.errs = []error{registry.Permanent(errors.New("message too large"))}

	_, err := h.svc.drain(context.Background())
	require.NoError(t, err)

	require.Len(t, h.dlq.entries, 1)
	assert.Equal(t, enums.OutboxDLQReasonNonRetryable, h.dlq.entries[0].ErrorReason)
	assert.Empty(t, h.store.failed)
}

func TestDrainAbortsWhenSettleFails(t *testing.T) {
	h := newHarness(t, config.OutboxConfig{}, petStatusRow(t, 0))
	h.store.markErr = errors.New("connection reset")

	_, err := h.svc.drain(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, h.store.markErr)
}

func TestDrainEmptyBatch(t *testing.T) {
	h := newHarness(t, config.OutboxConfig{})

	handled, err := h.svc.drain(context.Background())
	require.NoError(t, err)
	assert.Zero(t, handled)
}

func TestNewServiceDefaultsAndValidation(t *testing.T) {
	h := newHarness(t, config.OutboxConfig{})
	assert.Equal(t, defaultBatchSize, h.svc.batchSize)
	assert.Equal(t, defaultMaxAttempts, h.svc.maxAttempts)
	assert.Equal(t, defaultPoll, h.svc.poll)

	_, err := NewService(ServiceParams{Config: &config.Config{}, Logger: logger.Nop()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database")
	assert.Contains(t, err.Error(), "registry")
	assert.NotContains(t, err.Error(), "logger")
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(t, config.OutboxConfig{PollIntervalMS: 5}, petStatusRow(t, 0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.svc.Run(ctx) }()

	require.Eventually(t, func() bool { return h.store.publishedCount() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("publisher did not stop")
	}
}

func TestRunFailsWhenDependenciesAreDown(t *testing.T) {
	h := newHarness(t, config.OutboxConfig{})
	h.db.pingErr = errors.New("db down")
	h.pubsub.pingErr = errors.New("pubsub down")

	err := h.svc.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, h.db.pingErr)
	assert.ErrorIs(t, err, h.pubsub.pingErr)
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	b := newBackoff(time.Second, 3*time.Second)

	first := b.next()
	assert.GreaterOrEqual(t, first, 2*time.Second)
	assert.Less(t, first, 2*time.Second+jitterWindow)

	second := b.next()
	assert.GreaterOrEqual(t, second, 3*time.Second)
	assert.Less(t, second, 3*time.Second+jitterWindow)

	b.reset()
	assert.Less(t, b.idle(), time.Second+jitterWindow)
}

func TestRetryDelayGrowsPerAttempt(t *testing.T) {
	assert.Equal(t, firstRetryDelay, retryDelay(1))
	assert.Equal(t, 2*firstRetryDelay, retryDelay(2))
	assert.Equal(t, 8*firstRetryDelay, retryDelay(4))
	assert.Equal(t, maxRetryDelay, retryDelay(40))
}

func TestRetryScheduleFollowsAttemptCount(t *testing.T) {
	row := petStatusRow(t, 3)
	h := newHarness(t, config.OutboxConfig{}, row)
	h.pub.errs = []error{errors.New("unavailable")}

	_, err := h.svc.drain(context.Background())
	require.NoError(t, err)
	require.Len(t, h.store.retryAt, 1)
	wait := h.store.retryAt[0].Sub(h.clock)
	assert.GreaterOrEqual(t, wait, retryDelay(4))
	assert.Less(t, wait, retryDelay(4)+jitterWindow)
}

func TestMessageForCarriesRoutingAttributes(t *testing.T) {
	row := petStatusRow(t, 0)
	occurred := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := messageFor(row, outbox.Envelope{EventID: "evt-1", OccurredAt: occurred})

	assert.Equal(t, "evt-1", msg.Attributes["event_id"])
	assert.Equal(t, row.AggregateID.String(), msg.Attributes["aggregate_id"])
	assert.Equal(t, string(enums.AggregatePet), msg.Attributes["aggregate_type"])
	assert.Equal(t, "2026-03-01T12:00:00Z", msg.Attributes["occurred_at"])
}

func TestPubSubTopicsPrefersPetEventsPublisher(t *testing.T) {
	client := &fakePubSub{}
	lookup := pubSubTopics(client, testPetTopic)

	assert.Nil(t, lookup(testPetTopic), "nil publisher handles map to nil")
	assert.Equal(t, 1, client.petCalls)
	assert.Empty(t, client.named)

	assert.Nil(t, lookup(testNotifyTopic))
	assert.Equal(t, []string{testNotifyTopic}, client.named)
}

type harness struct {
	svc    *Service
	store  *fakeStore
	dlq    *fakeDeadLetters
	pub    *fakePublisher
	db     *fakeDB
	pubsub *fakePubSub
	clock  time.Time
}

func newHarness(t *testing.T, outboxCfg config.OutboxConfig, rows ...models.OutboxEvent) *harness {
	t.Helper()
	reg, err := registry.NewEventRegistry(config.PubSubConfig{
		PetEventsTopic:    testPetTopic,
		NotificationTopic: testNotifyTopic,
	})
	require.NoError(t, err)

	h := &harness{
		store:  &fakeStore{pending: rows},
		dlq:    &fakeDeadLetters{},
		pub:    &fakePublisher{},
		db:     &fakeDB{},
		pubsub: &fakePubSub{},
		clock:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	svc, err := NewService(ServiceParams{
		Config:      &config.Config{Outbox: outboxCfg},
		Logger:      logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard}),
		DB:          h.db,
		PubSub:      h.pubsub,
		Events:      h.store,
		DeadLetters: h.dlq,
		Registry:    reg,
		Topics:      func(string) publisher { return h.pub },
	})
	require.NoError(t, err)
	svc.now = func() time.Time { return h.clock }
	h.svc = svc
	return h
}

func petStatusRow(t *testing.T, attempts int) models.OutboxEvent {
	t.Helper()
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventPetStatusChanged,
		AggregateType: enums.AggregatePet,
		AggregateID:   uuid.New(),
		Payload:       envelope(t, map[string]string{"pet_id": uuid.NewString(), "from": "available", "to": "pending"}),
		AttemptCount:  attempts,
	}
}

func envelope(t *testing.T, data any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	out, err := json.Marshal(outbox.Envelope{Version: 1, EventID: uuid.NewString(), OccurredAt: time.Now().UTC(), Data: raw})
	require.NoError(t, err)
	return out
}

// fakeStore hands out its pending rows once, like a claimed batch.
type fakeStore struct {
	mu        sync.Mutex
	pending   []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	retryAt   []time.Time
	parked    []uuid.UUID
	ceiling   int
	markErr   error
}

func (f *fakeStore) ClaimPending(_ *gorm.DB, limit, _ int, _ time.Time) ([]models.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.pending) {
		limit = len(f.pending)
	}
	batch := f.pending[:limit]
	f.pending = f.pending[limit:]
	return batch, nil
}

func (f *fakeStore) MarkPublished(_ *gorm.DB, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	f.published = append(f.published, id)
	return nil
}

func (f *fakeStore) RecordFailure(_ *gorm.DB, id uuid.UUID, _ error, retryAt time.Time) error {
	f.failed = append(f.failed, id)
	f.retryAt = append(f.retryAt, retryAt)
	return nil
}

func (f *fakeStore) Park(_ *gorm.DB, id uuid.UUID, _ error, ceiling int) error {
	f.parked = append(f.parked, id)
	f.ceiling = ceiling
	return nil
}

func (f *fakeStore) publishedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

type fakeDeadLetters struct {
	entries []models.OutboxDLQ
}

func (f *fakeDeadLetters) Record(_ *gorm.DB, entry models.OutboxDLQ) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeDB struct {
	pingErr error
}

func (f *fakeDB) Ping(context.Context) error { return f.pingErr }

func (f *fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error {
	return fn(nil)
}

type fakePubSub struct {
	pingErr  error
	petCalls int
	named    []string
}

func (f *fakePubSub) Ping(context.Context) error { return f.pingErr }

func (f *fakePubSub) PetEventsPublisher() *gcppubsub.Publisher {
	f.petCalls++
	return nil
}

func (f *fakePubSub) Publisher(name string) *gcppubsub.Publisher {
	f.named = append(f.named, name)
	return nil
}

// fakePublisher fails with errs in order, then succeeds.
type fakePublisher struct {
	errs []error
	sent []*gcppubsub.Message
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.sent = append(f.sent, msg)
	var err error
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	return fakeResult{err: err}
}

type fakeResult struct {
	err error
}

func (f fakeResult) Get(context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "server-id", nil
}
