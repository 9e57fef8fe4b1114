package main

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/pawhaven-backend/pkg/config"
	"github.com/angelmondragon/pawhaven-backend/pkg/db/models"
	"github.com/angelmondragon/pawhaven-backend/pkg/logger"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize   = 50
	defaultPoll        = 500 * time.Millisecond
	defaultMaxAttempts = 10
	publishTimeout     = 15 * time.Second
	maxIdleBackoff     = 10 * time.Second
	jitterWindow       = 250 * time.Millisecond
	firstRetryDelay    = 2 * time.Second
	maxRetryDelay      = 5 * time.Minute
)

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pinger interface {
	Ping(context.Context) error
}

type eventStore interface {
	ClaimPending(tx *gorm.DB, limit, maxAttempts int, now time.Time) ([]models.OutboxEvent, error)
	MarkPublished(tx *gorm.DB, id uuid.UUID) error
	RecordFailure(tx *gorm.DB, id uuid.UUID, cause error, retryAt time.Time) error
	Park(tx *gorm.DB, id uuid.UUID, cause error, ceiling int) error
}

type deadLetterStore interface {
	Record(tx *gorm.DB, entry models.OutboxDLQ) error
}

type resolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

// ServiceParams wires the publisher. Topics may be nil when PubSub can hand
// out publishers itself.
type ServiceParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          dbClient
	PubSub      pubSubClient
	Events      eventStore
	DeadLetters deadLetterStore
	Registry    resolver
	Topics      topicLookup
}

func (p ServiceParams) missing() []string {
	var names []string
	for name, absent := range map[string]bool{
		"config":       p.Config == nil,
		"logger":       p.Logger == nil,
		"database":     p.DB == nil,
		"pubsub":       p.PubSub == nil,
		"event store":  p.Events == nil,
		"dead letters": p.DeadLetters == nil,
		"registry":     p.Registry == nil,
	} {
		if absent {
			names = append(names, name)
		}
	}
	return names
}

// Service moves committed outbox rows onto Pub/Sub. Each row ends a batch
// published, scheduled for retry, or dead-lettered.
type Service struct {
	logg        *logger.Logger
	db          dbClient
	pubsub      pubSubClient
	events      eventStore
	deadLetters deadLetterStore
	registry    resolver
	topics      topicLookup

	batchSize   int
	maxAttempts int
	poll        time.Duration
	now         func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if missing := params.missing(); len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("outbox publisher missing %s", strings.Join(missing, ", "))
	}

	cfg := params.Config.Outbox
	svc := &Service{
		logg:        params.Logger,
		db:          params.DB,
		pubsub:      params.PubSub,
		events:      params.Events,
		deadLetters: params.DeadLetters,
		registry:    params.Registry,
		topics:      params.Topics,
		batchSize:   positiveOr(cfg.BatchSize, defaultBatchSize),
		maxAttempts: positiveOr(cfg.MaxAttempts, defaultMaxAttempts),
		poll:        time.Duration(positiveOr(cfg.PollIntervalMS, int(defaultPoll/time.Millisecond))) * time.Millisecond,
		now:         time.Now,
	}
	if svc.topics == nil {
		svc.topics = pubSubTopics(params.PubSub, params.Config.PubSub.PetEventsTopic)
	}
	return svc, nil
}

// Run drains the outbox until ctx is canceled. A full batch is followed
// straight away by the next one; an empty batch waits one poll interval and
// failing batches back off exponentially.
func (s *Service) Run(ctx context.Context) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	wait := newBackoff(s.poll, maxIdleBackoff)
	for {
		if err := ctx.Err(); err != nil {
			s.logg.Info(ctx, "outbox publisher stopping")
			return err
		}

		handled, err := s.drain(ctx)
		var pause time.Duration
		switch {
		case err != nil:
			s.logg.Error(ctx, "outbox batch failed", err)
			pause = wait.next()
		case handled > 0:
			wait.reset()
			continue
		default:
			wait.reset()
			pause = wait.idle()
		}
		if err := sleep(ctx, pause); err != nil {
			return err
		}
	}
}

// ready pings every dependency and reports all failures together.
func (s *Service) ready(ctx context.Context) error {
	var errs error
	for name, dep := range map[string]pinger{"database": s.db, "pubsub": s.pubsub} {
		if err := dep.Ping(ctx); err != nil {
			s.logg.Error(ctx, name+" ping failed", err)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errs
}

// drain claims one batch and settles every row inside a single transaction.
// It returns how many rows it claimed.
func (s *Service) drain(ctx context.Context) (int, error) {
	handled := 0
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		batch, err := s.events.ClaimPending(tx, s.batchSize, s.maxAttempts, s.now())
		if err != nil {
			return fmt.Errorf("claim outbox batch: %w", err)
		}
		handled = len(batch)
		for _, event := range batch {
			if err := s.settle(ctx, tx, event, s.dispatch(ctx, event)); err != nil {
				return err
			}
		}
		return nil
	})
	return handled, err
}

type backoff struct {
	base, max, current time.Duration
	rng                *rand.Rand
}

func newBackoff(base, max time.Duration) *backoff {
	return &backoff{
		base:    base,
		max:     max,
		current: base,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// next doubles the delay up to max and adds jitter.
func (b *backoff) next() time.Duration {
	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return b.jitter(b.current)
}

func (b *backoff) idle() time.Duration {
	return b.jitter(b.base)
}

func (b *backoff) reset() {
	b.current = b.base
}

func (b *backoff) jitter(d time.Duration) time.Duration {
	return d + time.Duration(b.rng.Int63n(int64(jitterWindow)))
}

// retryDelay is how long a row waits after its attempt-th failed publish:
// doubling from firstRetryDelay up to maxRetryDelay.
func retryDelay(attempt int) time.Duration {
	delay := firstRetryDelay
	for i := 1; i < attempt && delay < maxRetryDelay; i++ {
		delay *= 2
	}
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
