package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/pawhaven-backend/pkg/db/models"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox/registry"
)

var errNoPublisher = errors.New("no publisher configured")

type outcome int

const (
	outcomePublished outcome = iota
	outcomeRetry
	outcomeDeadLetter
)

func (o outcome) String() string {
	switch o {
	case outcomePublished:
		return "published"
	case outcomeRetry:
		return "retry"
	default:
		return "dead_letter"
	}
}

// verdict is what happened to one row. settle turns it into writes.
type verdict struct {
	outcome  outcome
	reason   enums.OutboxDLQErrorReason
	err      error
	topic    string
	envelope outbox.Envelope
}

func deadLetter(reason enums.OutboxDLQErrorReason, err error) verdict {
	return verdict{outcome: outcomeDeadLetter, reason: reason, err: err}
}

// dispatch resolves and publishes a single row without touching the database.
func (s *Service) dispatch(ctx context.Context, event models.OutboxEvent) verdict {
	resolved, err := s.registry.Resolve(event)
	if err != nil {
		return deadLetter(enums.OutboxDLQReasonNonRetryable, err)
	}

	err = s.publish(ctx, event, resolved)
	var v verdict
	switch attempt := event.AttemptCount + 1; {
	case err == nil:
		v = verdict{outcome: outcomePublished}
	case registry.IsPermanent(err):
		v = deadLetter(enums.OutboxDLQReasonNonRetryable, err)
	case attempt >= s.maxAttempts:
		v = deadLetter(enums.OutboxDLQReasonMaxAttempts, fmt.Errorf("gave up after %d attempts: %w", attempt, err))
	default:
		v = verdict{outcome: outcomeRetry, err: err}
	}
	v.topic = resolved.Route.Topic
	v.envelope = resolved.Envelope
	return v
}

func (s *Service) publish(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	topic := resolved.Route.Topic
	pub := s.topics(topic)
	if pub == nil {
		return registry.Permanent(fmt.Errorf("%w for topic %s", errNoPublisher, topic))
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	result := pub.Publish(ctx, messageFor(event, resolved.Envelope))
	if result == nil {
		return registry.Permanent(fmt.Errorf("topic %s returned no publish result", topic))
	}
	_, err := result.Get(ctx)
	return err
}

// settle records the verdict on the row inside the batch transaction. An
// error here aborts the whole batch so no row is marked twice.
func (s *Service) settle(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, v verdict) error {
	logCtx := s.logg.WithFields(ctx, v.fields(event))

	switch v.outcome {
	case outcomePublished:
		if err := s.events.MarkPublished(tx, event.ID); err != nil {
			return fmt.Errorf("mark %s published: %w", event.ID, err)
		}
		s.logg.Info(logCtx, "outbox event published")

	case outcomeRetry:
		retryAt := s.now().UTC().Add(retryDelay(event.AttemptCount + 1))
		retryAt = retryAt.Add(time.Duration(rand.Int63n(int64(jitterWindow))))
		if err := s.events.RecordFailure(tx, event.ID, v.err, retryAt); err != nil {
			return fmt.Errorf("record failure for %s: %w", event.ID, err)
		}
		s.logg.Warn(logCtx, "outbox publish failed, will retry")

	case outcomeDeadLetter:
		entry := event.DeadLetter(v.reason, v.err.Error(), s.now().UTC())
		if err := s.deadLetters.Record(tx, entry); err != nil {
			return fmt.Errorf("dead-letter %s: %w", event.ID, err)
		}
		if err := s.events.Park(tx, event.ID, v.err, s.maxAttempts); err != nil {
			return fmt.Errorf("park %s: %w", event.ID, err)
		}
		s.logg.Warn(logCtx, "outbox event dead-lettered")
	}
	return nil
}

func (v verdict) fields(event models.OutboxEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
		"outcome":        v.outcome.String(),
	}
	if v.topic != "" {
		fields["topic"] = v.topic
	}
	if v.envelope.EventID != "" {
		fields["event_id"] = v.envelope.EventID
	}
	if v.err != nil {
		fields["error"] = v.err.Error()
	}
	if v.reason != "" {
		fields["error_reason"] = v.reason
	}
	return fields
}
