package main

import (
	"context"
	"errors"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/pawhaven-backend/pkg/db/models"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox"
)

type pubSubClient interface {
	Ping(context.Context) error
	PetEventsPublisher() *gcppubsub.Publisher
	Publisher(name string) *gcppubsub.Publisher
}

// topicLookup returns nil for topics nothing can publish to.
type topicLookup func(topic string) publisher

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

func pubSubTopics(client pubSubClient, petTopic string) topicLookup {
	return func(topic string) publisher {
		var p *gcppubsub.Publisher
		if topic == petTopic {
			p = client.PetEventsPublisher()
		} else {
			p = client.Publisher(topic)
		}
		if p == nil {
			return nil
		}
		return gcpPublisher{p}
	}
}

// messageFor publishes the stored envelope as is. Attributes let subscribers
// filter without decoding the body.
func messageFor(event models.OutboxEvent, env outbox.Envelope) *gcppubsub.Message {
	return &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_id":       env.EventID,
			"outbox_id":      event.ID.String(),
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"occurred_at":    env.OccurredAt.UTC().Format(time.RFC3339Nano),
		},
	}
}

type gcpPublisher struct {
	p *gcppubsub.Publisher
}

func (g gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return gcpResult{g.p.Publish(ctx, msg)}
}

type gcpResult struct {
	r *gcppubsub.PublishResult
}

func (g gcpResult) Get(ctx context.Context) (string, error) {
	if g.r == nil {
		return "", errors.New("empty publish result")
	}
	return g.r.Get(ctx)
}
