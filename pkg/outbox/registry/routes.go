// Package registry routes outbox rows to Pub/Sub topics and decodes their
// payloads into the typed structs in package payloads.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/angelmondragon/pawhaven-backend/pkg/config"
	"github.com/angelmondragon/pawhaven-backend/pkg/db/models"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox/payloads"
)

// Route ties an event type to the aggregate it belongs to, the topic it is
// published on and the payload struct it decodes into.
type Route struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string
	newPayload    func() any
}

// ResolvedEvent is a validated outbox row ready to publish.
type ResolvedEvent struct {
	Route    Route
	Envelope outbox.Envelope
	Payload  any
}

// PermanentError marks a row that will fail the same way on every attempt.
type PermanentError struct {
	Err error
}

func (e PermanentError) Error() string {
	if e.Err == nil {
		return "permanent outbox failure"
	}
	return e.Err.Error()
}

func (e PermanentError) Unwrap() error { return e.Err }

func Permanent(err error) error {
	return PermanentError{Err: err}
}

// IsPermanent reports whether retrying err is pointless.
func IsPermanent(err error) bool {
	var perm PermanentError
	return errors.As(err, &perm)
}

func payloadOf[T any]() func() any {
	return func() any { return new(T) }
}

// EventRegistry resolves outbox rows by event type.
type EventRegistry struct {
	routes map[enums.OutboxEventType]Route
}

// NewEventRegistry sends lifecycle events to the pet events topic and events
// meant to reach a person to the notification topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	switch {
	case cfg.PetEventsTopic == "":
		return nil, errors.New("pet events topic is required")
	case cfg.NotificationTopic == "":
		return nil, errors.New("notification topic is required")
	}

	pets, notify := cfg.PetEventsTopic, cfg.NotificationTopic
	routes := []Route{
		{enums.EventPetCreated, enums.AggregatePet, pets, payloadOf[payloads.PetCreatedEvent]()},
		{enums.EventPetStatusChanged, enums.AggregatePet, pets, payloadOf[payloads.PetStatusChangedEvent]()},
		{enums.EventDonationSubmitted, enums.AggregateDonation, pets, payloadOf[payloads.DonationSubmittedEvent]()},
		{enums.EventDonationStatusChanged, enums.AggregateDonation, pets, payloadOf[payloads.DonationStatusChangedEvent]()},
		{enums.EventDonationApproved, enums.AggregateDonation, pets, payloadOf[payloads.DonationApprovedEvent]()},
		{enums.EventLostReportCreated, enums.AggregateLostReport, pets, payloadOf[payloads.LostReportCreatedEvent]()},
		{enums.EventLostReportStatusChanged, enums.AggregateLostReport, pets, payloadOf[payloads.LostReportStatusChangedEvent]()},
		{enums.EventAdoptionSubmitted, enums.AggregateAdoption, notify, payloadOf[payloads.AdoptionSubmittedEvent]()},
		{enums.EventAdoptionStatusChanged, enums.AggregateAdoption, notify, payloadOf[payloads.AdoptionStatusChangedEvent]()},
		{enums.EventVerificationCodeRequested, enums.AggregateVerification, notify, payloadOf[payloads.VerificationCodeRequestedEvent]()},
	}

	reg := &EventRegistry{routes: make(map[enums.OutboxEventType]Route, len(routes))}
	for _, route := range routes {
		reg.routes[route.EventType] = route
	}
	return reg, nil
}

// Route returns the route registered for eventType.
func (r *EventRegistry) Route(eventType enums.OutboxEventType) (Route, bool) {
	route, ok := r.routes[eventType]
	return route, ok
}

// Topics lists the distinct topics, sorted.
func (r *EventRegistry) Topics() []string {
	seen := make(map[string]bool)
	topics := make([]string, 0, 2)
	for _, route := range r.routes {
		if !seen[route.Topic] {
			seen[route.Topic] = true
			topics = append(topics, route.Topic)
		}
	}
	sort.Strings(topics)
	return topics
}

// Resolve checks the row against its route and decodes the payload. Every
// error it returns is permanent.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	route, ok := r.routes[event.EventType]
	if !ok {
		return nil, Permanent(fmt.Errorf("no route for event type %s", event.EventType))
	}
	if route.AggregateType != event.AggregateType {
		return nil, Permanent(fmt.Errorf("%s belongs to %s aggregates, row says %s", event.EventType, route.AggregateType, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, Permanent(errors.New("aggregate_id is empty"))
	}

	env, err := outbox.DecodeEnvelope(event.Payload)
	if err != nil {
		return nil, Permanent(fmt.Errorf("%s: %w", event.EventType, err))
	}
	payload := route.newPayload()
	if err := json.Unmarshal(env.Data, payload); err != nil {
		return nil, Permanent(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}
	return &ResolvedEvent{Route: route, Envelope: env, Payload: payload}, nil
}
