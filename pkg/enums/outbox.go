package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregatePet          OutboxAggregateType = "pet"
	AggregateAdoption     OutboxAggregateType = "adoption"
	AggregateDonation     OutboxAggregateType = "donation"
	AggregateLostReport   OutboxAggregateType = "lost_report"
	AggregateVerification OutboxAggregateType = "verification"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregatePet,
	AggregateAdoption,
	AggregateDonation,
	AggregateLostReport,
	AggregateVerification,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventPetCreated                OutboxEventType = "pet_created"
	EventPetStatusChanged          OutboxEventType = "pet_status_changed"
	EventAdoptionSubmitted         OutboxEventType = "adoption_submitted"
	EventAdoptionStatusChanged     OutboxEventType = "adoption_status_changed"
	EventDonationSubmitted         OutboxEventType = "donation_submitted"
	EventDonationStatusChanged     OutboxEventType = "donation_status_changed"
	EventDonationApproved          OutboxEventType = "donation_approved"
	EventLostReportCreated         OutboxEventType = "lost_report_created"
	EventLostReportStatusChanged   OutboxEventType = "lost_report_status_changed"
	EventVerificationCodeRequested OutboxEventType = "verification_code_requested"
)

var validOutboxEventTypes = []OutboxEventType{
	EventPetCreated,
	EventPetStatusChanged,
	EventAdoptionSubmitted,
	EventAdoptionStatusChanged,
	EventDonationSubmitted,
	EventDonationStatusChanged,
	EventDonationApproved,
	EventLostReportCreated,
	EventLostReportStatusChanged,
	EventVerificationCodeRequested,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// OutboxDLQErrorReason records why the publisher stopped retrying an event.
type OutboxDLQErrorReason string

const (
	// OutboxDLQReasonMaxAttempts: transient publish failures exhausted the attempt budget.
	OutboxDLQReasonMaxAttempts OutboxDLQErrorReason = "max_attempts"
	// OutboxDLQReasonNonRetryable: the row can never be published as stored.
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

func (r OutboxDLQErrorReason) IsValid() bool {
	switch r {
	case OutboxDLQReasonMaxAttempts, OutboxDLQReasonNonRetryable:
		return true
	}
	return false
}
