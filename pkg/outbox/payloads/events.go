package payloads

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
)

// PetCreatedEvent announces a new listing.
type PetCreatedEvent struct {
	PetID      uuid.UUID       `json:"pet_id"`
	OwnerID    uuid.UUID       `json:"owner_id"`
	Status     enums.PetStatus `json:"status"`
	DonationID *uuid.UUID      `json:"donation_id,omitempty"`
}

// PetStatusChangedEvent is emitted for every pet status transition.
type PetStatusChangedEvent struct {
	PetID   uuid.UUID       `json:"pet_id"`
	OwnerID uuid.UUID       `json:"owner_id"`
	From    enums.PetStatus `json:"from"`
	To      enums.PetStatus `json:"to"`
	Reason  string          `json:"reason,omitempty"`
}

// AdoptionSubmittedEvent notifies a pet owner about a new application.
type AdoptionSubmittedEvent struct {
	AdoptionID  uuid.UUID `json:"adoption_id"`
	PetID       uuid.UUID `json:"pet_id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	ApplicantID uuid.UUID `json:"applicant_id"`
}

// AdoptionStatusChangedEvent notifies the applicant about a decision.
type AdoptionStatusChangedEvent struct {
	AdoptionID  uuid.UUID            `json:"adoption_id"`
	PetID       uuid.UUID            `json:"pet_id"`
	ApplicantID uuid.UUID            `json:"applicant_id"`
	From        enums.AdoptionStatus `json:"from"`
	To          enums.AdoptionStatus `json:"to"`
	Forced      bool                 `json:"forced,omitempty"`
}

// DonationSubmittedEvent queues a donation for staff review.
type DonationSubmittedEvent struct {
	DonationID uuid.UUID `json:"donation_id"`
	DonorID    uuid.UUID `json:"donor_id"`
	PhotoCount int       `json:"photo_count"`
}

// DonationStatusChangedEvent tracks review progress.
type DonationStatusChangedEvent struct {
	DonationID uuid.UUID            `json:"donation_id"`
	DonorID    uuid.UUID            `json:"donor_id"`
	From       enums.DonationStatus `json:"from"`
	To         enums.DonationStatus `json:"to"`
	ReviewerID *uuid.UUID           `json:"reviewer_id,omitempty"`
	Note       *string              `json:"note,omitempty"`
}

// DonationApprovedEvent links an approved donation to the pet it created.
type DonationApprovedEvent struct {
	DonationID uuid.UUID `json:"donation_id"`
	DonorID    uuid.UUID `json:"donor_id"`
	PetID      uuid.UUID `json:"pet_id"`
	ReviewerID uuid.UUID `json:"reviewer_id"`
	CoverKey   *string   `json:"cover_key,omitempty"`
}

// LostReportCreatedEvent announces a missing animal.
type LostReportCreatedEvent struct {
	LostReportID uuid.UUID  `json:"lost_report_id"`
	ReporterID   uuid.UUID  `json:"reporter_id"`
	PetID        *uuid.UUID `json:"pet_id,omitempty"`
	Species      string     `json:"species"`
	City         *string    `json:"city,omitempty"`
}

// LostReportStatusChangedEvent is emitted when a report is resolved.
type LostReportStatusChangedEvent struct {
	LostReportID uuid.UUID              `json:"lost_report_id"`
	ReporterID   uuid.UUID              `json:"reporter_id"`
	From         enums.LostReportStatus `json:"from"`
	To           enums.LostReportStatus `json:"to"`
}

// VerificationCodeRequestedEvent asks the notifier to deliver a code.
type VerificationCodeRequestedEvent struct {
	UserID  uuid.UUID `json:"user_id"`
	Channel string    `json:"channel"`
	Target  string    `json:"target"`
	Code    string    `json:"code"`
	TTLSecs int       `json:"ttl_seconds"`
}
