package enums

import "fmt"

// AdoptionStatus maps to the adoption_status enum in Postgres.
type AdoptionStatus string

const (
	AdoptionStatusSubmitted  AdoptionStatus = "submitted"
	AdoptionStatusProcessing AdoptionStatus = "processing"
	AdoptionStatusApproved   AdoptionStatus = "approved"
	AdoptionStatusRejected   AdoptionStatus = "rejected"
	AdoptionStatusClosed     AdoptionStatus = "closed"
)

var validAdoptionStatuses = []AdoptionStatus{
	AdoptionStatusSubmitted,
	AdoptionStatusProcessing,
	AdoptionStatusApproved,
	AdoptionStatusRejected,
	AdoptionStatusClosed,
}

// OpenAdoptionStatuses lists the statuses that still hold a pet in pending.
var OpenAdoptionStatuses = []AdoptionStatus{
	AdoptionStatusSubmitted,
	AdoptionStatusProcessing,
}

func (s AdoptionStatus) String() string {
	return string(s)
}

func (s AdoptionStatus) IsValid() bool {
	for _, candidate := range validAdoptionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsOpen reports whether the application is still under consideration.
func (s AdoptionStatus) IsOpen() bool {
	return s == AdoptionStatusSubmitted || s == AdoptionStatusProcessing
}

// ParseAdoptionStatus converts raw input into AdoptionStatus.
func ParseAdoptionStatus(value string) (AdoptionStatus, error) {
	for _, candidate := range validAdoptionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid adoption status %q", value)
}
