package enums

import "fmt"

// DonationStatus maps to the donation_status enum in Postgres.
type DonationStatus string

const (
	DonationStatusSubmitted DonationStatus = "submitted"
	DonationStatusReviewing DonationStatus = "reviewing"
	DonationStatusApproved  DonationStatus = "approved"
	DonationStatusRejected  DonationStatus = "rejected"
	DonationStatusClosed    DonationStatus = "closed"
)

var validDonationStatuses = []DonationStatus{
	DonationStatusSubmitted,
	DonationStatusReviewing,
	DonationStatusApproved,
	DonationStatusRejected,
	DonationStatusClosed,
}

func (s DonationStatus) String() string {
	return string(s)
}

func (s DonationStatus) IsValid() bool {
	for _, candidate := range validDonationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanApprove reports whether a reviewer may approve a donation in this status.
// Approved is included so that re-approval without a pet can finish the job.
func (s DonationStatus) CanApprove() bool {
	switch s {
	case DonationStatusSubmitted, DonationStatusReviewing, DonationStatusApproved:
		return true
	default:
		return false
	}
}

// CanReject reports whether the donation is still in review.
func (s DonationStatus) CanReject() bool {
	return s == DonationStatusSubmitted || s == DonationStatusReviewing
}

func ParseDonationStatus(value string) (DonationStatus, error) {
	for _, candidate := range validDonationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid donation status %q", value)
}
