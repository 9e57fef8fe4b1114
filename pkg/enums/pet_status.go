package enums

import "fmt"

// PetStatus maps to the pet_status enum in Postgres.
type PetStatus string

const (
	PetStatusDraft     PetStatus = "draft"
	PetStatusAvailable PetStatus = "available"
	PetStatusPending   PetStatus = "pending"
	PetStatusAdopted   PetStatus = "adopted"
	PetStatusArchived  PetStatus = "archived"
	PetStatusLost      PetStatus = "lost"
)

var validPetStatuses = []PetStatus{
	PetStatusDraft,
	PetStatusAvailable,
	PetStatusPending,
	PetStatusAdopted,
	PetStatusArchived,
	PetStatusLost,
}

// String implements fmt.Stringer.
func (s PetStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known pet status.
func (s PetStatus) IsValid() bool {
	for _, candidate := range validPetStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// AcceptsApplications reports whether adopters may apply to a pet in this status.
func (s PetStatus) AcceptsApplications() bool {
	return s == PetStatusAvailable || s == PetStatusPending
}

// IsPublic reports whether the status is listed in the public catalogue.
func (s PetStatus) IsPublic() bool {
	return s == PetStatusAvailable || s == PetStatusPending
}

// IsHidden reports whether only the owner and staff may see the pet.
func (s PetStatus) IsHidden() bool {
	return s == PetStatusDraft || s == PetStatusArchived
}

// ParsePetStatus converts raw input into PetStatus.
func ParsePetStatus(value string) (PetStatus, error) {
	for _, candidate := range validPetStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pet status %q", value)
}
