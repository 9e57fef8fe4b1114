package donations

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/pawhaven-backend/internal/address"
	"github.com/angelmondragon/pawhaven-backend/internal/pets"
	"github.com/angelmondragon/pawhaven-backend/pkg/db/models"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	"github.com/angelmondragon/pawhaven-backend/pkg/pagination"
)

// MaxReviewNoteLength bounds the reviewer's note.
const MaxReviewNoteLength = 200

// CreateInput is a donor's submission.
type CreateInput struct {
	Name         string
	Species      string
	Breed        *string
	Sex          *enums.PetSex
	AgeYears     int
	AgeMonths    int
	Description  string
	Address      *address.Input
	Dewormed     bool
	Vaccinated   bool
	Microchipped bool
	IsStray      bool
	ContactPhone *string
	PhotoKeys    []string
}

type ListParams struct {
	Status *enums.DonationStatus
	pagination.Params
}

type DonationView struct {
	ID           uuid.UUID            `json:"id"`
	DonorID      uuid.UUID            `json:"donor_id"`
	Name         string               `json:"name"`
	Species      string               `json:"species"`
	Breed        *string              `json:"breed,omitempty"`
	Sex          *enums.PetSex        `json:"sex,omitempty"`
	AgeYears     int                  `json:"age_years"`
	AgeMonths    int                  `json:"age_months"`
	Description  string               `json:"description"`
	Address      *address.View        `json:"address,omitempty"`
	Dewormed     bool                 `json:"dewormed"`
	Vaccinated   bool                 `json:"vaccinated"`
	Microchipped bool                 `json:"microchipped"`
	IsStray      bool                 `json:"is_stray"`
	ContactPhone *string              `json:"contact_phone,omitempty"`
	Status       enums.DonationStatus `json:"status"`
	ReviewerID   *uuid.UUID           `json:"reviewer_id,omitempty"`
	ReviewNote   *string              `json:"review_note,omitempty"`
	CreatedPetID *uuid.UUID           `json:"created_pet_id,omitempty"`
	PhotoKeys    []string             `json:"photo_keys"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// ApproveResult reports the pet behind an approved donation. Created is false
// when the donation had already been approved.
type ApproveResult struct {
	Pet     pets.PetView `json:"pet"`
	Created bool         `json:"created"`
}

// BatchResult summarises a bulk admin action.
type BatchResult struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type ListResult = pagination.Page[DonationView]

func toView(m models.Donation) DonationView {
	keys := make([]string, len(m.Photos))
	for i, photo := range m.Photos {
		keys[i] = photo.ObjectKey
	}
	return DonationView{
		ID:           m.ID,
		DonorID:      m.DonorID,
		Name:         m.Name,
		Species:      m.Species,
		Breed:        m.Breed,
		Sex:          m.Sex,
		AgeYears:     m.AgeYears,
		AgeMonths:    m.AgeMonths,
		Description:  m.Description,
		Address:      address.ToView(m.Address),
		Dewormed:     m.Dewormed,
		Vaccinated:   m.Vaccinated,
		Microchipped: m.Microchipped,
		IsStray:      m.IsStray,
		ContactPhone: m.ContactPhone,
		Status:       m.Status,
		ReviewerID:   m.ReviewerID,
		ReviewNote:   m.ReviewNote,
		CreatedPetID: m.CreatedPetID,
		PhotoKeys:    keys,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
