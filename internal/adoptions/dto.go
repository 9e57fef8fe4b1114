package adoptions

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/pawhaven-backend/pkg/db/models"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	"github.com/angelmondragon/pawhaven-backend/pkg/pagination"
)

// MaxMessageLength caps the applicant's free text.
const MaxMessageLength = 2000

// AdoptionView is the API representation of an application.
type AdoptionView struct {
	ID          uuid.UUID            `json:"id"`
	PetID       uuid.UUID            `json:"pet_id"`
	ApplicantID uuid.UUID            `json:"applicant_id"`
	Message     string               `json:"message"`
	Status      enums.AdoptionStatus `json:"status"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// ListParams filter the adoption list. Staff may combine both filters; a user
// passing PetID must own that pet.
type ListParams struct {
	PetID  *uuid.UUID
	Status *enums.AdoptionStatus
	pagination.Params
}

type ListResult = pagination.Page[AdoptionView]

func toView(m models.Adoption) AdoptionView {
	return AdoptionView{
		ID:          m.ID,
		PetID:       m.PetID,
		ApplicantID: m.ApplicantID,
		Message:     m.Message,
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
