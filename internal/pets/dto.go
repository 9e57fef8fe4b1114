package pets

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/pawhaven-backend/internal/address"
	"github.com/angelmondragon/pawhaven-backend/pkg/db/models"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	"github.com/angelmondragon/pawhaven-backend/pkg/pagination"
)

// CreateInput carries the fields an owner supplies for a new listing.
type CreateInput struct {
	Name        string
	Species     string
	Breed       *string
	Sex         *enums.PetSex
	AgeYears    int
	AgeMonths   int
	Description string
	Address     *address.Input
	CoverKey    *string
	Status      enums.PetStatus
}

// ListParams are the public catalogue filters.
type ListParams struct {
	Status  *enums.PetStatus
	Species string
	Breed   string
	Query   string
	OwnerID *uuid.UUID
	pagination.Params
}

// PetView is the API representation of a pet.
type PetView struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Species     string          `json:"species"`
	Breed       *string         `json:"breed,omitempty"`
	Sex         *enums.PetSex   `json:"sex,omitempty"`
	AgeYears    int             `json:"age_years"`
	AgeMonths   int             `json:"age_months"`
	Description string          `json:"description"`
	Address     *address.View   `json:"address,omitempty"`
	CoverKey    *string         `json:"cover_key,omitempty"`
	Status      enums.PetStatus `json:"status"`
	CreatedBy   uuid.UUID       `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// PetDetail adds the all-time unique view count to a pet.
type PetDetail struct {
	PetView
	Views int64 `json:"views"`
}

type ListResult = pagination.Page[PetView]

func ToView(m models.Pet) PetView {
	return PetView{
		ID:          m.ID,
		Name:        m.Name,
		Species:     m.Species,
		Breed:       m.Breed,
		Sex:         m.Sex,
		AgeYears:    m.AgeYears,
		AgeMonths:   m.AgeMonths,
		Description: m.Description,
		Address:     address.ToView(m.Address),
		CoverKey:    m.CoverKey,
		Status:      m.Status,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
