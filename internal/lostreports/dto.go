package lostreports

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pawhaven-backend/internal/address"
	"github.com/angelmondragon/pawhaven-backend/pkg/db/models"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	"github.com/angelmondragon/pawhaven-backend/pkg/pagination"
)

type CreateInput struct {
	PetID        *uuid.UUID
	PetName      string
	Species      string
	Breed        *string
	Color        *string
	Sex          *enums.PetSex
	Size         *enums.PetSize
	Description  string
	Address      *address.Input
	LostAt       time.Time
	Reward       *decimal.Decimal
	PhotoKey     *string
	ContactPhone *string
	ContactEmail *string
}

// ListParams filters the public report feed. LostFrom and LostTo are
// inclusive bounds on lost_at.
type ListParams struct {
	Query    string
	Species  string
	Breed    string
	Color    string
	Sex      *enums.PetSex
	Size     *enums.PetSize
	Status   *enums.LostReportStatus
	Mine     bool
	LostFrom *time.Time
	LostTo   *time.Time
	pagination.Params
}

type ReportView struct {
	ID           uuid.UUID              `json:"id"`
	ReporterID   uuid.UUID              `json:"reporter_id"`
	PetID        *uuid.UUID             `json:"pet_id,omitempty"`
	PetName      string                 `json:"pet_name"`
	Species      string                 `json:"species"`
	Breed        *string                `json:"breed,omitempty"`
	Color        *string                `json:"color,omitempty"`
	Sex          *enums.PetSex          `json:"sex,omitempty"`
	Size         *enums.PetSize         `json:"size,omitempty"`
	Description  string                 `json:"description"`
	Address      *address.View          `json:"address,omitempty"`
	LostAt       time.Time              `json:"lost_at"`
	Reward       *decimal.Decimal       `json:"reward,omitempty"`
	PhotoKey     *string                `json:"photo_key,omitempty"`
	ContactPhone *string                `json:"contact_phone,omitempty"`
	ContactEmail *string                `json:"contact_email,omitempty"`
	Status       enums.LostReportStatus `json:"status"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

type ListResult = pagination.Page[ReportView]

func toView(m models.LostReport) ReportView {
	view := ReportView{
		ID:           m.ID,
		ReporterID:   m.ReporterID,
		PetID:        m.PetID,
		PetName:      m.PetName,
		Species:      m.Species,
		Breed:        m.Breed,
		Color:        m.Color,
		Sex:          m.Sex,
		Size:         m.Size,
		Description:  m.Description,
		Address:      address.ToView(m.Address),
		LostAt:       m.LostAt,
		PhotoKey:     m.PhotoKey,
		ContactPhone: m.ContactPhone,
		ContactEmail: m.ContactEmail,
		Status:       m.Status,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.Reward.Valid {
		reward := m.Reward.Decimal
		view.Reward = &reward
	}
	return view
}
