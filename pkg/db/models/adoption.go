package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
)

// Adoption is one applicant's request to adopt a pet.
type Adoption struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	PetID       uuid.UUID            `gorm:"column:pet_id;type:uuid;not null;index"`
	ApplicantID uuid.UUID            `gorm:"column:applicant_id;type:uuid;not null;index"`
	Message     string               `gorm:"column:message;not null;default:''"`
	Status      enums.AdoptionStatus `gorm:"column:status;type:adoption_status;not null;default:'submitted'"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Adoption) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
