package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
)

// Donation is a submission offering an animal for adoption. Approval turns it
// into exactly one Pet.
type Donation struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	DonorID      uuid.UUID            `gorm:"column:donor_id;type:uuid;not null;index"`
	Name         string               `gorm:"column:name;not null"`
	Species      string               `gorm:"column:species;not null"`
	Breed        *string              `gorm:"column:breed"`
	Sex          *enums.PetSex        `gorm:"column:sex;type:pet_sex"`
	AgeYears     int                  `gorm:"column:age_years;not null;default:0"`
	AgeMonths    int                  `gorm:"column:age_months;not null;default:0"`
	Description  string               `gorm:"column:description;not null;default:''"`
	AddressID    *uuid.UUID           `gorm:"column:address_id;type:uuid"`
	Address      *Address             `gorm:"foreignKey:AddressID"`
	Dewormed     bool                 `gorm:"column:dewormed;not null;default:false"`
	Vaccinated   bool                 `gorm:"column:vaccinated;not null;default:false"`
	Microchipped bool                 `gorm:"column:microchipped;not null;default:false"`
	IsStray      bool                 `gorm:"column:is_stray;not null;default:false"`
	ContactPhone *string              `gorm:"column:contact_phone"`
	Status       enums.DonationStatus `gorm:"column:status;type:donation_status;not null;default:'submitted'"`
	ReviewerID   *uuid.UUID           `gorm:"column:reviewer_id;type:uuid"`
	ReviewNote   *string              `gorm:"column:review_note;size:200"`
	CreatedPetID *uuid.UUID           `gorm:"column:created_pet_id;type:uuid;uniqueIndex"`
	Photos       []DonationPhoto      `gorm:"foreignKey:DonationID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (d *Donation) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	return nil
}

// DonationPhoto references an uploaded object. Photos are ordered by id.
type DonationPhoto struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	DonationID uuid.UUID `gorm:"column:donation_id;type:uuid;not null;index"`
	ObjectKey  string    `gorm:"column:object_key;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
