package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
)

// Pet is an animal listed for adoption. Pets are never hard deleted; archive
// them through their status instead.
type Pet struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name        string          `gorm:"column:name;not null"`
	Species     string          `gorm:"column:species;not null"`
	Breed       *string         `gorm:"column:breed"`
	Sex         *enums.PetSex   `gorm:"column:sex;type:pet_sex"`
	AgeYears    int             `gorm:"column:age_years;not null;default:0"`
	AgeMonths   int             `gorm:"column:age_months;not null;default:0"`
	Description string          `gorm:"column:description;not null;default:''"`
	AddressID   *uuid.UUID      `gorm:"column:address_id;type:uuid"`
	Address     *Address        `gorm:"foreignKey:AddressID"`
	CoverKey    *string         `gorm:"column:cover_key"`
	Status      enums.PetStatus `gorm:"column:status;type:pet_status;not null;default:'available'"`
	CreatedBy   uuid.UUID       `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Pet) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
