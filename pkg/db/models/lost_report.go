package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
)

// LostReport is a public notice about a missing animal.
type LostReport struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	ReporterID   uuid.UUID              `gorm:"column:reporter_id;type:uuid;not null;index"`
	PetID        *uuid.UUID             `gorm:"column:pet_id;type:uuid"`
	PetName      string                 `gorm:"column:pet_name;not null"`
	Species      string                 `gorm:"column:species;not null"`
	Breed        *string                `gorm:"column:breed"`
	Color        *string                `gorm:"column:color"`
	Sex          *enums.PetSex          `gorm:"column:sex;type:pet_sex"`
	Size         *enums.PetSize         `gorm:"column:size;type:pet_size"`
	Description  string                 `gorm:"column:description;not null;default:''"`
	AddressID    *uuid.UUID             `gorm:"column:address_id;type:uuid"`
	Address      *Address               `gorm:"foreignKey:AddressID"`
	LostAt       time.Time              `gorm:"column:lost_at;not null"`
	Reward       decimal.NullDecimal    `gorm:"column:reward;type:numeric(12,2)"`
	PhotoKey     *string                `gorm:"column:photo_key"`
	ContactPhone *string                `gorm:"column:contact_phone"`
	ContactEmail *string                `gorm:"column:contact_email"`
	Status       enums.LostReportStatus `gorm:"column:status;type:lost_report_status;not null;default:'open'"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *LostReport) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}
