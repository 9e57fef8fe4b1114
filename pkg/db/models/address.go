package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Address is a postal location shared by pets, donations and lost reports.
type Address struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Country        string              `gorm:"column:country;not null"`
	Region         *string             `gorm:"column:region"`
	City           string              `gorm:"column:city;not null"`
	Street         *string             `gorm:"column:street"`
	BuildingNumber *string             `gorm:"column:building_number"`
	PostalCode     *string             `gorm:"column:postal_code"`
	Lat            decimal.NullDecimal `gorm:"column:lat;type:numeric(9,6)"`
	Lng            decimal.NullDecimal `gorm:"column:lng;type:numeric(9,6)"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Address) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
