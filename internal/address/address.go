package address

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pawhaven-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/pawhaven-backend/pkg/errors"
)

var (
	minLat = decimal.NewFromInt(-90)
	maxLat = decimal.NewFromInt(90)
	minLng = decimal.NewFromInt(-180)
	maxLng = decimal.NewFromInt(180)
)

// Input is an address supplied inline with a pet, donation or lost report.
type Input struct {
	Country        string           `json:"country" validate:"required,max=64"`
	Region         *string          `json:"region,omitempty" validate:"omitempty,max=128"`
	City           string           `json:"city" validate:"required,max=128"`
	Street         *string          `json:"street,omitempty" validate:"omitempty,max=256"`
	BuildingNumber *string          `json:"building_number,omitempty" validate:"omitempty,max=32"`
	PostalCode     *string          `json:"postal_code,omitempty" validate:"omitempty,max=32"`
	Lat            *decimal.Decimal `json:"lat,omitempty"`
	Lng            *decimal.Decimal `json:"lng,omitempty"`
}

// View is the response shape of a stored address.
type View struct {
	Country        string           `json:"country"`
	Region         *string          `json:"region,omitempty"`
	City           string           `json:"city"`
	Street         *string          `json:"street,omitempty"`
	BuildingNumber *string          `json:"building_number,omitempty"`
	PostalCode     *string          `json:"postal_code,omitempty"`
	Lat            *decimal.Decimal `json:"lat,omitempty"`
	Lng            *decimal.Decimal `json:"lng,omitempty"`
}

// ToModel trims the input and checks coordinates. A nil input yields nil.
func ToModel(in *Input) (*models.Address, error) {
	if in == nil {
		return nil, nil
	}
	country := strings.TrimSpace(in.Country)
	city := strings.TrimSpace(in.City)
	if country == "" {
		return nil, pkgerrors.InvalidField("address.country", "required")
	}
	if city == "" {
		return nil, pkgerrors.InvalidField("address.city", "required")
	}

	row := &models.Address{
		Country:        strings.ToUpper(country),
		Region:         trimmed(in.Region),
		City:           city,
		Street:         trimmed(in.Street),
		BuildingNumber: trimmed(in.BuildingNumber),
		PostalCode:     trimmed(in.PostalCode),
	}

	if (in.Lat == nil) != (in.Lng == nil) {
		return nil, pkgerrors.InvalidField("address", "lat and lng must be provided together")
	}
	if in.Lat != nil {
		if in.Lat.LessThan(minLat) || in.Lat.GreaterThan(maxLat) {
			return nil, pkgerrors.InvalidField("address.lat", "out of range")
		}
		if in.Lng.LessThan(minLng) || in.Lng.GreaterThan(maxLng) {
			return nil, pkgerrors.InvalidField("address.lng", "out of range")
		}
		row.Lat = decimal.NewNullDecimal(in.Lat.Round(6))
		row.Lng = decimal.NewNullDecimal(in.Lng.Round(6))
	}
	return row, nil
}

// ToView converts a stored address for responses.
func ToView(row *models.Address) *View {
	if row == nil {
		return nil
	}
	v := &View{
		Country:        row.Country,
		Region:         row.Region,
		City:           row.City,
		Street:         row.Street,
		BuildingNumber: row.BuildingNumber,
		PostalCode:     row.PostalCode,
	}
	if row.Lat.Valid {
		lat := row.Lat.Decimal
		v.Lat = &lat
	}
	if row.Lng.Valid {
		lng := row.Lng.Decimal
		v.Lng = &lng
	}
	return v
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
