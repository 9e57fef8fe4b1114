package address

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/pawhaven-backend/pkg/errors"
)

func strPtr(v string) *string { return &v }

func TestToModel(t *testing.T) {
	lat := decimal.RequireFromString("52.2296756")
	lng := decimal.RequireFromString("21.0122287")

	row, err := ToModel(&Input{
		Country:    " pl ",
		City:       " Warsaw ",
		Street:     strPtr("  "),
		PostalCode: strPtr(" 00-001 "),
		Lat:        &lat,
		Lng:        &lng,
	})
	require.NoError(t, err)
	assert.Equal(t, "PL", row.Country)
	assert.Equal(t, "Warsaw", row.City)
	assert.Nil(t, row.Street)
	assert.Equal(t, "00-001", *row.PostalCode)
	assert.True(t, row.Lat.Valid)
	assert.Equal(t, "52.229676", row.Lat.Decimal.String())

	view := ToView(row)
	require.NotNil(t, view)
	assert.Equal(t, "21.012229", view.Lng.String())
}

func TestToModelNil(t *testing.T) {
	row, err := ToModel(nil)
	require.NoError(t, err)
	assert.Nil(t, row)
	assert.Nil(t, ToView(nil))
}

func TestToModelValidation(t *testing.T) {
	lat := decimal.NewFromInt(95)
	lng := decimal.NewFromInt(10)

	cases := []struct {
		name string
		in   Input
	}{
		{"missing city", Input{Country: "PL"}},
		{"missing country", Input{City: "Krakow"}},
		{"lat without lng", Input{Country: "PL", City: "Krakow", Lat: &lng}},
		{"lat out of range", Input{Country: "PL", City: "Krakow", Lat: &lat, Lng: &lng}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := tc.in
			_, err := ToModel(&in)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
		})
	}
}
