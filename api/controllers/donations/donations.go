package donations

import (
	"net/http"

	"github.com/angelmondragon/pawhaven-backend/api/middleware"
	"github.com/angelmondragon/pawhaven-backend/api/responses"
	"github.com/angelmondragon/pawhaven-backend/api/validators"
	"github.com/angelmondragon/pawhaven-backend/internal/address"
	internaldonations "github.com/angelmondragon/pawhaven-backend/internal/donations"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pawhaven-backend/pkg/errors"
	"github.com/angelmondragon/pawhaven-backend/pkg/logger"
)

type createDonationRequest struct {
	Name         string         `json:"name" validate:"required,max=128"`
	Species      string         `json:"species" validate:"required,max=64"`
	Breed        *string        `json:"breed,omitempty" validate:"omitempty,max=128"`
	Sex          *enums.PetSex  `json:"sex,omitempty" validate:"omitempty,oneof=male female"`
	AgeYears     int            `json:"age_years" validate:"min=0,max=40"`
	AgeMonths    int            `json:"age_months" validate:"min=0,max=11"`
	Description  string         `json:"description" validate:"max=10000"`
	Address      *address.Input `json:"address,omitempty"`
	Dewormed     bool           `json:"dewormed"`
	Vaccinated   bool           `json:"vaccinated"`
	Microchipped bool           `json:"microchipped"`
	IsStray      bool           `json:"is_stray"`
	ContactPhone *string        `json:"contact_phone,omitempty" validate:"omitempty,max=32"`
	PhotoKeys    []string       `json:"photo_keys" validate:"dive,required,max=512"`
}

func Create(svc internaldonations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "donations service unavailable"))
			return
		}

		var body createDonationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		donation, err := svc.Create(ctx, middleware.ActorFromContext(ctx), internaldonations.CreateInput{
			Name:         body.Name,
			Species:      body.Species,
			Breed:        body.Breed,
			Sex:          body.Sex,
			AgeYears:     body.AgeYears,
			AgeMonths:    body.AgeMonths,
			Description:  body.Description,
			Address:      body.Address,
			Dewormed:     body.Dewormed,
			Vaccinated:   body.Vaccinated,
			Microchipped: body.Microchipped,
			IsStray:      body.IsStray,
			ContactPhone: body.ContactPhone,
			PhotoKeys:    body.PhotoKeys,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, donation)
	}
}

// List returns the donor's own donations; staff see every donation.
func List(svc internaldonations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "donations service unavailable"))
			return
		}

		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		params := internaldonations.ListParams{Params: page}
		if raw := validators.QueryString(r, "status", 32); raw != "" {
			status, err := enums.ParseDonationStatus(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			params.Status = &status
		}

		result, err := svc.List(ctx, middleware.ActorFromContext(ctx), params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func Detail(svc internaldonations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "donations service unavailable"))
			return
		}
		donationID, err := validators.ParseUUIDParam(r, "donationId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		donation, err := svc.Get(ctx, donationID, middleware.ActorFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, donation)
	}
}
