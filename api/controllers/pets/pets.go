package pets

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/pawhaven-backend/api/middleware"
	"github.com/angelmondragon/pawhaven-backend/api/responses"
	"github.com/angelmondragon/pawhaven-backend/api/validators"
	"github.com/angelmondragon/pawhaven-backend/internal/address"
	internalpets "github.com/angelmondragon/pawhaven-backend/internal/pets"
	"github.com/angelmondragon/pawhaven-backend/internal/views"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pawhaven-backend/pkg/errors"
	"github.com/angelmondragon/pawhaven-backend/pkg/logger"
)

const defaultViewDays = 30

type createPetRequest struct {
	Name        string          `json:"name" validate:"required,max=128"`
	Species     string          `json:"species" validate:"required,max=64"`
	Breed       *string         `json:"breed,omitempty" validate:"omitempty,max=128"`
	Sex         *enums.PetSex   `json:"sex,omitempty" validate:"omitempty,oneof=male female"`
	AgeYears    int             `json:"age_years" validate:"min=0,max=40"`
	AgeMonths   int             `json:"age_months" validate:"min=0,max=11"`
	Description string          `json:"description" validate:"max=10000"`
	Address     *address.Input  `json:"address,omitempty"`
	CoverKey    *string         `json:"cover_key,omitempty" validate:"omitempty,max=512"`
	Status      enums.PetStatus `json:"status,omitempty" validate:"omitempty,oneof=available draft"`
}

type setStatusRequest struct {
	Status enums.PetStatus `json:"status" validate:"required"`
}

type viewStats interface {
	Daily(ctx context.Context, objectType enums.ViewObjectType, objectID uuid.UUID, days int) ([]views.DailyCount, error)
}

// List returns the public catalogue of available and pending pets.
func List(svc internalpets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pets service unavailable"))
			return
		}

		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		params := internalpets.ListParams{
			Species: validators.QueryString(r, "species", 64),
			Breed:   validators.QueryString(r, "breed", 128),
			Query:   validators.QueryString(r, "q", 128),
			Params:  page,
		}
		if raw := validators.QueryString(r, "status", 32); raw != "" {
			status := enums.PetStatus(raw)
			params.Status = &status
		}

		result, err := svc.List(ctx, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Detail returns a pet and records a deduplicated view for the caller.
func Detail(svc internalpets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pets service unavailable"))
			return
		}
		petID, err := validators.ParseUUIDParam(r, "petId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		detail, err := svc.Get(ctx, petID, middleware.ActorFromContext(ctx), middleware.ViewerFromRequest(r))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func Create(svc internalpets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pets service unavailable"))
			return
		}

		var body createPetRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		pet, err := svc.Create(ctx, middleware.ActorFromContext(ctx), internalpets.CreateInput{
			Name:        body.Name,
			Species:     body.Species,
			Breed:       body.Breed,
			Sex:         body.Sex,
			AgeYears:    body.AgeYears,
			AgeMonths:   body.AgeMonths,
			Description: body.Description,
			Address:     body.Address,
			CoverKey:    body.CoverKey,
			Status:      body.Status,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, pet)
	}
}

// MarkLost forces the pet into the lost status.
func MarkLost(svc internalpets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pets service unavailable"))
			return
		}
		petID, err := validators.ParseUUIDParam(r, "petId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		pet, err := svc.MarkLost(logg.WithPetID(ctx, petID.String()), petID, middleware.ActorFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, pet)
	}
}

func SetStatus(svc internalpets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pets service unavailable"))
			return
		}
		petID, err := validators.ParseUUIDParam(r, "petId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body setStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		pet, err := svc.SetStatus(logg.WithPetID(ctx, petID.String()), petID, body.Status, middleware.ActorFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, pet)
	}
}

// Views returns the per-day unique view counts of a pet, oldest first.
func Views(stats viewStats, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if stats == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "view statistics unavailable"))
			return
		}
		petID, err := validators.ParseUUIDParam(r, "petId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		days, err := validators.ParseQueryInt(r, "days", defaultViewDays, 1, views.MaxDailyRange)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rows, err := stats.Daily(ctx, enums.ViewObjectPet, petID, days)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"pet_id": petID,
			"days":   days,
			"daily":  rows,
		})
	}
}
