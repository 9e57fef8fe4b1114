package lostreports

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pawhaven-backend/api/middleware"
	"github.com/angelmondragon/pawhaven-backend/api/responses"
	"github.com/angelmondragon/pawhaven-backend/api/validators"
	"github.com/angelmondragon/pawhaven-backend/internal/address"
	internallost "github.com/angelmondragon/pawhaven-backend/internal/lostreports"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pawhaven-backend/pkg/errors"
	"github.com/angelmondragon/pawhaven-backend/pkg/logger"
)

type createReportRequest struct {
	PetID        *uuid.UUID       `json:"pet_id,omitempty"`
	PetName      string           `json:"pet_name" validate:"required,max=128"`
	Species      string           `json:"species" validate:"required,max=64"`
	Breed        *string          `json:"breed,omitempty" validate:"omitempty,max=128"`
	Color        *string          `json:"color,omitempty" validate:"omitempty,max=64"`
	Sex          *enums.PetSex    `json:"sex,omitempty" validate:"omitempty,oneof=male female"`
	Size         *enums.PetSize   `json:"size,omitempty" validate:"omitempty,oneof=small medium large"`
	Description  string           `json:"description" validate:"max=10000"`
	Address      *address.Input   `json:"address,omitempty"`
	LostAt       time.Time        `json:"lost_at"`
	Reward       *decimal.Decimal `json:"reward,omitempty"`
	PhotoKey     *string          `json:"photo_key,omitempty" validate:"omitempty,max=512"`
	ContactPhone *string          `json:"contact_phone,omitempty" validate:"omitempty,max=32"`
	ContactEmail *string          `json:"contact_email,omitempty" validate:"omitempty,max=254"`
}

type updateStatusRequest struct {
	Status enums.LostReportStatus `json:"status" validate:"required,oneof=open found closed"`
}

func Create(svc internallost.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lost reports service unavailable"))
			return
		}

		var body createReportRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		report, err := svc.Create(ctx, middleware.ActorFromContext(ctx), internallost.CreateInput{
			PetID:        body.PetID,
			PetName:      body.PetName,
			Species:      body.Species,
			Breed:        body.Breed,
			Color:        body.Color,
			Sex:          body.Sex,
			Size:         body.Size,
			Description:  body.Description,
			Address:      body.Address,
			LostAt:       body.LostAt,
			Reward:       body.Reward,
			PhotoKey:     body.PhotoKey,
			ContactPhone: body.ContactPhone,
			ContactEmail: body.ContactEmail,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, report)
	}
}

// List returns the report feed newest first. mine=true restricts it to the
// caller's own reports.
func List(svc internallost.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lost reports service unavailable"))
			return
		}

		params, err := parseListParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.List(ctx, middleware.ActorFromContext(ctx), params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func Detail(svc internallost.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lost reports service unavailable"))
			return
		}
		reportID, err := validators.ParseUUIDParam(r, "reportId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		report, err := svc.Get(ctx, reportID, middleware.ViewerFromRequest(r))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

func UpdateStatus(svc internallost.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lost reports service unavailable"))
			return
		}
		reportID, err := validators.ParseUUIDParam(r, "reportId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var body updateStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		report, err := svc.UpdateStatus(ctx, reportID, body.Status, middleware.ActorFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

func parseListParams(r *http.Request) (internallost.ListParams, error) {
	page, err := validators.ParsePagination(r)
	if err != nil {
		return internallost.ListParams{}, err
	}
	params := internallost.ListParams{
		Query:   validators.QueryString(r, "q", 128),
		Species: validators.QueryString(r, "species", 64),
		Breed:   validators.QueryString(r, "breed", 128),
		Color:   validators.QueryString(r, "color", 64),
		Params:  page,
	}

	if raw := validators.QueryString(r, "sex", 16); raw != "" {
		sex, err := enums.ParsePetSex(raw)
		if err != nil {
			return params, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sex")
		}
		params.Sex = &sex
	}
	if raw := validators.QueryString(r, "size", 16); raw != "" {
		size, err := enums.ParsePetSize(raw)
		if err != nil {
			return params, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid size")
		}
		params.Size = &size
	}
	if raw := validators.QueryString(r, "status", 16); raw != "" {
		status, err := enums.ParseLostReportStatus(raw)
		if err != nil {
			return params, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		params.Status = &status
	}
	if raw := validators.QueryString(r, "mine", 8); raw != "" {
		mine, err := strconv.ParseBool(raw)
		if err != nil {
			return params, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid mine flag")
		}
		params.Mine = mine
	}

	if params.LostFrom, err = validators.ParseQueryTime(r, "lost_from"); err != nil {
		return params, err
	}
	if params.LostTo, err = validators.ParseQueryTime(r, "lost_to"); err != nil {
		return params, err
	}
	return params, nil
}
