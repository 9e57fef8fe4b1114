package adoptions

import (
	"net/http"

	"github.com/angelmondragon/pawhaven-backend/api/middleware"
	"github.com/angelmondragon/pawhaven-backend/api/responses"
	"github.com/angelmondragon/pawhaven-backend/api/validators"
	internaladoptions "github.com/angelmondragon/pawhaven-backend/internal/adoptions"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pawhaven-backend/pkg/errors"
	"github.com/angelmondragon/pawhaven-backend/pkg/logger"
)

type applyRequest struct {
	Message string `json:"message" validate:"max=2000"`
}

type updateStatusRequest struct {
	Status enums.AdoptionStatus `json:"status" validate:"required"`
}

// Apply submits an adoption application for the pet in the path.
func Apply(svc internaladoptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "adoptions service unavailable"))
			return
		}
		petID, err := validators.ParseUUIDParam(r, "petId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var body applyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		ctx = logg.WithPetID(ctx, petID.String())
		adoption, err := svc.Apply(ctx, petID, middleware.ActorFromContext(ctx), body.Message)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, adoption)
	}
}

// List returns the caller's applications, or with pet_id the applications to
// a pet they own. Staff see everything.
func List(svc internaladoptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "adoptions service unavailable"))
			return
		}

		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		petID, err := validators.ParseQueryUUID(r, "pet_id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		params := internaladoptions.ListParams{PetID: petID, Params: page}
		if raw := validators.QueryString(r, "status", 32); raw != "" {
			status, err := enums.ParseAdoptionStatus(raw)
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

func Detail(svc internaladoptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "adoptions service unavailable"))
			return
		}
		adoptionID, err := validators.ParseUUIDParam(r, "adoptionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		adoption, err := svc.Get(ctx, adoptionID, middleware.ActorFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, adoption)
	}
}

// UpdateStatus advances an application through the adoption state machine.
func UpdateStatus(svc internaladoptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "adoptions service unavailable"))
			return
		}
		adoptionID, err := validators.ParseUUIDParam(r, "adoptionId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var body updateStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		adoption, err := svc.UpdateStatus(ctx, adoptionID, body.Status, middleware.ActorFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, adoption)
	}
}
