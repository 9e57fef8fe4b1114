package donations

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/pawhaven-backend/api/middleware"
	"github.com/angelmondragon/pawhaven-backend/api/responses"
	"github.com/angelmondragon/pawhaven-backend/api/validators"
	internaldonations "github.com/angelmondragon/pawhaven-backend/internal/donations"
	"github.com/angelmondragon/pawhaven-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/pawhaven-backend/pkg/errors"
	"github.com/angelmondragon/pawhaven-backend/pkg/logger"
)

type reviewNoteRequest struct {
	Note *string `json:"note,omitempty" validate:"omitempty,max=200"`
}

type batchRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1,max=100"`
}

type batchResponse struct {
	internaldonations.BatchResult
	Errors []string `json:"errors,omitempty"`
}

type batchAction func(ctx context.Context, svc internaldonations.Service, ids []uuid.UUID, reviewer auth.Actor) (internaldonations.BatchResult, error)

// BatchActions maps the verb in /donations/actions/{verb} to its handler.
var BatchActions = map[string]batchAction{
	"approve": func(ctx context.Context, svc internaldonations.Service, ids []uuid.UUID, reviewer auth.Actor) (internaldonations.BatchResult, error) {
		return svc.BatchApprove(ctx, ids, reviewer)
	},
	"close": func(ctx context.Context, svc internaldonations.Service, ids []uuid.UUID, reviewer auth.Actor) (internaldonations.BatchResult, error) {
		return svc.BatchClose(ctx, ids, reviewer)
	},
}

// Approve turns the donation into an available pet.
func Approve(svc internaldonations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "donations service unavailable"))
			return
		}
		donationID, body, ok := parseReview(w, r, logg)
		if !ok {
			return
		}

		result, err := svc.Approve(ctx, donationID, middleware.ActorFromContext(ctx), body.Note)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		status := http.StatusOK
		if result.Created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

// Review moves a submitted donation to reviewing.
func Review(svc internaldonations.Service, logg *logger.Logger) http.HandlerFunc {
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

		donation, err := svc.StartReview(ctx, donationID, middleware.ActorFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, donation)
	}
}

func Reject(svc internaldonations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "donations service unavailable"))
			return
		}
		donationID, body, ok := parseReview(w, r, logg)
		if !ok {
			return
		}

		donation, err := svc.Reject(ctx, donationID, middleware.ActorFromContext(ctx), body.Note)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, donation)
	}
}

func Close(svc internaldonations.Service, logg *logger.Logger) http.HandlerFunc {
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

		donation, err := svc.Close(ctx, donationID, middleware.ActorFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, donation)
	}
}

// Batch dispatches /donations/actions/{verb} through BatchActions. Partial
// failures still answer 200 with the per-id errors listed.
func Batch(svc internaldonations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "donations service unavailable"))
			return
		}

		verb := validators.URLParam(r, "verb")
		action, ok := BatchActions[verb]
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "unknown action "+verb))
			return
		}

		var body batchRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := action(ctx, svc, body.IDs, middleware.ActorFromContext(ctx))
		resp := batchResponse{BatchResult: result}
		if err != nil {
			if result.Succeeded == 0 && result.Failed == 0 {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			for _, failure := range multierr.Errors(err) {
				resp.Errors = append(resp.Errors, failure.Error())
			}
			logg.Warn(logg.WithFields(ctx, map[string]any{
				"action":    verb,
				"succeeded": result.Succeeded,
				"failed":    result.Failed,
			}), "donation batch action partially failed")
		}
		responses.WriteSuccess(w, resp)
	}
}

func parseReview(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uuid.UUID, reviewNoteRequest, bool) {
	var body reviewNoteRequest
	donationID, err := validators.ParseUUIDParam(r, "donationId")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return uuid.Nil, body, false
	}
	if r.ContentLength != 0 {
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return uuid.Nil, body, false
		}
	}
	return donationID, body, true
}
