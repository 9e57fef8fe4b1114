package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/angelmondragon/pawhaven-backend/pkg/errors"
	"github.com/angelmondragon/pawhaven-backend/pkg/logger"
	"github.com/angelmondragon/pawhaven-backend/pkg/types"
)

// codes whose own message is safe to show to callers; every other code is
// answered with the generic public message.
var callerFacing = map[pkgerrors.Code]struct{}{
	pkgerrors.CodeValidation:    {},
	pkgerrors.CodeForbidden:     {},
	pkgerrors.CodeUnauthorized:  {},
	pkgerrors.CodeNotFound:      {},
	pkgerrors.CodeConflict:      {},
	pkgerrors.CodeStateConflict: {},
	pkgerrors.CodeIdempotency:   {},
	pkgerrors.CodeRateLimit:     {},
}

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	encode(w, status, types.Envelope[any]{Data: data})
}

// WriteError renders err as an error envelope and logs the full chain,
// including postgres diagnostics, when a logger is supplied.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	if logg != nil {
		fields := pkgerrors.Dump(err).Fields()
		if step := detailStep(typed.Details()); step != nil {
			fields["step"] = step
		}
		logg.Error(logg.WithFields(ctx, fields), "request.error", err)
	}

	encode(w, meta.HTTPStatus, types.Failure{Error: problem(typed, meta)})
}

func problem(typed *pkgerrors.Error, meta pkgerrors.Metadata) types.Problem {
	out := types.Problem{Code: string(typed.Code()), Message: meta.PublicMessage, Retryable: meta.Retryable}
	if _, ok := callerFacing[typed.Code()]; ok && typed.Message() != "" {
		out.Message = typed.Message()
	}
	if meta.DetailsAllowed {
		out.Details = typed.Details()
	}
	return out
}

func detailStep(details any) any {
	if m, ok := details.(map[string]any); ok {
		return m["step"]
	}
	return nil
}

func encode(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"encode response","err":"%v"}`, err)
	}
}
