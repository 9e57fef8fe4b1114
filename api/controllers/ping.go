package controllers

import (
	"net/http"

	"github.com/angelmondragon/pawhaven-backend/api/middleware"
	"github.com/angelmondragon/pawhaven-backend/api/responses"
)

// Ping echoes the scope and the resolved caller, for smoke testing auth.
func Ping(scope string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": scope, "status": "ok"}
		actor := middleware.ActorFromContext(r.Context())
		if !actor.IsAnonymous() {
			payload["user_id"] = actor.UserID.String()
			payload["role"] = string(actor.Role)
		}
		responses.WriteSuccess(w, payload)
	}
}
