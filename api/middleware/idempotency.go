package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/angelmondragon/pawhaven-backend/api/responses"
	pkgerrors "github.com/angelmondragon/pawhaven-backend/pkg/errors"
	"github.com/angelmondragon/pawhaven-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/pawhaven-backend/pkg/redis"
)

const (
	idempotencyHeader      = "Idempotency-Key"
	defaultIdempotencyTTL  = 24 * time.Hour
	criticalIdempotencyTTL = 7 * 24 * time.Hour
)

// idempotentRoute matches a POST route by prefix and suffix; an empty suffix
// with exact=true requires the whole path to equal prefix.
type idempotentRoute struct {
	prefix string
	suffix string
	exact  bool
	ttl    time.Duration
}

func (r idempotentRoute) matches(path string) bool {
	if r.exact {
		return path == r.prefix
	}
	return strings.HasPrefix(path, r.prefix) && strings.HasSuffix(path, r.suffix)
}

var idempotentRoutes = []idempotentRoute{
	{prefix: "/api/v1/pets", exact: true, ttl: defaultIdempotencyTTL},
	{prefix: "/api/v1/donations", exact: true, ttl: defaultIdempotencyTTL},
	{prefix: "/api/v1/lost-reports", exact: true, ttl: defaultIdempotencyTTL},
	{prefix: "/api/v1/pets/", suffix: "/apply", ttl: defaultIdempotencyTTL},
	{prefix: "/api/admin/v1/donations/", suffix: "/approve", ttl: criticalIdempotencyTTL},
	{prefix: "/api/admin/v1/donations/actions/", ttl: criticalIdempotencyTTL},
}

// storedResponse is what a replay writes back. Body is base64 in JSON.
type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
	RequestHash string `json:"request_hash"`
}

// Idempotency replays the first response for a repeated Idempotency-Key on
// creation and approval routes. Keys are scoped per user, method and path, and
// reusing a key with a different body is rejected. 5xx answers are not stored
// so the client can retry them.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, guarded := routeTTL(r.Method, routePattern(r))
			if !guarded || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if clientKey == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, idempotencyHeader+" header required"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Dependency(err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			digest := sha256.Sum256(body)
			hash := hex.EncodeToString(digest[:])
			key := store.IdempotencyKey(requestScope(r), clientKey)

			prior, err := store.Get(ctx, key)
			switch {
			case err != nil && !pkgredis.IsNil(err):
				responses.WriteError(ctx, logg, w, pkgerrors.Dependency(err, "check idempotency"))
				return
			case prior != "":
				var saved storedResponse
				if err := json.Unmarshal([]byte(prior), &saved); err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Dependency(err, "decode idempotency record"))
					return
				}
				if saved.RequestHash != hash {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
					return
				}
				saved.replay(w)
				return
			}

			var captured bytes.Buffer
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&captured)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status >= http.StatusInternalServerError {
				return
			}
			payload, err := json.Marshal(storedResponse{
				Status:      status,
				ContentType: ww.Header().Get("Content-Type"),
				Body:        captured.Bytes(),
				RequestHash: hash,
			})
			if err == nil {
				_, err = store.SetNX(ctx, key, string(payload), ttl)
			}
			if err != nil && logg != nil {
				logg.Error(ctx, "persist idempotency record", err)
			}
		})
	}
}

func (s storedResponse) replay(w http.ResponseWriter) {
	if s.ContentType != "" {
		w.Header().Set("Content-Type", s.ContentType)
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(s.Status)
	_, _ = w.Write(s.Body)
}

func requestScope(r *http.Request) string {
	return UserIDFromContext(r.Context()) + "|" + r.Method + "|" + r.URL.Path
}

// routePattern prefers the chi pattern, falling back to the raw path when the
// middleware runs at group level and only sees a wildcard mount.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" && !strings.HasSuffix(pattern, "*") {
			return pattern
		}
	}
	return r.URL.Path
}

func routeTTL(method, path string) (time.Duration, bool) {
	if method != http.MethodPost || path == "" {
		return 0, false
	}
	for _, route := range idempotentRoutes {
		if route.matches(path) {
			return route.ttl, true
		}
	}
	return 0, false
}
