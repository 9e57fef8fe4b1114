package pets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/pawhaven-backend/api/middleware"
	internalpets "github.com/angelmondragon/pawhaven-backend/internal/pets"
	"github.com/angelmondragon/pawhaven-backend/internal/views"
	"github.com/angelmondragon/pawhaven-backend/pkg/auth"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pawhaven-backend/pkg/errors"
	"github.com/angelmondragon/pawhaven-backend/pkg/logger"
)

type stubPetsService struct {
	create    func(ctx context.Context, actor auth.Actor, input internalpets.CreateInput) (*internalpets.PetView, error)
	get       func(ctx context.Context, id uuid.UUID, actor auth.Actor, viewer string) (*internalpets.PetDetail, error)
	list      func(ctx context.Context, params internalpets.ListParams) (*internalpets.ListResult, error)
	setStatus func(ctx context.Context, id uuid.UUID, status enums.PetStatus, actor auth.Actor) (*internalpets.PetView, error)
}

func (s *stubPetsService) Create(ctx context.Context, actor auth.Actor, input internalpets.CreateInput) (*internalpets.PetView, error) {
	return s.create(ctx, actor, input)
}

func (s *stubPetsService) Get(ctx context.Context, id uuid.UUID, actor auth.Actor, viewer string) (*internalpets.PetDetail, error) {
	return s.get(ctx, id, actor, viewer)
}

func (s *stubPetsService) List(ctx context.Context, params internalpets.ListParams) (*internalpets.ListResult, error) {
	return s.list(ctx, params)
}

func (s *stubPetsService) MarkLost(ctx context.Context, id uuid.UUID, actor auth.Actor) (*internalpets.PetView, error) {
	return s.setStatus(ctx, id, enums.PetStatusLost, actor)
}

func (s *stubPetsService) SetStatus(ctx context.Context, id uuid.UUID, status enums.PetStatus, actor auth.Actor) (*internalpets.PetView, error) {
	return s.setStatus(ctx, id, status, actor)
}

type stubViewStats struct {
	days int
}

func (s *stubViewStats) Daily(ctx context.Context, objectType enums.ViewObjectType, objectID uuid.UUID, days int) ([]views.DailyCount, error) {
	s.days = days
	return []views.DailyCount{{Day: "2026-10-18", Count: 3}}, nil
}

func withPetID(req *http.Request, petID string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add("petId", petID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func withActor(req *http.Request, actor auth.Actor) *http.Request {
	return req.WithContext(middleware.WithActor(req.Context(), actor))
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func TestListPassesFilters(t *testing.T) {
	var got internalpets.ListParams
	svc := &stubPetsService{list: func(ctx context.Context, params internalpets.ListParams) (*internalpets.ListResult, error) {
		got = params
		return &internalpets.ListResult{Items: []internalpets.PetView{}}, nil
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/public/v1/pets?species=dog&q=%20rex%20&status=pending&limit=5", nil)
	rec := httptest.NewRecorder()
	List(svc, logger.Nop()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dog", got.Species)
	assert.Equal(t, "rex", got.Query)
	assert.Equal(t, 5, got.Limit)
	require.NotNil(t, got.Status)
	assert.Equal(t, enums.PetStatusPending, *got.Status)
}

func TestListRejectsBadLimit(t *testing.T) {
	svc := &stubPetsService{}
	req := httptest.NewRequest(http.MethodGet, "/api/public/v1/pets?limit=1000", nil)
	rec := httptest.NewRecorder()
	List(svc, logger.Nop()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetailUsesViewerIdentity(t *testing.T) {
	petID := uuid.New()
	actor := auth.Actor{UserID: uuid.New(), Role: enums.UserRoleUser}
	var viewer string
	svc := &stubPetsService{get: func(ctx context.Context, id uuid.UUID, a auth.Actor, v string) (*internalpets.PetDetail, error) {
		assert.Equal(t, petID, id)
		assert.Equal(t, actor, a)
		viewer = v
		return &internalpets.PetDetail{PetView: internalpets.PetView{ID: id}, Views: 4}, nil
	}}

	req := withActor(withPetID(httptest.NewRequest(http.MethodGet, "/", nil), petID.String()), actor)
	rec := httptest.NewRecorder()
	Detail(svc, logger.Nop()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user:"+actor.UserID.String(), viewer)
	var detail internalpets.PetDetail
	decodeData(t, rec, &detail)
	assert.Equal(t, int64(4), detail.Views)
}

func TestDetailHiddenPetIsNotFound(t *testing.T) {
	svc := &stubPetsService{get: func(ctx context.Context, id uuid.UUID, a auth.Actor, v string) (*internalpets.PetDetail, error) {
		assert.Equal(t, "ip:10.0.0.1", v)
		return nil, pkgerrors.NotFound("pet")
	}}

	req := withPetID(httptest.NewRequest(http.MethodGet, "/", nil), uuid.NewString())
	req.RemoteAddr = "10.0.0.1:4000"
	rec := httptest.NewRecorder()
	Detail(svc, logger.Nop()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDetailRejectsInvalidID(t *testing.T) {
	req := withPetID(httptest.NewRequest(http.MethodGet, "/", nil), "nope")
	rec := httptest.NewRecorder()
	Detail(&stubPetsService{}, logger.Nop()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateValidatesAndForwards(t *testing.T) {
	actor := auth.Actor{UserID: uuid.New(), Role: enums.UserRoleUser}
	svc := &stubPetsService{create: func(ctx context.Context, a auth.Actor, input internalpets.CreateInput) (*internalpets.PetView, error) {
		assert.Equal(t, "Rex", input.Name)
		assert.Equal(t, enums.PetStatusDraft, input.Status)
		return &internalpets.PetView{ID: uuid.New(), Name: input.Name, Status: input.Status, CreatedBy: a.UserID}, nil
	}}

	body := `{"name":"Rex","species":"dog","age_years":2,"status":"draft"}`
	req := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/pets", strings.NewReader(body)), actor)
	rec := httptest.NewRecorder()
	Create(svc, logger.Nop()).ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var view internalpets.PetView
	decodeData(t, rec, &view)
	assert.Equal(t, actor.UserID, view.CreatedBy)

	bad := withActor(httptest.NewRequest(http.MethodPost, "/api/v1/pets", strings.NewReader(`{"species":"dog","status":"adopted"}`)), actor)
	rec = httptest.NewRecorder()
	Create(svc, logger.Nop()).ServeHTTP(rec, bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetStatusMapsStateErrors(t *testing.T) {
	svc := &stubPetsService{setStatus: func(ctx context.Context, id uuid.UUID, status enums.PetStatus, a auth.Actor) (*internalpets.PetView, error) {
		if status == enums.PetStatusLost {
			return &internalpets.PetView{ID: id, Status: status}, nil
		}
		return nil, pkgerrors.Forbidden("only the owner or staff may change a pet")
	}}
	actor := auth.Actor{UserID: uuid.New(), Role: enums.UserRoleUser}
	petID := uuid.NewString()

	req := withActor(withPetID(httptest.NewRequest(http.MethodPost, "/", nil), petID), actor)
	rec := httptest.NewRecorder()
	MarkLost(svc, logger.Nop()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = withActor(withPetID(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"status":"archived"}`)), petID), actor)
	rec = httptest.NewRecorder()
	SetStatus(svc, logger.Nop()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestViewsDefaultsAndBounds(t *testing.T) {
	stats := &stubViewStats{}
	req := withPetID(httptest.NewRequest(http.MethodGet, "/", nil), uuid.NewString())
	rec := httptest.NewRecorder()
	Views(stats, logger.Nop()).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultViewDays, stats.days)

	req = withPetID(httptest.NewRequest(http.MethodGet, "/?days=365", nil), uuid.NewString())
	rec = httptest.NewRecorder()
	Views(stats, logger.Nop()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
