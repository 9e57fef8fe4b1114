package lostreports

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/pawhaven-backend/api/middleware"
	internallost "github.com/angelmondragon/pawhaven-backend/internal/lostreports"
	"github.com/angelmondragon/pawhaven-backend/pkg/auth"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pawhaven-backend/pkg/errors"
	"github.com/angelmondragon/pawhaven-backend/pkg/logger"
)

type stubLostService struct {
	create func(ctx context.Context, actor auth.Actor, input internallost.CreateInput) (*internallost.ReportView, error)
	get    func(ctx context.Context, id uuid.UUID, viewer string) (*internallost.ReportView, error)
	list   func(ctx context.Context, actor auth.Actor, params internallost.ListParams) (*internallost.ListResult, error)
	update func(ctx context.Context, id uuid.UUID, status enums.LostReportStatus, actor auth.Actor) (*internallost.ReportView, error)
}

func (s *stubLostService) Create(ctx context.Context, actor auth.Actor, input internallost.CreateInput) (*internallost.ReportView, error) {
	return s.create(ctx, actor, input)
}

func (s *stubLostService) Get(ctx context.Context, id uuid.UUID, viewer string) (*internallost.ReportView, error) {
	return s.get(ctx, id, viewer)
}

func (s *stubLostService) List(ctx context.Context, actor auth.Actor, params internallost.ListParams) (*internallost.ListResult, error) {
	return s.list(ctx, actor, params)
}

func (s *stubLostService) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.LostReportStatus, actor auth.Actor) (*internallost.ReportView, error) {
	return s.update(ctx, id, status, actor)
}

var reporter = auth.Actor{UserID: uuid.New(), Role: enums.UserRoleUser}

func newRequest(method, target, body string, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rc := chi.NewRouteContext()
	for k, v := range params {
		rc.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rc)
	return req.WithContext(middleware.WithActor(ctx, reporter))
}

func TestCreateParsesRewardAndLostAt(t *testing.T) {
	svc := &stubLostService{create: func(ctx context.Context, actor auth.Actor, input internallost.CreateInput) (*internallost.ReportView, error) {
		require.NotNil(t, input.Reward)
		assert.Equal(t, "150.5", input.Reward.String())
		assert.Equal(t, 2026, input.LostAt.Year())
		require.NotNil(t, input.Size)
		assert.Equal(t, enums.PetSizeSmall, *input.Size)
		return &internallost.ReportView{ID: uuid.New(), ReporterID: actor.UserID, Status: enums.LostReportStatusOpen}, nil
	}}

	body := `{"pet_name":"Bella","species":"dog","size":"small","lost_at":"2026-10-01T08:00:00Z","reward":"150.50"}`
	rec := httptest.NewRecorder()
	Create(svc, logger.Nop()).ServeHTTP(rec, newRequest(http.MethodPost, "/", body, nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateRejectsUnknownSize(t *testing.T) {
	body := `{"pet_name":"Bella","species":"dog","size":"huge"}`
	rec := httptest.NewRecorder()
	Create(&stubLostService{}, logger.Nop()).ServeHTTP(rec, newRequest(http.MethodPost, "/", body, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListParsesFilters(t *testing.T) {
	var got internallost.ListParams
	svc := &stubLostService{list: func(ctx context.Context, actor auth.Actor, params internallost.ListParams) (*internallost.ListResult, error) {
		got = params
		return &internallost.ListResult{Items: []internallost.ReportView{}}, nil
	}}

	target := "/?q=bella&color=brown&sex=female&status=open&mine=true&lost_from=2026-10-01&lost_to=2026-10-05T12:00:00Z"
	rec := httptest.NewRecorder()
	List(svc, logger.Nop()).ServeHTTP(rec, newRequest(http.MethodGet, target, "", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bella", got.Query)
	assert.Equal(t, "brown", got.Color)
	assert.True(t, got.Mine)
	require.NotNil(t, got.Sex)
	assert.Equal(t, enums.PetSexFemale, *got.Sex)
	require.NotNil(t, got.LostFrom)
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), *got.LostFrom)
	require.NotNil(t, got.LostTo)
	assert.Equal(t, 12, got.LostTo.Hour())
}

func TestListRejectsBadDates(t *testing.T) {
	rec := httptest.NewRecorder()
	List(&stubLostService{}, logger.Nop()).ServeHTTP(rec, newRequest(http.MethodGet, "/?lost_from=yesterday", "", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetailPassesViewer(t *testing.T) {
	svc := &stubLostService{get: func(ctx context.Context, id uuid.UUID, viewer string) (*internallost.ReportView, error) {
		assert.Equal(t, "user:"+reporter.UserID.String(), viewer)
		return &internallost.ReportView{ID: id}, nil
	}}
	rec := httptest.NewRecorder()
	Detail(svc, logger.Nop()).ServeHTTP(rec, newRequest(http.MethodGet, "/", "", map[string]string{"reportId": uuid.NewString()}))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateStatus(t *testing.T) {
	svc := &stubLostService{update: func(ctx context.Context, id uuid.UUID, status enums.LostReportStatus, actor auth.Actor) (*internallost.ReportView, error) {
		if status == enums.LostReportStatusOpen {
			return nil, pkgerrors.Transition("lost_report", "found", "open")
		}
		return &internallost.ReportView{ID: id, Status: status}, nil
	}}
	params := map[string]string{"reportId": uuid.NewString()}

	rec := httptest.NewRecorder()
	UpdateStatus(svc, logger.Nop()).ServeHTTP(rec, newRequest(http.MethodPatch, "/", `{"status":"found"}`, params))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	UpdateStatus(svc, logger.Nop()).ServeHTTP(rec, newRequest(http.MethodPatch, "/", `{"status":"open"}`, params))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	UpdateStatus(svc, logger.Nop()).ServeHTTP(rec, newRequest(http.MethodPatch, "/", `{"status":"lost"}`, params))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
