package verification

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/pawhaven-backend/api/middleware"
	internalverification "github.com/angelmondragon/pawhaven-backend/internal/verification"
	"github.com/angelmondragon/pawhaven-backend/pkg/auth"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pawhaven-backend/pkg/errors"
	"github.com/angelmondragon/pawhaven-backend/pkg/logger"
)

type stubVerificationService struct {
	issueErr error
	code     string
}

func (s *stubVerificationService) Issue(ctx context.Context, actor auth.Actor, email string) (*internalverification.IssueResult, error) {
	if s.issueErr != nil {
		return nil, s.issueErr
	}
	return &internalverification.IssueResult{ExpiresAt: time.Now().Add(5 * time.Minute)}, nil
}

func (s *stubVerificationService) Confirm(ctx context.Context, actor auth.Actor, email, code string) error {
	if code != s.code {
		return pkgerrors.InvalidField("code", "invalid or expired")
	}
	return nil
}

func newRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	actor := auth.Actor{UserID: uuid.New(), Role: enums.UserRoleUser}
	return req.WithContext(middleware.WithActor(req.Context(), actor))
}

func TestIssueEmail(t *testing.T) {
	rec := httptest.NewRecorder()
	IssueEmail(&stubVerificationService{}, logger.Nop()).ServeHTTP(rec, newRequest(`{"email":"a@example.com"}`))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), "expires_at")

	rec = httptest.NewRecorder()
	IssueEmail(&stubVerificationService{}, logger.Nop()).ServeHTTP(rec, newRequest(`{"email":"not-an-email"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIssueEmailRateLimited(t *testing.T) {
	svc := &stubVerificationService{issueErr: pkgerrors.New(pkgerrors.CodeRateLimit, "too many verification codes")}
	rec := httptest.NewRecorder()
	IssueEmail(svc, logger.Nop()).ServeHTTP(rec, newRequest(`{"email":"a@example.com"}`))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestConfirmEmail(t *testing.T) {
	svc := &stubVerificationService{code: "AB3D"}

	rec := httptest.NewRecorder()
	ConfirmEmail(svc, logger.Nop()).ServeHTTP(rec, newRequest(`{"email":"a@example.com","code":"AB3D"}`))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	ConfirmEmail(svc, logger.Nop()).ServeHTTP(rec, newRequest(`{"email":"a@example.com","code":"ZZZZ"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	ConfirmEmail(svc, logger.Nop()).ServeHTTP(rec, newRequest(`{"email":"a@example.com","code":"TOOLONG"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
