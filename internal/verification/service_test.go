package verification

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/pawhaven-backend/pkg/auth"
	"github.com/angelmondragon/pawhaven-backend/pkg/db/dbtest"
	"github.com/angelmondragon/pawhaven-backend/pkg/db/models"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pawhaven-backend/pkg/errors"
	"github.com/angelmondragon/pawhaven-backend/pkg/logger"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox"
	"github.com/angelmondragon/pawhaven-backend/pkg/redis"
	"github.com/angelmondragon/pawhaven-backend/pkg/security"
)

type fixture struct {
	svc  Service
	mr   *miniredis.Miniredis
	conn *gorm.DB
	user auth.Actor
}

func newFixture(t *testing.T, limit int) fixture {
	t.Helper()
	client, conn := dbtest.Client(t)
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })

	hasher, err := security.NewCodeHasher([]byte("test-secret"))
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Store:      redis.Wrap(raw),
		Hasher:     hasher,
		Tx:         client,
		Outbox:     outbox.NewService(outbox.NewRepository(conn), logger.Nop()),
		TTL:        5 * time.Minute,
		RateLimit:  limit,
		RateWindow: time.Minute,
		Generate:   func() (string, error) { return "AB12", nil },
	})
	require.NoError(t, err)
	return fixture{
		svc:  svc,
		mr:   mr,
		conn: conn,
		user: auth.Actor{UserID: uuid.New(), Role: enums.UserRoleUser},
	}
}

func TestIssueStoresCodeAndQueuesEvent(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	res, err := f.svc.Issue(ctx, f.user, " Person@Example.com ")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), res.ExpiresAt, 5*time.Second)

	key := "ph:verification:email:" + f.user.UserID.String() + ":person@example.com"
	got, err := f.mr.Get(key)
	require.NoError(t, err)
	assert.NotEqual(t, "AB12", got)
	assert.Len(t, got, 64)
	assert.Equal(t, 5*time.Minute, f.mr.TTL(key))

	var count int64
	require.NoError(t, f.conn.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventVerificationCodeRequested).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestConfirmConsumesCode(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	_, err := f.svc.Issue(ctx, f.user, "person@example.com")
	require.NoError(t, err)

	require.NoError(t, f.svc.Confirm(ctx, f.user, "PERSON@example.com", "ab12"))

	err = f.svc.Confirm(ctx, f.user, "person@example.com", "AB12")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestConfirmMismatchBurnsCode(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	_, err := f.svc.Issue(ctx, f.user, "person@example.com")
	require.NoError(t, err)

	err = f.svc.Confirm(ctx, f.user, "person@example.com", "ZZZZ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	err = f.svc.Confirm(ctx, f.user, "person@example.com", "AB12")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestConfirmAfterExpiry(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	_, err := f.svc.Issue(ctx, f.user, "person@example.com")
	require.NoError(t, err)

	f.mr.FastForward(6 * time.Minute)
	err = f.svc.Confirm(ctx, f.user, "person@example.com", "AB12")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestIssueRateLimited(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.svc.Issue(ctx, f.user, "person@example.com")
		require.NoError(t, err)
	}
	_, err := f.svc.Issue(ctx, f.user, "person@example.com")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeRateLimit))
}

func TestIssueValidates(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	_, err := f.svc.Issue(ctx, f.user, "not-an-email")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Issue(ctx, auth.Actor{}, "person@example.com")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	err = f.svc.Confirm(ctx, f.user, "person@example.com", "ABC")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestGenerateCode(t *testing.T) {
	code, err := generateCode()
	require.NoError(t, err)
	require.Len(t, code, codeLength)
	for _, r := range code {
		assert.True(t, strings.ContainsRune(codeAlphabet, r))
	}
}
