// Package verification issues and confirms short-lived email codes.
package verification

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/angelmondragon/pawhaven-backend/pkg/auth"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pawhaven-backend/pkg/errors"
	"github.com/angelmondragon/pawhaven-backend/pkg/logger"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/pawhaven-backend/pkg/redis"
	"github.com/angelmondragon/pawhaven-backend/pkg/security"
)

const (
	codeLength   = 4
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	purposeEmail = "email"
	defaultTTL   = 5 * time.Minute
)

var validate = validator.New()

// Service issues verification codes and checks them.
type Service interface {
	Issue(ctx context.Context, actor auth.Actor, email string) (*IssueResult, error)
	Confirm(ctx context.Context, actor auth.Actor, email, code string) error
}

// IssueResult tells the caller how long the code stays valid.
type IssueResult struct {
	ExpiresAt time.Time `json:"expires_at"`
}

type codeStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	GetDel(ctx context.Context, key string) (string, error)
	VerificationKey(purpose, userID, target string) string
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams bundles the verification dependencies.
type ServiceParams struct {
	Store      codeStore
	Hasher     *security.CodeHasher
	Tx         txRunner
	Outbox     outboxPublisher
	TTL        time.Duration
	RateLimit  int
	RateWindow time.Duration
	Logger     *logger.Logger
	Generate   func() (string, error)
}

type service struct {
	store      codeStore
	hasher     *security.CodeHasher
	tx         txRunner
	outbox     outboxPublisher
	ttl        time.Duration
	rateLimit  int64
	rateWindow time.Duration
	logg       *logger.Logger
	generate   func() (string, error)
	now        func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("code store is required")
	}
	if params.Hasher == nil {
		return nil, fmt.Errorf("code hasher is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher is required")
	}
	svc := &service{
		store:      params.Store,
		hasher:     params.Hasher,
		tx:         params.Tx,
		outbox:     params.Outbox,
		ttl:        params.TTL,
		rateLimit:  int64(params.RateLimit),
		rateWindow: params.RateWindow,
		logg:       params.Logger,
		generate:   params.Generate,
		now:        time.Now,
	}
	if svc.ttl <= 0 {
		svc.ttl = defaultTTL
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	if svc.generate == nil {
		svc.generate = generateCode
	}
	return svc, nil
}

func (s *service) Issue(ctx context.Context, actor auth.Actor, email string) (*IssueResult, error) {
	if actor.IsAnonymous() {
		return nil, pkgerrors.Unauthenticated()
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	if s.rateLimit > 0 && s.rateWindow > 0 {
		allowed, _, err := s.store.FixedWindowAllow(ctx, "verification:"+actor.UserID.String(), s.rateLimit, s.rateWindow)
		if err != nil {
			return nil, pkgerrors.Dependency(err, "check verification rate limit")
		}
		if !allowed {
			return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "too many verification requests")
		}
	}

	code, err := s.generate()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate verification code")
	}

	key := s.store.VerificationKey(purposeEmail, actor.UserID.String(), email)
	if err := s.store.Set(ctx, key, s.hasher.Digest(key, code), s.ttl); err != nil {
		return nil, pkgerrors.Dependency(err, "store verification code")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventVerificationCodeRequested,
			AggregateType: enums.AggregateVerification,
			AggregateID:   actor.UserID,
			Actor:         actor.OutboxRef(),
			Data: payloads.VerificationCodeRequestedEvent{
				UserID:  actor.UserID,
				Channel: purposeEmail,
				Target:  email,
				Code:    code,
				TTLSecs: int(s.ttl / time.Second),
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Dependency(err, "queue verification code")
	}

	s.logg.Info(s.logg.WithUserID(ctx, actor.UserID.String()), "verification code issued")
	return &IssueResult{ExpiresAt: s.now().Add(s.ttl).UTC()}, nil
}

// Confirm consumes the pending code. A wrong guess also burns it.
func (s *service) Confirm(ctx context.Context, actor auth.Actor, email, code string) error {
	if actor.IsAnonymous() {
		return pkgerrors.Unauthenticated()
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != codeLength {
		return pkgerrors.InvalidField("code", fmt.Sprintf("must be %d characters", codeLength))
	}

	key := s.store.VerificationKey(purposeEmail, actor.UserID.String(), email)
	stored, err := s.store.GetDel(ctx, key)
	if err != nil {
		if redis.IsNil(err) {
			return pkgerrors.InvalidField("code", "expired or never issued")
		}
		return pkgerrors.Dependency(err, "read verification code")
	}
	if !s.hasher.Matches(stored, key, code) {
		return pkgerrors.InvalidField("code", "does not match")
	}
	return nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate.Var(email, "required,email,max=254"); err != nil {
		return "", pkgerrors.InvalidField("email", "invalid email")
	}
	return email, nil
}

func generateCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, codeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
