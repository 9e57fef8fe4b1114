package donations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pawhaven-backend/internal/address"
	"github.com/angelmondragon/pawhaven-backend/internal/pets"
	"github.com/angelmondragon/pawhaven-backend/pkg/auth"
	"github.com/angelmondragon/pawhaven-backend/pkg/db/models"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pawhaven-backend/pkg/errors"
	"github.com/angelmondragon/pawhaven-backend/pkg/logger"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/pawhaven-backend/pkg/pagination"
	"github.com/angelmondragon/pawhaven-backend/pkg/visibility"
)

// Service covers donor submissions and the staff review workflow.
type Service interface {
	Create(ctx context.Context, actor auth.Actor, input CreateInput) (*DonationView, error)
	Get(ctx context.Context, id uuid.UUID, actor auth.Actor) (*DonationView, error)
	List(ctx context.Context, actor auth.Actor, params ListParams) (*ListResult, error)
	Approve(ctx context.Context, id uuid.UUID, reviewer auth.Actor, note *string) (*ApproveResult, error)
	StartReview(ctx context.Context, id uuid.UUID, reviewer auth.Actor) (*DonationView, error)
	Reject(ctx context.Context, id uuid.UUID, reviewer auth.Actor, note *string) (*DonationView, error)
	Close(ctx context.Context, id uuid.UUID, actor auth.Actor) (*DonationView, error)
	BatchApprove(ctx context.Context, ids []uuid.UUID, reviewer auth.Actor) (BatchResult, error)
	BatchClose(ctx context.Context, ids []uuid.UUID, reviewer auth.Actor) (BatchResult, error)
}

// Options configures the service.
type Options struct {
	MaxPhotos int
	PetPrefix string
	// Store may be nil to skip cover copies.
	Store   ObjectStore
	Metrics lifecycleMetrics
	Logger  *logger.Logger
}

type service struct {
	repo      Repository
	pets      pets.Repository
	tx        txRunner
	outbox    outboxPublisher
	store     ObjectStore
	metrics   lifecycleMetrics
	logg      *logger.Logger
	maxPhotos int
	petPrefix string
}

func NewService(repo Repository, petsRepo pets.Repository, tx txRunner, outbox outboxPublisher, opts Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("donations repository required")
	}
	if petsRepo == nil {
		return nil, fmt.Errorf("pets repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if opts.MaxPhotos <= 0 {
		opts.MaxPhotos = 8
	}
	if opts.PetPrefix == "" {
		opts.PetPrefix = "pets"
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &service{
		repo:      repo,
		pets:      petsRepo,
		tx:        tx,
		outbox:    outbox,
		store:     opts.Store,
		metrics:   opts.Metrics,
		logg:      opts.Logger,
		maxPhotos: opts.MaxPhotos,
		petPrefix: opts.PetPrefix,
	}, nil
}

func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateInput) (*DonationView, error) {
	if actor.IsAnonymous() {
		return nil, pkgerrors.Unauthenticated()
	}
	donation, err := s.buildDonation(actor.UserID, input)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, donation); err != nil {
			return pkgerrors.Dependency(err, "create donation")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDonationSubmitted,
			AggregateType: enums.AggregateDonation,
			AggregateID:   donation.ID,
			Actor:         actor.OutboxRef(),
			Data: payloads.DonationSubmittedEvent{
				DonationID: donation.ID,
				DonorID:    donation.DonorID,
				PhotoCount: len(donation.Photos),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	view := toView(*donation)
	return &view, nil
}

func (s *service) buildDonation(donorID uuid.UUID, input CreateInput) (*models.Donation, error) {
	name := strings.TrimSpace(input.Name)
	species := strings.TrimSpace(input.Species)
	if name == "" {
		return nil, pkgerrors.InvalidField("name", "required")
	}
	if species == "" {
		return nil, pkgerrors.InvalidField("species", "required")
	}
	if input.AgeYears < 0 {
		return nil, pkgerrors.InvalidField("age_years", "must not be negative")
	}
	if input.AgeMonths < 0 || input.AgeMonths > 11 {
		return nil, pkgerrors.InvalidField("age_months", "must be between 0 and 11")
	}
	if input.Sex != nil && !input.Sex.IsValid() {
		return nil, pkgerrors.InvalidField("sex", "invalid")
	}
	if len(input.PhotoKeys) > s.maxPhotos {
		return nil, pkgerrors.InvalidField("photo_keys", fmt.Sprintf("at most %d photos", s.maxPhotos))
	}

	photos := make([]models.DonationPhoto, 0, len(input.PhotoKeys))
	for _, key := range input.PhotoKeys {
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, pkgerrors.InvalidField("photo_keys", "keys must not be empty")
		}
		photos = append(photos, models.DonationPhoto{ObjectKey: key})
	}

	addr, err := address.ToModel(input.Address)
	if err != nil {
		return nil, err
	}

	return &models.Donation{
		DonorID:      donorID,
		Name:         name,
		Species:      species,
		Breed:        trimmedPtr(input.Breed),
		Sex:          input.Sex,
		AgeYears:     input.AgeYears,
		AgeMonths:    input.AgeMonths,
		Description:  strings.TrimSpace(input.Description),
		Address:      addr,
		Dewormed:     input.Dewormed,
		Vaccinated:   input.Vaccinated,
		Microchipped: input.Microchipped,
		IsStray:      input.IsStray,
		ContactPhone: trimmedPtr(input.ContactPhone),
		Status:       enums.DonationStatusSubmitted,
		Photos:       photos,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID, actor auth.Actor) (*DonationView, error) {
	if actor.IsAnonymous() {
		return nil, pkgerrors.Unauthenticated()
	}
	donation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "lookup donation")
	}
	if !actor.IsStaff() && !actor.Owns(donation.DonorID) {
		return nil, pkgerrors.NotFound("donation")
	}
	view := toView(*donation)
	return &view, nil
}

func (s *service) List(ctx context.Context, actor auth.Actor, params ListParams) (*ListResult, error) {
	if actor.IsAnonymous() {
		return nil, pkgerrors.Unauthenticated()
	}
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.InvalidField("status", "invalid")
	}
	query := listQuery{
		status: params.Status,
		limit:  pagination.LimitWithBuffer(params.Limit),
	}
	if !actor.IsStaff() {
		donor := actor.UserID
		query.donorID = &donor
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Dependency(err, "list donations")
	}
	views := make([]DonationView, len(rows))
	for i, row := range rows {
		views[i] = toView(row)
	}
	page := pagination.BuildPage(views, params.Limit, func(v DonationView) pagination.Cursor {
		return pagination.Cursor{CreatedAt: v.CreatedAt, ID: v.ID}
	})
	return &page, nil
}

func (s *service) StartReview(ctx context.Context, id uuid.UUID, reviewer auth.Actor) (*DonationView, error) {
	if err := requireStaff(reviewer); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, reviewer, enums.DonationStatusReviewing, nil, func(d *models.Donation) bool {
		return d.Status == enums.DonationStatusSubmitted
	})
}

func (s *service) Reject(ctx context.Context, id uuid.UUID, reviewer auth.Actor, note *string) (*DonationView, error) {
	if err := requireStaff(reviewer); err != nil {
		return nil, err
	}
	note, err := normalizeNote(note)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, id, reviewer, enums.DonationStatusRejected, note, func(d *models.Donation) bool {
		return d.Status.CanReject()
	})
}

// Close is open to staff and to the donor withdrawing their own submission.
func (s *service) Close(ctx context.Context, id uuid.UUID, actor auth.Actor) (*DonationView, error) {
	if actor.IsAnonymous() {
		return nil, pkgerrors.Unauthenticated()
	}
	return s.transition(ctx, id, actor, enums.DonationStatusClosed, nil, func(d *models.Donation) bool {
		return d.Status != enums.DonationStatusClosed
	})
}

// transition locks the donation, checks allowed and writes the new status.
func (s *service) transition(ctx context.Context, id uuid.UUID, actor auth.Actor, to enums.DonationStatus, note *string, allowed func(*models.Donation) bool) (*DonationView, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		donation, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return notFoundOr(err, "lock donation")
		}
		if err := visibility.EnsureOwnerOrStaff(actor, donation.DonorID, "not allowed to change this donation"); err != nil {
			return err
		}
		if !allowed(donation) {
			return pkgerrors.Transition("donation", string(donation.Status), string(to))
		}
		return s.writeStatus(ctx, tx, donation, to, actor, note)
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "reload donation")
	}
	view := toView(*updated)
	return &view, nil
}

func (s *service) writeStatus(ctx context.Context, tx *gorm.DB, donation *models.Donation, to enums.DonationStatus, actor auth.Actor, note *string) error {
	from := donation.Status
	updates := map[string]any{"status": to}
	var reviewerID *uuid.UUID
	if actor.IsStaff() {
		id := actor.UserID
		reviewerID = &id
		updates["reviewer_id"] = id
	}
	if note != nil {
		updates["review_note"] = *note
	}
	if err := s.repo.WithTx(tx).Update(ctx, donation.ID, updates); err != nil {
		return pkgerrors.Dependency(err, "update donation status")
	}
	donation.Status = to

	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventDonationStatusChanged,
		AggregateType: enums.AggregateDonation,
		AggregateID:   donation.ID,
		Actor:         actor.OutboxRef(),
		Data: payloads.DonationStatusChangedEvent{
			DonationID: donation.ID,
			DonorID:    donation.DonorID,
			From:       from,
			To:         to,
			ReviewerID: reviewerID,
			Note:       note,
		},
	})
	if err != nil {
		return pkgerrors.Dependency(err, "queue donation event")
	}
	if s.metrics != nil {
		s.metrics.Transition("donation", string(from), string(to))
	}
	return nil
}

func requireStaff(actor auth.Actor) error {
	if actor.IsAnonymous() {
		return pkgerrors.Unauthenticated()
	}
	if !actor.IsStaff() {
		return pkgerrors.Forbidden("staff role required")
	}
	return nil
}

func normalizeNote(note *string) (*string, error) {
	if note == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) > MaxReviewNoteLength {
		return nil, pkgerrors.InvalidField("note", fmt.Sprintf("must be at most %d characters", MaxReviewNoteLength))
	}
	return &trimmed, nil
}

func notFoundOr(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.NotFound("donation")
	}
	return pkgerrors.Dependency(err, action)
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
