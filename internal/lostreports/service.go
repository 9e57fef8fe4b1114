package lostreports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/pawhaven-backend/internal/address"
	"github.com/angelmondragon/pawhaven-backend/pkg/auth"
	"github.com/angelmondragon/pawhaven-backend/pkg/db/models"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pawhaven-backend/pkg/errors"
	"github.com/angelmondragon/pawhaven-backend/pkg/logger"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/pawhaven-backend/pkg/pagination"
	"github.com/angelmondragon/pawhaven-backend/pkg/sanitize"
	"github.com/angelmondragon/pawhaven-backend/pkg/visibility"
)

var allowedTransitions = map[enums.LostReportStatus][]enums.LostReportStatus{
	enums.LostReportStatusOpen:  {enums.LostReportStatusFound, enums.LostReportStatusClosed},
	enums.LostReportStatusFound: {enums.LostReportStatusClosed},
}

var validate = validator.New()

// Service manages lost-pet reports.
type Service interface {
	Create(ctx context.Context, actor auth.Actor, input CreateInput) (*ReportView, error)
	Get(ctx context.Context, id uuid.UUID, viewer string) (*ReportView, error)
	List(ctx context.Context, actor auth.Actor, params ListParams) (*ListResult, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.LostReportStatus, actor auth.Actor) (*ReportView, error)
}

type service struct {
	repo   Repository
	pets   petLookup
	tx     txRunner
	outbox outboxPublisher
	views  viewCounter
	logg   *logger.Logger
	now    func() time.Time
}

// NewService wires the lost report service. views may be nil.
func NewService(repo Repository, pets petLookup, tx txRunner, outbox outboxPublisher, views viewCounter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("lost reports repository required")
	}
	if pets == nil {
		return nil, fmt.Errorf("pet lookup required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:   repo,
		pets:   pets,
		tx:     tx,
		outbox: outbox,
		views:  views,
		logg:   logg,
		now:    time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateInput) (*ReportView, error) {
	if actor.IsAnonymous() {
		return nil, pkgerrors.Unauthenticated()
	}
	report, err := s.buildReport(actor.UserID, input)
	if err != nil {
		return nil, err
	}
	if report.PetID != nil {
		if _, err := s.pets.FindByID(ctx, *report.PetID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.InvalidField("pet_id", "unknown pet")
			}
			return nil, pkgerrors.Dependency(err, "lookup pet")
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, report); err != nil {
			return pkgerrors.Dependency(err, "create lost report")
		}
		var city *string
		if report.Address != nil && report.Address.City != "" {
			city = &report.Address.City
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLostReportCreated,
			AggregateType: enums.AggregateLostReport,
			AggregateID:   report.ID,
			Actor:         actor.OutboxRef(),
			Data: payloads.LostReportCreatedEvent{
				LostReportID: report.ID,
				ReporterID:   report.ReporterID,
				PetID:        report.PetID,
				Species:      report.Species,
				City:         city,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	view := toView(*report)
	return &view, nil
}

func (s *service) buildReport(reporterID uuid.UUID, input CreateInput) (*models.LostReport, error) {
	name := strings.TrimSpace(input.PetName)
	species := strings.TrimSpace(input.Species)
	if name == "" {
		return nil, pkgerrors.InvalidField("pet_name", "required")
	}
	if species == "" {
		return nil, pkgerrors.InvalidField("species", "required")
	}
	if input.Sex != nil && !input.Sex.IsValid() {
		return nil, pkgerrors.InvalidField("sex", "invalid")
	}
	if input.Size != nil && !input.Size.IsValid() {
		return nil, pkgerrors.InvalidField("size", "invalid")
	}

	lostAt := input.LostAt
	if lostAt.IsZero() {
		lostAt = s.now()
	}
	if lostAt.After(s.now().Add(time.Minute)) {
		return nil, pkgerrors.InvalidField("lost_at", "must not be in the future")
	}

	var reward decimal.NullDecimal
	if input.Reward != nil {
		if input.Reward.IsNegative() {
			return nil, pkgerrors.InvalidField("reward", "must not be negative")
		}
		reward = decimal.NewNullDecimal(input.Reward.Round(2))
	}

	email := trimmedPtr(input.ContactEmail)
	if email != nil {
		if err := validate.Var(*email, "email,max=254"); err != nil {
			return nil, pkgerrors.InvalidField("contact_email", "invalid email")
		}
	}

	addr, err := address.ToModel(input.Address)
	if err != nil {
		return nil, err
	}

	return &models.LostReport{
		ReporterID:   reporterID,
		PetID:        input.PetID,
		PetName:      name,
		Species:      species,
		Breed:        trimmedPtr(input.Breed),
		Color:        trimmedPtr(input.Color),
		Sex:          input.Sex,
		Size:         input.Size,
		Description:  sanitize.Description(input.Description),
		Address:      addr,
		LostAt:       lostAt.UTC(),
		Reward:       reward,
		PhotoKey:     trimmedPtr(input.PhotoKey),
		ContactPhone: trimmedPtr(input.ContactPhone),
		ContactEmail: email,
		Status:       enums.LostReportStatusOpen,
	}, nil
}

// Get is public. A non-empty viewer records a deduplicated view.
func (s *service) Get(ctx context.Context, id uuid.UUID, viewer string) (*ReportView, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "lookup lost report")
	}
	if s.views != nil && viewer != "" {
		if _, err := s.views.Increase(ctx, viewer, enums.ViewObjectLostReport, report.ID); err != nil {
			s.logg.Warn(ctx, "recording lost report view failed: "+err.Error())
		}
	}
	view := toView(*report)
	return &view, nil
}

func (s *service) List(ctx context.Context, actor auth.Actor, params ListParams) (*ListResult, error) {
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.InvalidField("status", "invalid")
	}
	if params.Sex != nil && !params.Sex.IsValid() {
		return nil, pkgerrors.InvalidField("sex", "invalid")
	}
	if params.Size != nil && !params.Size.IsValid() {
		return nil, pkgerrors.InvalidField("size", "invalid")
	}
	if params.LostFrom != nil && params.LostTo != nil && params.LostFrom.After(*params.LostTo) {
		return nil, pkgerrors.InvalidField("lost_from", "must not be after lost_to")
	}

	query := listQuery{
		search:   params.Query,
		species:  params.Species,
		breed:    params.Breed,
		color:    params.Color,
		sex:      params.Sex,
		size:     params.Size,
		status:   params.Status,
		lostFrom: utcPtr(params.LostFrom),
		lostTo:   utcPtr(params.LostTo),
		limit:    pagination.LimitWithBuffer(params.Limit),
	}
	if params.Mine {
		if actor.IsAnonymous() {
			return nil, pkgerrors.Unauthenticated()
		}
		reporter := actor.UserID
		query.reporterID = &reporter
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
		return nil, pkgerrors.Dependency(err, "list lost reports")
	}
	views := make([]ReportView, len(rows))
	for i, row := range rows {
		views[i] = toView(row)
	}
	page := pagination.BuildPage(views, params.Limit, func(v ReportView) pagination.Cursor {
		return pagination.Cursor{CreatedAt: v.CreatedAt, ID: v.ID}
	})
	return &page, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.LostReportStatus, actor auth.Actor) (*ReportView, error) {
	if actor.IsAnonymous() {
		return nil, pkgerrors.Unauthenticated()
	}
	if !status.IsValid() {
		return nil, pkgerrors.InvalidField("status", fmt.Sprintf("unknown lost report status %q", status))
	}

	var updated *models.LostReport
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		report, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return notFoundOr(err, "lock lost report")
		}
		if err := visibility.EnsureOwnerOrStaff(actor, report.ReporterID, "only the reporter or staff may update this report"); err != nil {
			return err
		}
		updated = report
		if report.Status == status {
			return nil
		}
		if !canTransition(report.Status, status) {
			return pkgerrors.Transition("lost_report", string(report.Status), string(status))
		}

		from := report.Status
		if err := repo.UpdateStatus(ctx, id, status); err != nil {
			return pkgerrors.Dependency(err, "update lost report status")
		}
		report.Status = status
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLostReportStatusChanged,
			AggregateType: enums.AggregateLostReport,
			AggregateID:   report.ID,
			Actor:         actor.OutboxRef(),
			Data: payloads.LostReportStatusChangedEvent{
				LostReportID: report.ID,
				ReporterID:   report.ReporterID,
				From:         from,
				To:           status,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	view := toView(*updated)
	return &view, nil
}

func canTransition(from, to enums.LostReportStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

func notFoundOr(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.NotFound("lost report")
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

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
