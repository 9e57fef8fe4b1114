package pets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
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

var publicStatuses = []enums.PetStatus{enums.PetStatusAvailable, enums.PetStatusPending}

// Service exposes pet listing and status operations.
type Service interface {
	Create(ctx context.Context, actor auth.Actor, input CreateInput) (*PetView, error)
	Get(ctx context.Context, id uuid.UUID, actor auth.Actor, viewer string) (*PetDetail, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkLost(ctx context.Context, id uuid.UUID, actor auth.Actor) (*PetView, error)
	SetStatus(ctx context.Context, id uuid.UUID, status enums.PetStatus, actor auth.Actor) (*PetView, error)
}

type service struct {
	repo        Repository
	tx          txRunner
	outbox      outboxPublisher
	transitions *Transitioner
	views       ViewRecorder
	logg        *logger.Logger
}

// NewService builds the pet service. views may be nil, in which case detail
// reads skip view counting.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, transitions *Transitioner, views ViewRecorder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pets repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if transitions == nil {
		return nil, fmt.Errorf("pet transitioner required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:        repo,
		tx:          tx,
		outbox:      outbox,
		transitions: transitions,
		views:       views,
		logg:        logg,
	}, nil
}

func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateInput) (*PetView, error) {
	if actor.IsAnonymous() {
		return nil, pkgerrors.Unauthenticated()
	}
	pet, err := buildPet(actor.UserID, input)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, pet); err != nil {
			return pkgerrors.Dependency(err, "create pet")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPetCreated,
			AggregateType: enums.AggregatePet,
			AggregateID:   pet.ID,
			Actor:         actor.OutboxRef(),
			Data: payloads.PetCreatedEvent{
				PetID:   pet.ID,
				OwnerID: pet.CreatedBy,
				Status:  pet.Status,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	view := ToView(*pet)
	return &view, nil
}

func buildPet(ownerID uuid.UUID, input CreateInput) (*models.Pet, error) {
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

	status := input.Status
	if status == "" {
		status = enums.PetStatusAvailable
	}
	if status != enums.PetStatusAvailable && status != enums.PetStatusDraft {
		return nil, pkgerrors.InvalidField("status", "new pets start as available or draft")
	}

	addr, err := address.ToModel(input.Address)
	if err != nil {
		return nil, err
	}

	return &models.Pet{
		Name:        name,
		Species:     species,
		Breed:       trimmedPtr(input.Breed),
		Sex:         input.Sex,
		AgeYears:    input.AgeYears,
		AgeMonths:   input.AgeMonths,
		Description: sanitize.Description(input.Description),
		Address:     addr,
		CoverKey:    trimmedPtr(input.CoverKey),
		Status:      status,
		CreatedBy:   ownerID,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID, actor auth.Actor, viewer string) (*PetDetail, error) {
	pet, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("pet")
		}
		return nil, pkgerrors.Dependency(err, "lookup pet")
	}
	if err := visibility.EnsurePetVisible(pet, actor); err != nil {
		return nil, err
	}

	detail := &PetDetail{PetView: ToView(*pet)}
	if s.views == nil {
		return detail, nil
	}

	if viewer != "" {
		if _, err := s.views.Increase(ctx, viewer, enums.ViewObjectPet, pet.ID); err != nil {
			s.logg.Warn(s.logg.WithPetID(ctx, pet.ID.String()), "recording pet view failed: "+err.Error())
		}
	}
	total, err := s.views.Total(ctx, enums.ViewObjectPet, pet.ID)
	if err != nil {
		s.logg.Warn(s.logg.WithPetID(ctx, pet.ID.String()), "reading pet views failed: "+err.Error())
	}
	detail.Views = total
	return detail, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listQuery{
		statuses: publicStatuses,
		species:  params.Species,
		breed:    params.Breed,
		search:   params.Query,
		ownerID:  params.OwnerID,
		limit:    pagination.LimitWithBuffer(params.Limit),
	}
	if params.Status != nil {
		if !params.Status.IsPublic() {
			return nil, pkgerrors.InvalidField("status", "must be available or pending")
		}
		query.statuses = []enums.PetStatus{*params.Status}
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
		return nil, pkgerrors.Dependency(err, "list pets")
	}

	views := make([]PetView, len(rows))
	for i, row := range rows {
		views[i] = ToView(row)
	}
	page := pagination.BuildPage(views, params.Limit, func(v PetView) pagination.Cursor {
		return pagination.Cursor{CreatedAt: v.CreatedAt, ID: v.ID}
	})
	return &page, nil
}

func (s *service) MarkLost(ctx context.Context, id uuid.UUID, actor auth.Actor) (*PetView, error) {
	return s.changeStatus(ctx, id, enums.PetStatusLost, ReasonMarkedLost, actor)
}

func (s *service) SetStatus(ctx context.Context, id uuid.UUID, status enums.PetStatus, actor auth.Actor) (*PetView, error) {
	if !status.IsValid() {
		return nil, pkgerrors.InvalidField("status", fmt.Sprintf("unknown pet status %q", status))
	}
	return s.changeStatus(ctx, id, status, ReasonManual, actor)
}

func (s *service) changeStatus(ctx context.Context, id uuid.UUID, status enums.PetStatus, reason string, actor auth.Actor) (*PetView, error) {
	if actor.IsAnonymous() {
		return nil, pkgerrors.Unauthenticated()
	}

	var updated *models.Pet
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		pet, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.NotFound("pet")
			}
			return pkgerrors.Dependency(err, "lock pet")
		}
		if err := visibility.EnsureOwnerOrStaff(actor, pet.CreatedBy, "only the owner or staff may change pet status"); err != nil {
			return err
		}
		if _, err := s.transitions.Apply(ctx, tx, pet, status, reason, actor); err != nil {
			return pkgerrors.Dependency(err, "update pet status")
		}
		updated = pet
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithPetID(ctx, id.String()), "pet status set to "+string(status))
	view := ToView(*updated)
	return &view, nil
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
