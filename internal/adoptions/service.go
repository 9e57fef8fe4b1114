package adoptions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pawhaven-backend/internal/pets"
	"github.com/angelmondragon/pawhaven-backend/pkg/auth"
	"github.com/angelmondragon/pawhaven-backend/pkg/db/models"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pawhaven-backend/pkg/errors"
	"github.com/angelmondragon/pawhaven-backend/pkg/logger"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/pawhaven-backend/pkg/pagination"
)

// Service runs the adoption side of the pet lifecycle.
type Service interface {
	Apply(ctx context.Context, petID uuid.UUID, actor auth.Actor, message string) (*AdoptionView, error)
	UpdateStatus(ctx context.Context, adoptionID uuid.UUID, status enums.AdoptionStatus, actor auth.Actor) (*AdoptionView, error)
	Get(ctx context.Context, adoptionID uuid.UUID, actor auth.Actor) (*AdoptionView, error)
	List(ctx context.Context, actor auth.Actor, params ListParams) (*ListResult, error)
	Reconcile(ctx context.Context, limit int) (int, error)
}

type service struct {
	repo    Repository
	pets    pets.Repository
	tx      txRunner
	outbox  outboxPublisher
	hook    *lifecycleHook
	metrics transitionRecorder
	logg    *logger.Logger
}

// NewService wires the adoption service. metrics may be nil.
func NewService(repo Repository, petsRepo pets.Repository, tx txRunner, outbox outboxPublisher, transitions *pets.Transitioner, metrics transitionRecorder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("adoptions repository required")
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
	if transitions == nil {
		return nil, fmt.Errorf("pet transitioner required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:   repo,
		pets:   petsRepo,
		tx:     tx,
		outbox: outbox,
		hook: &lifecycleHook{
			repo:        repo,
			transitions: transitions,
			outbox:      outbox,
			metrics:     metrics,
		},
		metrics: metrics,
		logg:    logg,
	}, nil
}

func (s *service) Apply(ctx context.Context, petID uuid.UUID, actor auth.Actor, message string) (*AdoptionView, error) {
	if actor.IsAnonymous() {
		return nil, pkgerrors.Unauthenticated()
	}
	message = strings.TrimSpace(message)
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return nil, pkgerrors.InvalidField("message", fmt.Sprintf("must be at most %d characters", MaxMessageLength))
	}

	var created *models.Adoption
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		pet, err := s.lockPet(ctx, tx, petID)
		if err != nil {
			return err
		}
		// Hidden pets answer the same validation error as lost or adopted ones.
		if !pet.Status.AcceptsApplications() {
			return pkgerrors.InvalidField("pet", fmt.Sprintf("pet is %s and does not accept applications", pet.Status))
		}

		adoption := &models.Adoption{
			PetID:       pet.ID,
			ApplicantID: actor.UserID,
			Message:     message,
			Status:      enums.AdoptionStatusSubmitted,
		}
		if err := s.repo.WithTx(tx).Create(ctx, adoption); err != nil {
			return pkgerrors.Dependency(err, "create adoption")
		}
		if err := s.hook.afterCreate(ctx, tx, pet, actor); err != nil {
			return pkgerrors.Dependency(err, "update pet after application")
		}
		err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAdoptionSubmitted,
			AggregateType: enums.AggregateAdoption,
			AggregateID:   adoption.ID,
			Actor:         actor.OutboxRef(),
			Data: payloads.AdoptionSubmittedEvent{
				AdoptionID:  adoption.ID,
				PetID:       pet.ID,
				OwnerID:     pet.CreatedBy,
				ApplicantID: actor.UserID,
			},
		})
		if err != nil {
			return pkgerrors.Dependency(err, "queue adoption event")
		}
		created = adoption
		return nil
	})
	if err != nil {
		return nil, err
	}

	view := toView(*created)
	return &view, nil
}

func (s *service) UpdateStatus(ctx context.Context, adoptionID uuid.UUID, status enums.AdoptionStatus, actor auth.Actor) (*AdoptionView, error) {
	if actor.IsAnonymous() {
		return nil, pkgerrors.Unauthenticated()
	}
	if !isTargetStatus(status) {
		return nil, pkgerrors.InvalidField("status", "must be one of processing, approved, rejected, closed")
	}

	existing, err := s.findAdoption(ctx, s.repo, adoptionID)
	if err != nil {
		return nil, err
	}

	var result *models.Adoption
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		pet, err := s.lockPet(ctx, tx, existing.PetID)
		if err != nil {
			return err
		}
		// re-read under the pet lock; a concurrent writer may have moved it
		adoption, err := s.findAdoption(ctx, repo, adoptionID)
		if err != nil {
			return err
		}
		if err := authorize(actor, pet, adoption, status); err != nil {
			return err
		}

		from := adoption.Status
		switch checkTransition(from, status) {
		case transitionDenied:
			return pkgerrors.Transition("adoption", string(from), string(status))
		case transitionNoop:
			result = adoption
			if status == enums.AdoptionStatusApproved {
				if err := s.hook.closeSiblings(ctx, tx, adoption, actor); err != nil {
					return pkgerrors.Dependency(err, "close sibling applications")
				}
			}
			return nil
		}

		if err := repo.UpdateStatus(ctx, adoption.ID, status); err != nil {
			return pkgerrors.Dependency(err, "update adoption status")
		}
		adoption.Status = status

		if err := s.outbox.Emit(ctx, tx, statusChangedEvent(*adoption, from, status, false, actor)); err != nil {
			return pkgerrors.Dependency(err, "queue adoption event")
		}
		if s.metrics != nil {
			s.metrics.Transition("adoption", string(from), string(status))
		}
		if err := s.hook.afterStatusChange(ctx, tx, pet, adoption, actor); err != nil {
			return pkgerrors.Dependency(err, "update pet after adoption change")
		}
		result = adoption
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"adoption_id": adoptionID.String(),
		"pet_id":      result.PetID.String(),
		"status":      string(result.Status),
	}), "adoption status updated")

	view := toView(*result)
	return &view, nil
}

// authorize gates a status change. Owners and staff drive the review, the
// applicant may only withdraw.
func authorize(actor auth.Actor, pet *models.Pet, adoption *models.Adoption, status enums.AdoptionStatus) error {
	if actor.IsStaff() || actor.Owns(pet.CreatedBy) {
		return nil
	}
	if actor.Owns(adoption.ApplicantID) && status == enums.AdoptionStatusClosed {
		return nil
	}
	return pkgerrors.Forbidden("not allowed to set this adoption status")
}

func (s *service) Get(ctx context.Context, adoptionID uuid.UUID, actor auth.Actor) (*AdoptionView, error) {
	if actor.IsAnonymous() {
		return nil, pkgerrors.Unauthenticated()
	}
	adoption, err := s.findAdoption(ctx, s.repo, adoptionID)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && !actor.Owns(adoption.ApplicantID) {
		pet, err := s.pets.FindByID(ctx, adoption.PetID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Dependency(err, "lookup pet")
		}
		if pet == nil || !actor.Owns(pet.CreatedBy) {
			return nil, pkgerrors.NotFound("adoption")
		}
	}
	view := toView(*adoption)
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
		petID:  params.PetID,
		status: params.Status,
		limit:  pagination.LimitWithBuffer(params.Limit),
	}
	switch {
	case actor.IsStaff():
	case params.PetID != nil:
		pet, err := s.pets.FindByID(ctx, *params.PetID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.NotFound("pet")
			}
			return nil, pkgerrors.Dependency(err, "lookup pet")
		}
		if !actor.Owns(pet.CreatedBy) {
			return nil, pkgerrors.Forbidden("only the pet owner may list its applications")
		}
	default:
		applicant := actor.UserID
		query.applicantID = &applicant
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
		return nil, pkgerrors.Dependency(err, "list adoptions")
	}
	views := make([]AdoptionView, len(rows))
	for i, row := range rows {
		views[i] = toView(row)
	}
	page := pagination.BuildPage(views, params.Limit, func(v AdoptionView) pagination.Cursor {
		return pagination.Cursor{CreatedAt: v.CreatedAt, ID: v.ID}
	})
	return &page, nil
}

// Reconcile repairs pets whose status disagrees with their open applications
// and returns how many were changed.
func (s *service) Reconcile(ctx context.Context, limit int) (int, error) {
	ids, err := s.repo.FindMismatchedPets(ctx, limit)
	if err != nil {
		return 0, pkgerrors.Dependency(err, "find mismatched pets")
	}

	fixed := 0
	for _, petID := range ids {
		changed := false
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			pet, err := s.lockPet(ctx, tx, petID)
			if err != nil {
				return err
			}
			open, err := s.repo.WithTx(tx).CountOpen(ctx, pet.ID, nil)
			if err != nil {
				return err
			}
			target := pet.Status
			switch {
			case pet.Status == enums.PetStatusPending && open == 0:
				target = enums.PetStatusAvailable
			case pet.Status == enums.PetStatusAvailable && open > 0:
				target = enums.PetStatusPending
			}
			changed, err = s.hook.transitions.Apply(ctx, tx, pet, target, pets.ReasonReconciled, auth.Actor{})
			return err
		})
		if err != nil {
			return fixed, err
		}
		if changed {
			fixed++
			s.logg.Info(s.logg.WithPetID(ctx, petID.String()), "pet status reconciled")
		}
	}
	return fixed, nil
}

func (s *service) lockPet(ctx context.Context, tx *gorm.DB, petID uuid.UUID) (*models.Pet, error) {
	pet, err := s.pets.WithTx(tx).FindByIDForUpdate(ctx, petID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("pet")
		}
		return nil, pkgerrors.Dependency(err, "lock pet")
	}
	return pet, nil
}

func (s *service) findAdoption(ctx context.Context, repo Repository, id uuid.UUID) (*models.Adoption, error) {
	adoption, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("adoption")
		}
		return nil, pkgerrors.Dependency(err, "lookup adoption")
	}
	return adoption, nil
}
