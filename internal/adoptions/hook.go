package adoptions

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/pawhaven-backend/internal/pets"
	"github.com/angelmondragon/pawhaven-backend/pkg/auth"
	"github.com/angelmondragon/pawhaven-backend/pkg/db/models"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox/payloads"
)

// lifecycleHook keeps the pet status in line with its applications. It runs
// after every adoption write, on the same transaction, with the pet row
// already locked by the caller.
type lifecycleHook struct {
	repo        Repository
	transitions *pets.Transitioner
	outbox      outboxPublisher
	metrics     transitionRecorder
}

// afterCreate moves an available pet to pending.
func (h *lifecycleHook) afterCreate(ctx context.Context, tx *gorm.DB, pet *models.Pet, actor auth.Actor) error {
	if pet.Status != enums.PetStatusAvailable {
		return nil
	}
	_, err := h.transitions.Apply(ctx, tx, pet, enums.PetStatusPending, pets.ReasonApplicationOpened, actor)
	return err
}

// afterStatusChange applies the pet side of an adoption reaching status.
func (h *lifecycleHook) afterStatusChange(ctx context.Context, tx *gorm.DB, pet *models.Pet, adoption *models.Adoption, actor auth.Actor) error {
	switch adoption.Status {
	case enums.AdoptionStatusApproved:
		if pet.Status != enums.PetStatusAdopted {
			if _, err := h.transitions.Apply(ctx, tx, pet, enums.PetStatusAdopted, pets.ReasonAdoptionApproved, actor); err != nil {
				return err
			}
		}
		return h.closeSiblings(ctx, tx, adoption, actor)

	case enums.AdoptionStatusClosed, enums.AdoptionStatusRejected:
		if pet.Status != enums.PetStatusPending && pet.Status != enums.PetStatusAvailable {
			return nil
		}
		open, err := h.repo.WithTx(tx).CountOpen(ctx, pet.ID, &adoption.ID)
		if err != nil {
			return err
		}
		if open > 0 {
			return nil
		}
		_, err = h.transitions.Apply(ctx, tx, pet, enums.PetStatusAvailable, pets.ReasonApplicationsEnded, actor)
		return err
	}
	return nil
}

// closeSiblings forces every other open application of the pet to closed.
func (h *lifecycleHook) closeSiblings(ctx context.Context, tx *gorm.DB, approved *models.Adoption, actor auth.Actor) error {
	closed, err := h.repo.WithTx(tx).CloseOpenSiblings(ctx, approved.PetID, approved.ID)
	if err != nil {
		return err
	}
	for _, sibling := range closed {
		if err := h.outbox.Emit(ctx, tx, statusChangedEvent(sibling, sibling.Status, enums.AdoptionStatusClosed, true, actor)); err != nil {
			return err
		}
		if h.metrics != nil {
			h.metrics.Transition("adoption", string(sibling.Status), string(enums.AdoptionStatusClosed))
		}
	}
	return nil
}

func statusChangedEvent(adoption models.Adoption, from, to enums.AdoptionStatus, forced bool, actor auth.Actor) outbox.DomainEvent {
	return outbox.DomainEvent{
		EventType:     enums.EventAdoptionStatusChanged,
		AggregateType: enums.AggregateAdoption,
		AggregateID:   adoption.ID,
		Actor:         actor.OutboxRef(),
		Data: payloads.AdoptionStatusChangedEvent{
			AdoptionID:  adoption.ID,
			PetID:       adoption.PetID,
			ApplicantID: adoption.ApplicantID,
			From:        from,
			To:          to,
			Forced:      forced,
		},
	}
}
