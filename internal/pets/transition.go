package pets

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/pawhaven-backend/pkg/auth"
	"github.com/angelmondragon/pawhaven-backend/pkg/db/models"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox/payloads"
)

// Transition reasons recorded on pet_status_changed events.
const (
	ReasonApplicationOpened = "application_opened"
	ReasonAdoptionApproved  = "adoption_approved"
	ReasonApplicationsEnded = "applications_ended"
	ReasonMarkedLost        = "marked_lost"
	ReasonManual            = "manual"
	ReasonReconciled        = "reconciled"
	ReasonDonationApproved  = "donation_approved"
)

// Transitioner writes pet status changes inside a caller owned transaction
// and queues the matching pet_status_changed event.
type Transitioner struct {
	repo    Repository
	outbox  outboxPublisher
	metrics transitionRecorder
}

func NewTransitioner(repo Repository, outbox outboxPublisher, metrics transitionRecorder) (*Transitioner, error) {
	if repo == nil {
		return nil, fmt.Errorf("pets repository required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &Transitioner{repo: repo, outbox: outbox, metrics: metrics}, nil
}

// Apply moves pet to status. It reports false without writing when the pet is
// already there. pet must have been loaded with FindByIDForUpdate on tx.
func (t *Transitioner) Apply(ctx context.Context, tx *gorm.DB, pet *models.Pet, to enums.PetStatus, reason string, actor auth.Actor) (bool, error) {
	if tx == nil {
		return false, errors.New("transaction required")
	}
	if pet == nil {
		return false, errors.New("pet required")
	}
	if !to.IsValid() {
		return false, fmt.Errorf("invalid pet status %q", to)
	}
	from := pet.Status
	if from == to {
		return false, nil
	}

	if err := t.repo.WithTx(tx).UpdateStatus(ctx, pet.ID, to); err != nil {
		return false, err
	}
	pet.Status = to

	event := outbox.DomainEvent{
		EventType:     enums.EventPetStatusChanged,
		AggregateType: enums.AggregatePet,
		AggregateID:   pet.ID,
		Actor:         actor.OutboxRef(),
		Data: payloads.PetStatusChangedEvent{
			PetID:   pet.ID,
			OwnerID: pet.CreatedBy,
			From:    from,
			To:      to,
			Reason:  reason,
		},
	}
	if err := t.outbox.Emit(ctx, tx, event); err != nil {
		return false, err
	}
	if t.metrics != nil {
		t.metrics.Transition("pet", string(from), string(to))
	}
	return true, nil
}
