package donations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/pawhaven-backend/internal/pets"
	"github.com/angelmondragon/pawhaven-backend/pkg/auth"
	"github.com/angelmondragon/pawhaven-backend/pkg/db/models"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pawhaven-backend/pkg/errors"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/pawhaven-backend/pkg/sanitize"
	"github.com/angelmondragon/pawhaven-backend/pkg/storage/gcs"
)

// Approve turns a donation into a listed pet. A donation that already
// produced a pet returns that pet with Created=false.
func (s *service) Approve(ctx context.Context, id uuid.UUID, reviewer auth.Actor, note *string) (*ApproveResult, error) {
	if err := requireStaff(reviewer); err != nil {
		return nil, err
	}
	note, err := normalizeNote(note)
	if err != nil {
		return nil, err
	}

	var (
		result ApproveResult
		cover  string
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		petsRepo := s.pets.WithTx(tx)

		donation, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return notFoundOr(err, "lock donation")
		}

		if donation.CreatedPetID != nil {
			pet, err := petsRepo.FindByID(ctx, *donation.CreatedPetID)
			if err != nil {
				return pkgerrors.Dependency(err, "load donated pet")
			}
			result = ApproveResult{Pet: pets.ToView(*pet)}
			return nil
		}
		if !donation.Status.CanApprove() {
			return pkgerrors.Transition("donation", string(donation.Status), string(enums.DonationStatusApproved))
		}

		pet := petFromDonation(donation)
		if err := petsRepo.Create(ctx, pet); err != nil {
			return pkgerrors.Dependency(err, "create pet from donation")
		}

		cover = s.copyCover(ctx, tx, donation.ID, pet)

		from := donation.Status
		updates := map[string]any{
			"status":         enums.DonationStatusApproved,
			"created_pet_id": pet.ID,
			"reviewer_id":    reviewer.UserID,
		}
		if note != nil {
			updates["review_note"] = *note
		}
		if err := repo.Update(ctx, donation.ID, updates); err != nil {
			return pkgerrors.Dependency(err, "mark donation approved")
		}

		if err := s.emitApproval(ctx, tx, donation, pet, reviewer); err != nil {
			return pkgerrors.Dependency(err, "queue approval events")
		}

		if s.metrics != nil {
			s.metrics.DonationApproved()
			s.metrics.Transition("donation", string(from), string(enums.DonationStatusApproved))
			s.metrics.Transition("pet", "", string(pet.Status))
		}
		result = ApproveResult{Pet: pets.ToView(*pet), Created: true}
		return nil
	})
	if err != nil {
		s.discardCover(ctx, cover)
		return nil, err
	}

	if result.Created {
		s.logg.Info(s.logg.WithPetID(ctx, result.Pet.ID.String()), "donation "+id.String()+" approved")
	}
	return &result, nil
}

func petFromDonation(d *models.Donation) *models.Pet {
	return &models.Pet{
		Name:        d.Name,
		Species:     d.Species,
		Breed:       d.Breed,
		Sex:         d.Sex,
		AgeYears:    d.AgeYears,
		AgeMonths:   d.AgeMonths,
		Description: sanitize.Description(d.Description),
		AddressID:   d.AddressID,
		Status:      enums.PetStatusAvailable,
		CreatedBy:   d.DonorID,
	}
}

// copyCover copies the donation's first photo next to the pet and returns the
// copied key. Failures are logged and never abort the approval: its reads and
// writes run under a savepoint so a failed statement leaves tx usable.
func (s *service) copyCover(ctx context.Context, tx *gorm.DB, donationID uuid.UUID, pet *models.Pet) string {
	if s.store == nil {
		return ""
	}
	petCtx := s.logg.WithPetID(ctx, pet.ID.String())

	var photo *models.DonationPhoto
	err := tx.Transaction(func(sp *gorm.DB) error {
		var err error
		photo, err = s.repo.WithTx(sp).FirstPhoto(ctx, donationID)
		return err
	})
	if err != nil {
		s.logg.Warn(petCtx, "loading donation photo failed: "+err.Error())
		return ""
	}
	if photo == nil {
		return ""
	}

	dst := gcs.PetCoverKey(s.petPrefix, pet.ID.String(), photo.ObjectKey)
	if err := s.store.CopyObject(ctx, photo.ObjectKey, dst); err != nil {
		if s.metrics != nil {
			s.metrics.PhotoCopy(false)
		}
		msg := "copying donation photo failed: " + err.Error()
		if errors.Is(err, gcs.ErrObjectNotFound) {
			msg = "donation photo " + photo.ObjectKey + " missing from bucket"
		}
		s.logg.Warn(petCtx, msg)
		return ""
	}

	err = tx.Transaction(func(sp *gorm.DB) error {
		return s.pets.WithTx(sp).SetCoverKey(ctx, pet.ID, dst)
	})
	if err != nil {
		s.logg.Warn(petCtx, "saving pet cover failed: "+err.Error())
		s.discardCover(ctx, dst)
		return ""
	}
	pet.CoverKey = &dst
	if s.metrics != nil {
		s.metrics.PhotoCopy(true)
	}
	return dst
}

// discardCover removes a copied cover whose pet row was never committed.
func (s *service) discardCover(ctx context.Context, key string) {
	if key == "" || s.store == nil {
		return
	}
	if err := s.store.DeleteObject(ctx, key); err != nil {
		s.logg.Warn(ctx, "removing orphaned cover "+key+" failed: "+err.Error())
	}
}

func (s *service) emitApproval(ctx context.Context, tx *gorm.DB, donation *models.Donation, pet *models.Pet, reviewer auth.Actor) error {
	actor := reviewer.OutboxRef()
	donationID := donation.ID
	events := []outbox.DomainEvent{
		{
			EventType:     enums.EventPetCreated,
			AggregateType: enums.AggregatePet,
			AggregateID:   pet.ID,
			Actor:         actor,
			Data: payloads.PetCreatedEvent{
				PetID:      pet.ID,
				OwnerID:    pet.CreatedBy,
				Status:     pet.Status,
				DonationID: &donationID,
			},
		},
		{
			EventType:     enums.EventPetStatusChanged,
			AggregateType: enums.AggregatePet,
			AggregateID:   pet.ID,
			Actor:         actor,
			Data: payloads.PetStatusChangedEvent{
				PetID:   pet.ID,
				OwnerID: pet.CreatedBy,
				To:      pet.Status,
				Reason:  pets.ReasonDonationApproved,
			},
		},
		{
			EventType:     enums.EventDonationApproved,
			AggregateType: enums.AggregateDonation,
			AggregateID:   donation.ID,
			Actor:         actor,
			Data: payloads.DonationApprovedEvent{
				DonationID: donation.ID,
				DonorID:    donation.DonorID,
				PetID:      pet.ID,
				ReviewerID: reviewer.UserID,
				CoverKey:   pet.CoverKey,
			},
		},
	}
	for _, event := range events {
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}
	}
	return nil
}

// BatchApproveNote is recorded on donations approved through a batch action.
const BatchApproveNote = "Approved in admin"

// BatchApprove approves each distinct donation in its own transaction.
func (s *service) BatchApprove(ctx context.Context, ids []uuid.UUID, reviewer auth.Actor) (BatchResult, error) {
	if err := requireStaff(reviewer); err != nil {
		return BatchResult{}, err
	}
	var (
		result BatchResult
		errs   error
	)
	note := BatchApproveNote
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, err := s.Approve(ctx, id, reviewer, &note); err != nil {
			result.Failed++
			errs = multierr.Append(errs, pkgerrors.Wrap(pkgerrors.CodeOf(err), err, "donation "+id.String()))
			continue
		}
		result.Succeeded++
	}
	return result, errs
}

// BatchClose closes every listed donation that is still open in a single
// transaction. Closed or unknown ids are counted as failed.
func (s *service) BatchClose(ctx context.Context, ids []uuid.UUID, reviewer auth.Actor) (BatchResult, error) {
	if err := requireStaff(reviewer); err != nil {
		return BatchResult{}, err
	}
	if len(ids) == 0 {
		return BatchResult{}, nil
	}

	var result BatchResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.repo.WithTx(tx).FindOpenForUpdate(ctx, ids)
		if err != nil {
			return pkgerrors.Dependency(err, "lock donations")
		}
		for i := range rows {
			if err := s.writeStatus(ctx, tx, &rows[i], enums.DonationStatusClosed, reviewer, nil); err != nil {
				return err
			}
		}
		result.Succeeded = len(rows)
		return nil
	})
	if err != nil {
		return BatchResult{}, err
	}
	result.Failed = len(uniqueIDs(ids)) - result.Succeeded
	return result, nil
}

func uniqueIDs(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
