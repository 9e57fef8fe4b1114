package visibility

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/pawhaven-backend/pkg/auth"
	"github.com/angelmondragon/pawhaven-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/pawhaven-backend/pkg/errors"
)

// EnsurePetVisible reports draft and archived pets as missing to everyone but
// their owner and staff.
func EnsurePetVisible(pet *models.Pet, actor auth.Actor) error {
	if pet == nil {
		return pkgerrors.NotFound("pet")
	}
	if pet.Status.IsHidden() && !actor.Owns(pet.CreatedBy) && !actor.IsStaff() {
		return pkgerrors.NotFound("pet")
	}
	return nil
}

// EnsureOwnerOrStaff rejects actors that neither own the resource nor hold
// the staff role.
func EnsureOwnerOrStaff(actor auth.Actor, ownerID uuid.UUID, message string) error {
	if actor.IsAnonymous() {
		return pkgerrors.Unauthenticated()
	}
	if actor.IsStaff() || actor.Owns(ownerID) {
		return nil
	}
	return pkgerrors.Forbidden(message)
}
