package visibility

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/pawhaven-backend/pkg/auth"
	"github.com/angelmondragon/pawhaven-backend/pkg/db/models"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	"github.com/angelmondragon/pawhaven-backend/pkg/errors"
)

func TestEnsurePetVisible(t *testing.T) {
	owner := auth.Actor{UserID: uuid.New(), Role: enums.UserRoleUser}
	stranger := auth.Actor{UserID: uuid.New(), Role: enums.UserRoleUser}
	staff := auth.Actor{UserID: uuid.New(), Role: enums.UserRoleStaff}

	cases := []struct {
		name    string
		status  enums.PetStatus
		actor   auth.Actor
		visible bool
	}{
		{"available to anonymous", enums.PetStatusAvailable, auth.Actor{}, true},
		{"adopted to stranger", enums.PetStatusAdopted, stranger, true},
		{"draft to anonymous", enums.PetStatusDraft, auth.Actor{}, false},
		{"draft to stranger", enums.PetStatusDraft, stranger, false},
		{"draft to owner", enums.PetStatusDraft, owner, true},
		{"archived to staff", enums.PetStatusArchived, staff, true},
		{"archived to stranger", enums.PetStatusArchived, stranger, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pet := &models.Pet{ID: uuid.New(), Status: tc.status, CreatedBy: owner.UserID}
			err := EnsurePetVisible(pet, tc.actor)
			if tc.visible {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, errors.CodeNotFound, errors.As(err).Code())
		})
	}

	assert.Equal(t, errors.CodeNotFound, errors.As(EnsurePetVisible(nil, staff)).Code())
}

func TestEnsureOwnerOrStaff(t *testing.T) {
	owner := uuid.New()

	assert.NoError(t, EnsureOwnerOrStaff(auth.Actor{UserID: owner, Role: enums.UserRoleUser}, owner, "nope"))
	assert.NoError(t, EnsureOwnerOrStaff(auth.Actor{UserID: uuid.New(), Role: enums.UserRoleStaff}, owner, "nope"))

	err := EnsureOwnerOrStaff(auth.Actor{UserID: uuid.New(), Role: enums.UserRoleUser}, owner, "nope")
	assert.Equal(t, errors.CodeForbidden, errors.As(err).Code())
	assert.Equal(t, "nope", errors.As(err).Message())

	err = EnsureOwnerOrStaff(auth.Actor{}, owner, "nope")
	assert.Equal(t, errors.CodeUnauthorized, errors.As(err).Code())
}
