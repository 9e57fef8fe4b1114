package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
)

func TestActor(t *testing.T) {
	userID := uuid.New()
	staff := Actor{UserID: userID, Role: enums.UserRoleAdmin}
	user := ActorFromClaims(&AccessTokenClaims{UserID: userID, Role: enums.UserRoleUser})
	var anon Actor

	assert.True(t, staff.IsStaff())
	assert.False(t, user.IsStaff())
	assert.False(t, Actor{Role: enums.UserRoleStaff}.IsStaff())

	assert.True(t, user.Owns(userID))
	assert.False(t, user.Owns(uuid.New()))
	assert.False(t, anon.Owns(uuid.Nil))

	assert.True(t, anon.IsAnonymous())
	assert.Nil(t, anon.OutboxRef())
	assert.Equal(t, "user", user.OutboxRef().Role)
	assert.Equal(t, Actor{}, ActorFromClaims(nil))
}
