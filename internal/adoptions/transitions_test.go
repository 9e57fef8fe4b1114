package adoptions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
)

func TestCheckTransition(t *testing.T) {
	assert.Equal(t, transitionAllowed, checkTransition(enums.AdoptionStatusSubmitted, enums.AdoptionStatusApproved))
	assert.Equal(t, transitionNoop, checkTransition(enums.AdoptionStatusApproved, enums.AdoptionStatusApproved))
	assert.Equal(t, transitionDenied, checkTransition(enums.AdoptionStatusClosed, enums.AdoptionStatusApproved))
	assert.Equal(t, transitionDenied, checkTransition(enums.AdoptionStatusRejected, enums.AdoptionStatusClosed))

	assert.True(t, isTargetStatus(enums.AdoptionStatusClosed))
	assert.False(t, isTargetStatus(enums.AdoptionStatusSubmitted))
}
