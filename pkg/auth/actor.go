package auth

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox"
)

// Actor is the authenticated caller as seen by domain services. The zero
// value is an anonymous visitor.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

func ActorFromClaims(claims *AccessTokenClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{UserID: claims.UserID, Role: claims.Role}
}

func (a Actor) IsAnonymous() bool {
	return a.UserID == uuid.Nil
}

func (a Actor) IsStaff() bool {
	return !a.IsAnonymous() && a.Role.IsStaff()
}

// Owns reports whether the actor is the given user.
func (a Actor) Owns(userID uuid.UUID) bool {
	return !a.IsAnonymous() && a.UserID == userID
}

// OutboxRef returns the actor reference stamped on queued events.
func (a Actor) OutboxRef() *outbox.ActorRef {
	if a.IsAnonymous() {
		return nil
	}
	return &outbox.ActorRef{UserID: a.UserID, Role: string(a.Role)}
}
