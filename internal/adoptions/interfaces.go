package adoptions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pawhaven-backend/pkg/db/models"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox"
)

// Repository defines persistence operations for adoption applications.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, adoption *models.Adoption) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Adoption, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.AdoptionStatus) error
	CloseOpenSiblings(ctx context.Context, petID, keepID uuid.UUID) ([]models.Adoption, error)
	CountOpen(ctx context.Context, petID uuid.UUID, excludeID *uuid.UUID) (int64, error)
	List(ctx context.Context, query listQuery) ([]models.Adoption, error)
	FindMismatchedPets(ctx context.Context, limit int) ([]uuid.UUID, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type transitionRecorder interface {
	Transition(entity, from, to string)
}
