package pets

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pawhaven-backend/pkg/db/models"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox"
)

// Repository defines persistence operations for pets.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, pet *models.Pet) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Pet, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Pet, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PetStatus) error
	SetCoverKey(ctx context.Context, id uuid.UUID, key string) error
	List(ctx context.Context, query listQuery) ([]models.Pet, error)
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

// ViewRecorder counts unique daily views of a pet.
type ViewRecorder interface {
	Increase(ctx context.Context, viewer string, objectType enums.ViewObjectType, objectID uuid.UUID) (bool, error)
	Total(ctx context.Context, objectType enums.ViewObjectType, objectID uuid.UUID) (int64, error)
}
