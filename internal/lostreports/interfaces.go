package lostreports

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pawhaven-backend/pkg/db/models"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox"
)

// Repository defines persistence operations for lost-pet reports.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, report *models.LostReport) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.LostReport, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.LostReport, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.LostReportStatus) error
	List(ctx context.Context, query listQuery) ([]models.LostReport, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// petLookup confirms a linked pet exists.
type petLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Pet, error)
}

type viewCounter interface {
	Increase(ctx context.Context, viewer string, objectType enums.ViewObjectType, objectID uuid.UUID) (bool, error)
}
