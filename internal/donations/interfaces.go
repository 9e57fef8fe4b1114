package donations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pawhaven-backend/pkg/db/models"
	"github.com/angelmondragon/pawhaven-backend/pkg/outbox"
)

// Repository defines persistence operations for donations and their photos.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, donation *models.Donation) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Donation, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Donation, error)
	FirstPhoto(ctx context.Context, donationID uuid.UUID) (*models.DonationPhoto, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	FindOpenForUpdate(ctx context.Context, ids []uuid.UUID) ([]models.Donation, error)
	List(ctx context.Context, query listQuery) ([]models.Donation, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ObjectStore copies uploaded photos inside the bucket.
type ObjectStore interface {
	CopyObject(ctx context.Context, srcKey, dstKey string) error
	DeleteObject(ctx context.Context, key string) error
}

type lifecycleMetrics interface {
	Transition(entity, from, to string)
	DonationApproved()
	PhotoCopy(ok bool)
}
