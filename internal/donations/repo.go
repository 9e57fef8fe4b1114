package donations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/pawhaven-backend/pkg/db/models"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	"github.com/angelmondragon/pawhaven-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a donations repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the donation together with its address and photos.
func (r *repository) Create(ctx context.Context, donation *models.Donation) error {
	return r.db.WithContext(ctx).Create(donation).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Donation, error) {
	var donation models.Donation
	err := r.db.WithContext(ctx).
		Preload("Address").
		Preload("Photos", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ?", id).
		First(&donation).Error
	if err != nil {
		return nil, err
	}
	return &donation, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Donation, error) {
	var donation models.Donation
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&donation).Error
	if err != nil {
		return nil, err
	}
	return &donation, nil
}

// FirstPhoto returns the earliest uploaded photo, or nil when there is none.
func (r *repository) FirstPhoto(ctx context.Context, donationID uuid.UUID) (*models.DonationPhoto, error) {
	var photo models.DonationPhoto
	err := r.db.WithContext(ctx).
		Where("donation_id = ?", donationID).
		Order("id ASC").
		First(&photo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.Donation{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindOpenForUpdate locks the listed donations that are not closed yet.
func (r *repository) FindOpenForUpdate(ctx context.Context, ids []uuid.UUID) ([]models.Donation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Donation
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ? AND status <> ?", ids, enums.DonationStatusClosed).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

type listQuery struct {
	donorID *uuid.UUID
	status  *enums.DonationStatus
	limit   int
	cursor  *pagination.Cursor
}

func (r *repository) List(ctx context.Context, q listQuery) ([]models.Donation, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Donation{}).
		Preload("Photos", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
	if q.donorID != nil {
		query = query.Where("donor_id = ?", *q.donorID)
	}
	if q.status != nil {
		query = query.Where("status = ?", *q.status)
	}

	var rows []models.Donation
	err := query.Scopes(pagination.Newest(q.cursor, q.limit)).Find(&rows).Error
	return rows, err
}
