package adoptions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pawhaven-backend/pkg/db/models"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	"github.com/angelmondragon/pawhaven-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an adoptions repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, adoption *models.Adoption) error {
	return r.db.WithContext(ctx).Create(adoption).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Adoption, error) {
	var adoption models.Adoption
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&adoption).Error; err != nil {
		return nil, err
	}
	return &adoption, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.AdoptionStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Adoption{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CloseOpenSiblings closes every open application of the pet except keepID
// and returns the rows as they were before the update.
func (r *repository) CloseOpenSiblings(ctx context.Context, petID, keepID uuid.UUID) ([]models.Adoption, error) {
	var siblings []models.Adoption
	err := r.db.WithContext(ctx).
		Where("pet_id = ? AND id <> ? AND status IN ?", petID, keepID, enums.OpenAdoptionStatuses).
		Order("created_at ASC").
		Find(&siblings).Error
	if err != nil || len(siblings) == 0 {
		return nil, err
	}

	ids := make([]uuid.UUID, len(siblings))
	for i, sibling := range siblings {
		ids[i] = sibling.ID
	}
	err = r.db.WithContext(ctx).
		Model(&models.Adoption{}).
		Where("id IN ?", ids).
		Update("status", enums.AdoptionStatusClosed).Error
	if err != nil {
		return nil, err
	}
	return siblings, nil
}

func (r *repository) CountOpen(ctx context.Context, petID uuid.UUID, excludeID *uuid.UUID) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Adoption{}).
		Where("pet_id = ? AND status IN ?", petID, enums.OpenAdoptionStatuses)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

type listQuery struct {
	applicantID *uuid.UUID
	petID       *uuid.UUID
	status      *enums.AdoptionStatus
	limit       int
	cursor      *pagination.Cursor
}

func (r *repository) List(ctx context.Context, q listQuery) ([]models.Adoption, error) {
	query := r.db.WithContext(ctx).Model(&models.Adoption{})
	if q.applicantID != nil {
		query = query.Where("applicant_id = ?", *q.applicantID)
	}
	if q.petID != nil {
		query = query.Where("pet_id = ?", *q.petID)
	}
	if q.status != nil {
		query = query.Where("status = ?", *q.status)
	}

	var rows []models.Adoption
	err := query.Scopes(pagination.Newest(q.cursor, q.limit)).Find(&rows).Error
	return rows, err
}

// FindMismatchedPets returns pets whose status disagrees with their open
// applications: pending without any, or available with some.
func (r *repository) FindMismatchedPets(ctx context.Context, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 100
	}
	const openExists = "EXISTS (SELECT 1 FROM adoptions a WHERE a.pet_id = pets.id AND a.status IN ?)"

	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Pet{}).
		Where("(status = ? AND NOT "+openExists+") OR (status = ? AND "+openExists+")",
			enums.PetStatusPending, enums.OpenAdoptionStatuses,
			enums.PetStatusAvailable, enums.OpenAdoptionStatuses,
		).
		Order("updated_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}
