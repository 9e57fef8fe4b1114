package pets

import (
	"context"
	"strings"

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

// NewRepository builds a pets repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the pet and its inline address, if any.
func (r *repository) Create(ctx context.Context, pet *models.Pet) error {
	return r.db.WithContext(ctx).Create(pet).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Pet, error) {
	var pet models.Pet
	err := r.db.WithContext(ctx).
		Preload("Address").
		Where("id = ?", id).
		First(&pet).Error
	if err != nil {
		return nil, err
	}
	return &pet, nil
}

// FindByIDForUpdate locks the pet row until the surrounding transaction ends.
func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Pet, error) {
	var pet models.Pet
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&pet).Error
	if err != nil {
		return nil, err
	}
	return &pet, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PetStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Pet{}).
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

func (r *repository) SetCoverKey(ctx context.Context, id uuid.UUID, key string) error {
	return r.db.WithContext(ctx).
		Model(&models.Pet{}).
		Where("id = ?", id).
		Update("cover_key", key).Error
}

type listQuery struct {
	statuses []enums.PetStatus
	species  string
	breed    string
	search   string
	ownerID  *uuid.UUID
	limit    int
	cursor   *pagination.Cursor
}

// List returns pets newest first using cursor pagination.
func (r *repository) List(ctx context.Context, q listQuery) ([]models.Pet, error) {
	query := r.db.WithContext(ctx).Model(&models.Pet{}).Preload("Address")

	if len(q.statuses) > 0 {
		query = query.Where("status IN ?", q.statuses)
	}
	if q.ownerID != nil {
		query = query.Where("created_by = ?", *q.ownerID)
	}
	if q.species != "" {
		query = query.Where("LOWER(species) LIKE ?", containsPattern(q.species))
	}
	if q.breed != "" {
		query = query.Where("LOWER(breed) LIKE ?", containsPattern(q.breed))
	}
	if q.search != "" {
		pattern := containsPattern(q.search)
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(species) LIKE ? OR LOWER(breed) LIKE ? OR LOWER(description) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}

	var rows []models.Pet
	err := query.Scopes(pagination.Newest(q.cursor, q.limit)).Find(&rows).Error
	return rows, err
}

func containsPattern(value string) string {
	return "%" + strings.ToLower(strings.TrimSpace(value)) + "%"
}
