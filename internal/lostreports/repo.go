package lostreports

import (
	"context"
	"strings"
	"time"

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

// NewRepository builds a lost report repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, report *models.LostReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.LostReport, error) {
	var report models.LostReport
	if err := r.db.WithContext(ctx).Preload("Address").Where("id = ?", id).First(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.LostReport, error) {
	var report models.LostReport
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&report).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.LostReportStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.LostReport{}).
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

type listQuery struct {
	search     string
	species    string
	breed      string
	color      string
	sex        *enums.PetSex
	size       *enums.PetSize
	status     *enums.LostReportStatus
	reporterID *uuid.UUID
	lostFrom   *time.Time
	lostTo     *time.Time
	limit      int
	cursor     *pagination.Cursor
}

// List returns reports newest first using cursor pagination.
func (r *repository) List(ctx context.Context, q listQuery) ([]models.LostReport, error) {
	query := r.db.WithContext(ctx).Model(&models.LostReport{}).Preload("Address")

	if q.status != nil {
		query = query.Where("status = ?", *q.status)
	}
	if q.reporterID != nil {
		query = query.Where("reporter_id = ?", *q.reporterID)
	}
	if q.species != "" {
		query = query.Where("LOWER(species) LIKE ?", containsPattern(q.species))
	}
	if q.breed != "" {
		query = query.Where("LOWER(breed) LIKE ?", containsPattern(q.breed))
	}
	if q.color != "" {
		query = query.Where("LOWER(color) LIKE ?", containsPattern(q.color))
	}
	if q.sex != nil {
		query = query.Where("sex = ?", *q.sex)
	}
	if q.size != nil {
		query = query.Where("size = ?", *q.size)
	}
	if q.lostFrom != nil {
		query = query.Where("lost_at >= ?", *q.lostFrom)
	}
	if q.lostTo != nil {
		query = query.Where("lost_at <= ?", *q.lostTo)
	}
	if q.search != "" {
		pattern := containsPattern(q.search)
		query = query.Where(
			"LOWER(pet_name) LIKE ? OR LOWER(species) LIKE ? OR LOWER(breed) LIKE ? OR LOWER(color) LIKE ? OR LOWER(description) LIKE ?",
			pattern, pattern, pattern, pattern, pattern,
		)
	}

	var rows []models.LostReport
	err := query.Scopes(pagination.Newest(q.cursor, q.limit)).Find(&rows).Error
	return rows, err
}

func containsPattern(value string) string {
	return "%" + strings.ToLower(strings.TrimSpace(value)) + "%"
}
