// Package views counts unique daily views of pets and lost reports.
package views

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/pawhaven-backend/pkg/db/models"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/pawhaven-backend/pkg/errors"
)

const (
	dayLayout  = "2006-01-02"
	defaultTTL = 24 * time.Hour
	// MaxDailyRange bounds Daily lookups.
	MaxDailyRange = 90
)

type dedupeStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	ViewKey(viewer, day, objectID string) string
}

type viewMetrics interface {
	UniqueView(objectType string)
}

// DailyCount is one row of the per-day statistics.
type DailyCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// Recorder deduplicates views per viewer and day in the cache and keeps the
// per-day totals in view_statistics.
type Recorder struct {
	db      *gorm.DB
	cache   dedupeStore
	metrics viewMetrics
	ttl     time.Duration
	now     func() time.Time
}

// NewRecorder builds a view recorder. metrics may be nil.
func NewRecorder(db *gorm.DB, cache dedupeStore, metrics viewMetrics, ttl time.Duration) (*Recorder, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	if cache == nil {
		return nil, fmt.Errorf("dedupe store required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Recorder{db: db, cache: cache, metrics: metrics, ttl: ttl, now: time.Now}, nil
}

// Increase records a view and reports whether it was the viewer's first of the day.
func (r *Recorder) Increase(ctx context.Context, viewer string, objectType enums.ViewObjectType, objectID uuid.UUID) (bool, error) {
	if viewer == "" {
		return false, pkgerrors.InvalidField("viewer", "required")
	}
	if !objectType.IsValid() {
		return false, pkgerrors.InvalidField("object_type", "invalid")
	}

	day := startOfDay(r.now())
	fresh, err := r.cache.SetNX(ctx, r.cache.ViewKey(viewer, day.Format(dayLayout), objectID.String()), 1, r.ttl)
	if err != nil {
		return false, pkgerrors.Dependency(err, "dedupe view")
	}
	if !fresh {
		return false, nil
	}

	row := models.ViewStatistic{ObjectType: objectType, ObjectID: objectID, Day: day, Count: 1}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "object_type"}, {Name: "object_id"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]any{
			"count": gorm.Expr("view_statistics.count + 1"),
		}),
	}).Create(&row).Error
	if err != nil {
		return false, pkgerrors.Dependency(err, "store view count")
	}

	if r.metrics != nil {
		r.metrics.UniqueView(string(objectType))
	}
	return true, nil
}

// Total sums every recorded day.
func (r *Recorder) Total(ctx context.Context, objectType enums.ViewObjectType, objectID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.ViewStatistic{}).
		Where("object_type = ? AND object_id = ?", objectType, objectID).
		Select("COALESCE(SUM(count), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, pkgerrors.Dependency(err, "sum views")
	}
	return total, nil
}

// Daily returns the counts of the last days days, oldest first. Days without
// views are omitted.
func (r *Recorder) Daily(ctx context.Context, objectType enums.ViewObjectType, objectID uuid.UUID, days int) ([]DailyCount, error) {
	if !objectType.IsValid() {
		return nil, pkgerrors.InvalidField("object_type", "invalid")
	}
	if days <= 0 || days > MaxDailyRange {
		return nil, pkgerrors.InvalidField("days", fmt.Sprintf("must be between 1 and %d", MaxDailyRange))
	}

	since := startOfDay(r.now()).AddDate(0, 0, -(days - 1))
	var rows []models.ViewStatistic
	err := r.db.WithContext(ctx).
		Where("object_type = ? AND object_id = ? AND day >= ?", objectType, objectID, since).
		Order("day ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Dependency(err, "load daily views")
	}

	out := make([]DailyCount, len(rows))
	for i, row := range rows {
		out[i] = DailyCount{Day: row.Day.UTC().Format(dayLayout), Count: row.Count}
	}
	return out, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
