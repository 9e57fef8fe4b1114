package outbox

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/pawhaven-backend/pkg/db/models"
	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
)

// maxErrorLen bounds last_error and the dead-letter error_message columns.
const maxErrorLen = 1024

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(tx *gorm.DB, event models.OutboxEvent) error {
	if tx == nil {
		return errNoTx
	}
	return tx.Create(&event).Error
}

func (r *Repository) ExistsTx(tx *gorm.DB, eventType enums.OutboxEventType, aggregateType enums.OutboxAggregateType, aggregateID uuid.UUID) (bool, error) {
	if tx == nil {
		return false, errNoTx
	}
	var n int64
	err := tx.Model(&models.OutboxEvent{}).
		Where("event_type = ?", eventType).
		Where("aggregate_type = ?", aggregateType).
		Where("aggregate_id = ?", aggregateID).
		Count(&n).Error
	return n > 0, err
}

// ClaimPending row-locks the oldest unpublished events below maxAttempts
// whose retry time has come by now. SKIP LOCKED lets several publishers drain
// the table side by side.
func (r *Repository) ClaimPending(tx *gorm.DB, limit, maxAttempts int, now time.Time) ([]models.OutboxEvent, error) {
	if tx == nil {
		return nil, errNoTx
	}
	q := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("published_at IS NULL").
		Where("next_attempt_at IS NULL OR next_attempt_at <= ?", now.UTC())
	if maxAttempts > 0 {
		q = q.Where("attempt_count < ?", maxAttempts)
	}
	var events []models.OutboxEvent
	err := q.Order("created_at, id").Limit(limit).Find(&events).Error
	return events, err
}

func (r *Repository) MarkPublished(tx *gorm.DB, id uuid.UUID) error {
	return updateEvent(tx, id, map[string]any{
		"published_at": time.Now().UTC(),
		"last_error":   nil,
	})
}

// RecordFailure bumps the attempt counter and hides the row from
// ClaimPending until retryAt.
func (r *Repository) RecordFailure(tx *gorm.DB, id uuid.UUID, cause error, retryAt time.Time) error {
	return updateEvent(tx, id, map[string]any{
		"attempt_count":   gorm.Expr("attempt_count + 1"),
		"last_error":      clipError(cause),
		"next_attempt_at": retryAt.UTC(),
	})
}

// Park sets attempt_count to the ceiling so ClaimPending never returns the
// row again.
func (r *Repository) Park(tx *gorm.DB, id uuid.UUID, cause error, ceiling int) error {
	return updateEvent(tx, id, map[string]any{
		"attempt_count": ceiling,
		"last_error":    clipError(cause),
	})
}

// DeletePublishedBefore removes published rows older than cutoff.
func (r *Repository) DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("published_at IS NOT NULL").
		Where("published_at < ?", cutoff.UTC()).
		Delete(&models.OutboxEvent{})
	return res.RowsAffected, res.Error
}

func updateEvent(tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	if tx == nil {
		return errNoTx
	}
	return tx.Model(&models.OutboxEvent{}).Where("id = ?", id).Updates(fields).Error
}

func clipError(err error) *string {
	if err == nil {
		return nil
	}
	msg := clip(err.Error())
	return &msg
}

func clip(msg string) string {
	if len(msg) <= maxErrorLen {
		return msg
	}
	return strings.ToValidUTF8(msg[:maxErrorLen], "")
}
