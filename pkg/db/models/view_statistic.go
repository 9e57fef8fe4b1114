package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/pawhaven-backend/pkg/enums"
)

// ViewStatistic counts unique daily views of a record.
type ViewStatistic struct {
	ID         int64                `gorm:"column:id;primaryKey;autoIncrement"`
	ObjectType enums.ViewObjectType `gorm:"column:object_type;not null;uniqueIndex:ux_view_statistics_object_day"`
	ObjectID   uuid.UUID            `gorm:"column:object_id;type:uuid;not null;uniqueIndex:ux_view_statistics_object_day"`
	Day        time.Time            `gorm:"column:day;type:date;not null;uniqueIndex:ux_view_statistics_object_day"`
	Count      int64                `gorm:"column:count;not null;default:0"`
}
