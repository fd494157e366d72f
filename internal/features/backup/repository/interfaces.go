package repository

import (
	"context"
	"time"

	"swagly-backend/internal/features/backup/models"
)

// RecordSource reads the operational records newer than since (strictly),
// ordered by timestamp ascending. A nil since means all records.
type RecordSource interface {
	ScansSince(ctx context.Context, since *time.Time) ([]models.ScanRecord, error)
	CompletedActivitiesSince(ctx context.Context, since *time.Time) ([]models.ActivityRecord, error)
}

type WatermarkStore interface {
	Load(ctx context.Context) (models.Watermark, error)
	Save(ctx context.Context, w models.Watermark) error
}
