package repository

import (
	"context"

	"swagly-backend/internal/features/analytics/models"
)

// ScanIndex reads scan events joined with their user, activity and event.
type ScanIndex interface {
	ScanEvents(ctx context.Context, q models.ScanQuery) ([]models.ScanEvent, error)
}
