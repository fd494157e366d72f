package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	apperrors "swagly-backend/internal/common/errors"
	"swagly-backend/internal/common/logger"
	"swagly-backend/internal/features/backup/models"
	"swagly-backend/internal/features/backup/repository"
	"swagly-backend/internal/platform/blob"
)

var ErrArtifactTooLarge = errors.New("backup artifact exceeds size limit")

const cycleKey = "backup-cycle"

// Accountant exports records created since the last committed watermark.
// The watermark only moves after the artifact upload succeeded, so export is
// at-least-once.
type Accountant struct {
	records    repository.RecordSource
	watermarks repository.WatermarkStore
	store      blob.Store
	maxBytes   int
	now        func() time.Time

	group    singleflight.Group
	inFlight atomic.Bool
	log      zerolog.Logger
}

func NewAccountant(records repository.RecordSource, watermarks repository.WatermarkStore, store blob.Store, maxBytes int) *Accountant {
	return &Accountant{
		records:    records,
		watermarks: watermarks,
		store:      store,
		maxBytes:   maxBytes,
		now:        time.Now,
		log:        logger.Component("backup-accountant"),
	}
}

// RunCycle runs one backup cycle. Concurrent callers share the result of the
// cycle already in flight. The cycle is not cancelled with ctx, so an
// abandoned caller cannot leave an upload without its watermark commit.
func (a *Accountant) RunCycle(ctx context.Context) models.Result {
	v, _, _ := a.group.Do(cycleKey, func() (interface{}, error) {
		a.inFlight.Store(true)
		defer a.inFlight.Store(false)
		return a.runCycle(context.WithoutCancel(ctx)), nil
	})
	return v.(models.Result)
}

// InFlight reports whether a cycle is currently running.
func (a *Accountant) InFlight() bool {
	return a.inFlight.Load()
}

func (a *Accountant) Watermark(ctx context.Context) (models.Watermark, error) {
	return a.watermarks.Load(ctx)
}

func (a *Accountant) runCycle(ctx context.Context) models.Result {
	start := a.now().UTC()

	wm, err := a.watermarks.Load(ctx)
	if err != nil {
		return a.fail("loading watermark", err)
	}

	a.log.Info().
		Interface("since", wm.LastBackupAt).
		Int64("backup_count", wm.BackupCount).
		Msg("Starting backup cycle")

	scans, err := a.records.ScansSince(ctx, wm.LastBackupAt)
	if err != nil {
		return a.fail("reading scans", err)
	}
	activities, err := a.records.CompletedActivitiesSince(ctx, wm.LastBackupAt)
	if err != nil {
		return a.fail("reading completed activities", err)
	}

	if len(scans) == 0 && len(activities) == 0 {
		a.log.Info().Msg("No new data to back up")
		return models.Result{Success: true}
	}

	artifact := models.NewArtifact(start, wm.LastBackupAt, scans, activities)
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return a.fail("serializing", err)
	}
	if a.maxBytes > 0 && len(data) > a.maxBytes {
		return a.fail("serializing", fmt.Errorf("%w: %d > %d bytes", ErrArtifactTooLarge, len(data), a.maxBytes))
	}

	key := fmt.Sprintf("backups/swagly-backup-%d.json", start.UnixMilli())
	locator, err := a.store.Upload(ctx, key, data)
	if err != nil {
		return a.fail("uploading", err)
	}

	next := models.Watermark{
		LastBackupAt:      &start,
		LastBackupLocator: locator,
		BackupCount:       wm.BackupCount + 1,
	}
	if err := a.watermarks.Save(ctx, next); err != nil {
		return a.fail("committing watermark", err)
	}

	a.log.Info().
		Str("locator", locator).
		Int("scans", len(scans)).
		Int("activities", len(activities)).
		Int("bytes", len(data)).
		Msg("Backup cycle completed")

	return models.Result{
		Success:         true,
		Locator:         locator,
		ScansCount:      len(scans),
		ActivitiesCount: len(activities),
	}
}

func (a *Accountant) fail(stage string, err error) models.Result {
	appErr := apperrors.NewBackupCycleError(stage, err)
	a.log.Error().Err(err).Str("stage", stage).Msg("Backup cycle failed")
	return models.Result{Success: false, Error: appErr.Error()}
}
