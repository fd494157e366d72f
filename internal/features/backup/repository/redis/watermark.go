package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"swagly-backend/internal/features/backup/models"
	"swagly-backend/internal/features/backup/repository"
)

const (
	fieldLastBackupAt = "last_backup_at"
	fieldLocator      = "locator"
	fieldCount        = "count"
)

type watermarkStore struct {
	client *redis.Client
	key    string
}

// NewWatermarkStore keeps the watermark in a single hash so restarts resume
// from the last committed cycle.
func NewWatermarkStore(client *redis.Client, key string) repository.WatermarkStore {
	return &watermarkStore{client: client, key: key}
}

func (s *watermarkStore) Load(ctx context.Context) (models.Watermark, error) {
	var w models.Watermark

	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return w, fmt.Errorf("failed to load watermark: %w", err)
	}
	if len(fields) == 0 {
		return w, nil
	}

	if raw := fields[fieldLastBackupAt]; raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return w, fmt.Errorf("corrupt watermark timestamp %q: %w", raw, err)
		}
		t = t.UTC()
		w.LastBackupAt = &t
	}
	w.LastBackupLocator = fields[fieldLocator]
	if raw := fields[fieldCount]; raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return w, fmt.Errorf("corrupt watermark count %q: %w", raw, err)
		}
		w.BackupCount = n
	}
	return w, nil
}

func (s *watermarkStore) Save(ctx context.Context, w models.Watermark) error {
	lastBackupAt := ""
	if w.LastBackupAt != nil {
		lastBackupAt = w.LastBackupAt.UTC().Format(time.RFC3339Nano)
	}

	err := s.client.HSet(ctx, s.key,
		fieldLastBackupAt, lastBackupAt,
		fieldLocator, w.LastBackupLocator,
		fieldCount, strconv.FormatInt(w.BackupCount, 10),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to save watermark: %w", err)
	}
	return nil
}
