package memory

import (
	"context"
	"sync"

	"swagly-backend/internal/features/backup/models"
	"swagly-backend/internal/features/backup/repository"
)

type watermarkStore struct {
	mu sync.RWMutex
	w  models.Watermark
}

// NewWatermarkStore keeps the watermark in process memory; it restarts from
// zero, so the first cycle after a restart exports everything.
func NewWatermarkStore() repository.WatermarkStore {
	return &watermarkStore{}
}

func (s *watermarkStore) Load(_ context.Context) (models.Watermark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w := s.w
	if w.LastBackupAt != nil {
		t := *w.LastBackupAt
		w.LastBackupAt = &t
	}
	return w, nil
}

func (s *watermarkStore) Save(_ context.Context, w models.Watermark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.LastBackupAt != nil {
		t := *w.LastBackupAt
		w.LastBackupAt = &t
	}
	s.w = w
	return nil
}
