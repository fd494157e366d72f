package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"swagly-backend/internal/common/logger"
	"swagly-backend/internal/features/backup/models"
)

// Runner is the part of *Accountant the scheduler drives.
type Runner interface {
	RunCycle(ctx context.Context) models.Result
	InFlight() bool
	Watermark(ctx context.Context) (models.Watermark, error)
}

// Scheduler triggers a backup cycle immediately on Start and then on every
// interval. Cycles never overlap: a tick that finds one in flight is skipped.
type Scheduler struct {
	runner            Runner
	interval          time.Duration
	publicURLTemplate string

	mu     sync.Mutex
	cancel context.CancelFunc
	// Every loop not yet known to have exited; a restarted scheduler can
	// still have an old loop finishing its cycle.
	loops []chan struct{}
	last  *models.Result
	log   zerolog.Logger
}

func NewScheduler(runner Runner, interval time.Duration, publicURLTemplate string) *Scheduler {
	return &Scheduler{
		runner:            runner,
		interval:          interval,
		publicURLTemplate: publicURLTemplate,
		log:               logger.Component("backup-scheduler"),
	}
}

// Start is idempotent; it reports whether this call started the loop.
func (s *Scheduler) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.log.Debug().Msg("Backup scheduler already running")
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.loops = append(pruneExited(s.loops), done)

	go s.loop(ctx, done)

	s.log.Info().Dur("interval", s.interval).Msg("Backup scheduler started")
	return true
}

// Stop cancels future ticks. A cycle already running finishes normally.
func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return false
	}
	s.cancel()
	s.cancel = nil
	s.log.Info().Msg("Backup scheduler stopped")
	return true
}

// Shutdown stops the scheduler and waits for every loop it started,
// including any cycle still running, or for ctx.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.Stop()

	s.mu.Lock()
	loops := append([]chan struct{}(nil), s.loops...)
	s.mu.Unlock()

	for _, done := range loops {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func pruneExited(loops []chan struct{}) []chan struct{} {
	live := loops[:0]
	for _, done := range loops {
		select {
		case <-done:
		default:
			live = append(live, done)
		}
	}
	return live
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// LastResult is the outcome of the most recent scheduled tick, nil before
// the first one.
func (s *Scheduler) LastResult() *models.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	res := *s.last
	return &res
}

func (s *Scheduler) Status(ctx context.Context) (models.Status, error) {
	wm, err := s.runner.Watermark(ctx)
	if err != nil {
		return models.Status{}, err
	}
	return models.Status{
		IsRunning:           s.IsRunning(),
		LastResult:          s.LastResult(),
		LastBackupTimestamp: wm.LastBackupAt,
		LastBackupCid:       wm.LastBackupLocator,
		BackupCount:         wm.BackupCount,
		PublicURL:           s.publicURL(wm.LastBackupLocator),
	}, nil
}

func (s *Scheduler) publicURL(locator string) string {
	if locator == "" {
		return ""
	}
	if s.publicURLTemplate != "" && strings.Contains(s.publicURLTemplate, "%s") {
		return fmt.Sprintf(s.publicURLTemplate, locator)
	}
	if strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://") {
		return locator
	}
	return ""
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	s.tick()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	res := s.runTick()

	s.mu.Lock()
	s.last = &res
	s.mu.Unlock()
}

func (s *Scheduler) runTick() models.Result {
	if s.runner.InFlight() {
		s.log.Warn().Msg("Backup cycle still in flight, skipping tick")
		return models.Result{Success: true, Skipped: true}
	}

	res := s.runner.RunCycle(context.Background())
	if !res.Success {
		s.log.Error().Str("error", res.Error).Msg("Scheduled backup cycle failed")
		return res
	}
	s.log.Info().
		Int("scans", res.ScansCount).
		Int("activities", res.ActivitiesCount).
		Str("locator", res.Locator).
		Msg("Scheduled backup cycle finished")
	return res
}
