package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"swagly-backend/internal/common/cache"
	apperrors "swagly-backend/internal/common/errors"
	"swagly-backend/internal/common/logger"
	"swagly-backend/internal/features/analytics/models"
	"swagly-backend/internal/features/analytics/repository"
)

const (
	DefaultPageSize  = 100
	MaxPageSize      = 1000
	DefaultUserLimit = 100

	dashboardCacheKey = "analytics:dashboard"
)

// AnalyticsService answers scan queries and aggregate statistics from the
// operational scan records.
type AnalyticsService struct {
	index    repository.ScanIndex
	cache    *cache.CacheService
	cacheTTL time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

func NewAnalyticsService(index repository.ScanIndex, c *cache.CacheService, cacheTTL time.Duration) *AnalyticsService {
	return &AnalyticsService{
		index:    index,
		cache:    c,
		cacheTTL: cacheTTL,
		now:      time.Now,
		log:      logger.Component("analytics-service"),
	}
}

// Scans returns one page of scan events. Paging defaults to the newest 100.
func (s *AnalyticsService) Scans(ctx context.Context, q models.ScanQuery) ([]models.ScanEvent, error) {
	if q.First == 0 {
		q.First = DefaultPageSize
	}
	if q.First < 0 || q.First > MaxPageSize {
		return nil, apperrors.NewValidationError("first", "must be between 1 and 1000")
	}
	if q.Skip < 0 {
		return nil, apperrors.NewValidationError("skip", "cannot be negative")
	}

	switch q.OrderBy {
	case "":
		q.OrderBy = models.OrderByTimestamp
	case models.OrderByTimestamp, models.OrderByTokensAwarded:
	default:
		return nil, apperrors.NewValidationError("orderBy", "must be timestamp or tokensAwarded")
	}

	switch strings.ToLower(q.OrderDirection) {
	case "":
		q.OrderDirection = models.OrderDesc
	case models.OrderAsc, models.OrderDesc:
		q.OrderDirection = strings.ToLower(q.OrderDirection)
	default:
		return nil, apperrors.NewValidationError("orderDirection", "must be asc or desc")
	}

	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return nil, apperrors.NewValidationError("from", "must not be after to")
	}

	return s.events(ctx, q)
}

// ActivityStats covers every activity, or only activityID when set.
func (s *AnalyticsService) ActivityStats(ctx context.Context, activityID string) ([]models.ActivityStats, error) {
	events, err := s.events(ctx, models.ScanQuery{ActivityID: activityID})
	if err != nil {
		return nil, err
	}
	return activityStats(events), nil
}

// UserStats is the leaderboard by tokens earned.
func (s *AnalyticsService) UserStats(ctx context.Context, limit int) ([]models.UserStats, error) {
	if limit == 0 {
		limit = DefaultUserLimit
	}
	if limit < 0 || limit > MaxPageSize {
		return nil, apperrors.NewValidationError("limit", "must be between 1 and 1000")
	}
	events, err := s.events(ctx, models.ScanQuery{})
	if err != nil {
		return nil, err
	}
	return userStats(events, limit), nil
}

// EventStats covers every event, or only eventID when set.
func (s *AnalyticsService) EventStats(ctx context.Context, eventID string) ([]models.EventStats, error) {
	events, err := s.events(ctx, models.ScanQuery{EventID: eventID})
	if err != nil {
		return nil, err
	}
	return eventStats(events), nil
}

// Dashboard is cached for cacheTTL since every call reads all scans.
func (s *AnalyticsService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	var out models.Dashboard
	err := s.cache.GetOrSet(ctx, dashboardCacheKey, &out, s.cacheTTL, func() (interface{}, error) {
		events, err := s.events(ctx, models.ScanQuery{
			OrderBy:        models.OrderByTimestamp,
			OrderDirection: models.OrderDesc,
		})
		if err != nil {
			return nil, err
		}
		d := dashboard(events, s.now())
		s.log.Debug().Int("scans", d.TotalScans).Int("users", d.TotalUsers).Msg("Dashboard rebuilt")
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AnalyticsService) events(ctx context.Context, q models.ScanQuery) ([]models.ScanEvent, error) {
	events, err := s.index.ScanEvents(ctx, q)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to read scan events")
		return nil, apperrors.NewDatabaseError("list scan events", err)
	}
	return events, nil
}
