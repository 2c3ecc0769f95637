package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/matchsight/matchsight/internal/domain/automation"
	"github.com/matchsight/matchsight/internal/platform/cache"
)

const automationConfigCacheKey = "automation:config"

// ConfigService resolves and updates the singleton automation config. Reads
// go through a short-TTL cache so every cron tick does not cost a database
// round trip; writes invalidate the cached value immediately.
type ConfigService struct {
	repo  automation.ConfigRepository
	cache *cache.Store
	// pollInterval is the external invoker cadence. Window widths narrower
	// than this would let fixtures slip between two runs, so updates are
	// rejected rather than accepted as a tuning choice. The retry buffer
	// must exceed it for the same reason: a buffer shorter than one tick
	// would re-fire a dispatch that is still in flight.
	pollInterval time.Duration
	// retryBuffer is the operator-provided default applied until the first
	// config row is saved.
	retryBuffer time.Duration
	now         func() time.Time
}

func NewConfigService(repo automation.ConfigRepository, store *cache.Store, pollInterval, retryBuffer time.Duration) *ConfigService {
	return &ConfigService{
		repo:         repo,
		cache:        store,
		pollInterval: pollInterval,
		retryBuffer:  retryBuffer,
		now:          time.Now,
	}
}

// Resolve returns the stored config, or defaults when none was ever saved.
func (s *ConfigService) Resolve(ctx context.Context) (automation.Config, error) {
	if s.cache == nil {
		return s.load(ctx)
	}

	value, err := s.cache.GetOrLoad(ctx, automationConfigCacheKey, func(ctx context.Context) (any, error) {
		return s.load(ctx)
	})
	if err != nil {
		return automation.Config{}, err
	}

	cfg, ok := value.(automation.Config)
	if !ok {
		return automation.Config{}, fmt.Errorf("unexpected cached config type %T", value)
	}

	return cfg, nil
}

func (s *ConfigService) load(ctx context.Context) (automation.Config, error) {
	cfg, exists, err := s.repo.Get(ctx)
	if err != nil {
		return automation.Config{}, fmt.Errorf("get automation config: %w", err)
	}
	if !exists {
		cfg := automation.DefaultConfig()
		if s.retryBuffer >= time.Minute {
			cfg.RetryBufferMinutes = int(s.retryBuffer / time.Minute)
		}
		return cfg, nil
	}

	return cfg, nil
}

// Update validates and persists a new config, then drops the cached copy so
// the next run sees the new values without waiting out the TTL.
func (s *ConfigService) Update(ctx context.Context, cfg automation.Config) (automation.Config, error) {
	if err := s.validate(cfg); err != nil {
		return automation.Config{}, err
	}

	cfg.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, cfg); err != nil {
		return automation.Config{}, fmt.Errorf("save automation config: %w", err)
	}

	if s.cache != nil {
		s.cache.Delete(ctx, automationConfigCacheKey)
	}

	return cfg, nil
}

// RecordLastRun stamps the bookkeeping columns after a run. The cached
// copy is dropped so config reads reflect the latest run immediately.
func (s *ConfigService) RecordLastRun(ctx context.Context, at time.Time, status string) error {
	if err := s.repo.UpdateLastRun(ctx, at, status); err != nil {
		return fmt.Errorf("update last run: %w", err)
	}

	if s.cache != nil {
		s.cache.Delete(ctx, automationConfigCacheKey)
	}

	return nil
}

func (s *ConfigService) validate(cfg automation.Config) error {
	type offsetRange struct {
		name string
		min  int
		max  int
	}
	ranges := []offsetRange{
		{name: "pre-match lead", min: cfg.PreMatchLeadMinMinutes, max: cfg.PreMatchLeadMaxMinutes},
		{name: "prediction lead", min: cfg.PredictionLeadMinMinutes, max: cfg.PredictionLeadMaxMinutes},
		{name: "post-match delay", min: cfg.PostMatchDelayMinMinutes, max: cfg.PostMatchDelayMaxMinutes},
		{name: "analysis delay", min: cfg.AnalysisDelayMinMinutes, max: cfg.AnalysisDelayMaxMinutes},
	}

	for _, r := range ranges {
		if r.min < 0 {
			return fmt.Errorf("%w: %s min must be >= 0", ErrInvalidInput, r.name)
		}
		if r.max <= r.min {
			return fmt.Errorf("%w: %s max must exceed min", ErrInvalidInput, r.name)
		}
		width := time.Duration(r.max-r.min) * time.Minute
		if width <= s.pollInterval {
			return fmt.Errorf("%w: %s window width %s must exceed the polling interval %s", ErrInvalidInput, r.name, width, s.pollInterval)
		}
	}

	if cfg.RetryBufferMinutes < 1 {
		return fmt.Errorf("%w: retry buffer must be >= 1 minute", ErrInvalidInput)
	}
	if buffer := time.Duration(cfg.RetryBufferMinutes) * time.Minute; buffer <= s.pollInterval {
		return fmt.Errorf("%w: retry buffer %s must exceed the polling interval %s", ErrInvalidInput, buffer, s.pollInterval)
	}
	if cfg.MaxFixturesPerRun < 1 {
		return fmt.Errorf("%w: max fixtures per run must be >= 1", ErrInvalidInput)
	}

	return nil
}
