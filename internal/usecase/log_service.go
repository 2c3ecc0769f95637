package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/matchsight/matchsight/internal/domain/automation"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 500
)

// LogService serves the append-only automation history for diagnosis.
type LogService struct {
	repo automation.LogRepository
}

func NewLogService(repo automation.LogRepository) *LogService {
	return &LogService{repo: repo}
}

type LogQuery struct {
	Limit   int
	Phase   string
	Outcome string
	// Date is a UTC calendar day in 2006-01-02 form.
	Date string
}

func (s *LogService) List(ctx context.Context, query LogQuery) ([]automation.LogEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LogService.List")
	defer span.End()

	filter := automation.LogFilter{Limit: query.Limit}
	if filter.Limit <= 0 {
		filter.Limit = defaultLogLimit
	}
	if filter.Limit > maxLogLimit {
		filter.Limit = maxLogLimit
	}

	if raw := strings.TrimSpace(query.Phase); raw != "" {
		phase, ok := automation.ParsePhase(raw)
		if !ok {
			return nil, fmt.Errorf("%w: unknown phase %q", ErrInvalidInput, raw)
		}
		filter.Phase = phase
	}

	if raw := strings.TrimSpace(query.Outcome); raw != "" {
		outcome, ok := automation.ParseOutcome(raw)
		if !ok {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, raw)
		}
		filter.Outcome = outcome
	}

	if raw := strings.TrimSpace(query.Date); raw != "" {
		day, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
		}
		filter.Date = &day
	}

	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list automation logs: %w", err)
	}

	return entries, nil
}
