package automation

import (
	"context"
	"time"
)

type ConfigRepository interface {
	// Get returns the singleton config row. exists=false means the row was
	// never saved; callers fall back to DefaultConfig.
	Get(ctx context.Context) (Config, bool, error)
	Save(ctx context.Context, cfg Config) error
	UpdateLastRun(ctx context.Context, at time.Time, status string) error
}

type LogFilter struct {
	Limit   int
	Phase   Phase
	Outcome Outcome
	// Date restricts to entries created on that UTC calendar day.
	Date *time.Time
}

type LogRepository interface {
	Append(ctx context.Context, entry LogEntry) error
	List(ctx context.Context, filter LogFilter) ([]LogEntry, error)
}

// TriggerMarker persists the per-fixture, per-phase trigger timestamp before
// dispatch. This is a best-effort soft guard: overlapping invocations can
// still race, and the retry buffer is what keeps that window harmless. The
// interface exists so a real distributed lock could replace the timestamp
// write without touching callers.
type TriggerMarker interface {
	MarkTriggered(ctx context.Context, fixtureID string, phase Phase, at time.Time) error
}
