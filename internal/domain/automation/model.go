package automation

import (
	"strings"
	"time"
)

type Phase string

const (
	PhasePreMatch   Phase = "pre_match"
	PhasePrediction Phase = "prediction"
	PhaseLive       Phase = "live"
	PhasePostMatch  Phase = "post_match"
	PhaseAnalysis   Phase = "analysis"
)

// Phases lists every workflow phase in evaluation order.
func Phases() []Phase {
	return []Phase{PhasePreMatch, PhasePrediction, PhaseLive, PhasePostMatch, PhaseAnalysis}
}

func ParsePhase(value string) (Phase, bool) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "-", "_")
	switch Phase(normalized) {
	case PhasePreMatch, PhasePrediction, PhaseLive, PhasePostMatch, PhaseAnalysis:
		return Phase(normalized), true
	default:
		return "", false
	}
}

type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeError    Outcome = "error"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeNoAction Outcome = "no-action"
)

func ParseOutcome(value string) (Outcome, bool) {
	switch Outcome(strings.ToLower(strings.TrimSpace(value))) {
	case OutcomeSuccess, OutcomeError, OutcomeSkipped, OutcomeNoAction:
		return Outcome(strings.ToLower(strings.TrimSpace(value))), true
	default:
		return "", false
	}
}

// Config is the singleton automation record: a master switch, per-phase
// switches, and the tunable window offsets in minutes. Offsets are relative
// to kickoff for pre-match/prediction and to full-time for post-match/
// analysis; the live phase has no window.
type Config struct {
	Enabled bool

	PreMatchEnabled   bool
	PredictionEnabled bool
	LiveEnabled       bool
	PostMatchEnabled  bool
	AnalysisEnabled   bool

	PreMatchLeadMinMinutes    int
	PreMatchLeadMaxMinutes    int
	PredictionLeadMinMinutes  int
	PredictionLeadMaxMinutes  int
	PostMatchDelayMinMinutes  int
	PostMatchDelayMaxMinutes  int
	AnalysisDelayMinMinutes   int
	AnalysisDelayMaxMinutes   int
	RetryBufferMinutes        int
	MaxFixturesPerRun         int

	LastRunAt     *time.Time
	LastRunStatus string
	UpdatedAt     time.Time
}

// DefaultConfig mirrors the empirically tuned reference values. Window
// widths must stay wider than the external polling interval so a fixture
// cannot fall between two consecutive runs.
func DefaultConfig() Config {
	return Config{
		Enabled:                  true,
		PreMatchEnabled:          true,
		PredictionEnabled:        true,
		LiveEnabled:              true,
		PostMatchEnabled:         true,
		AnalysisEnabled:          true,
		PreMatchLeadMinMinutes:   50,
		PreMatchLeadMaxMinutes:   60,
		PredictionLeadMinMinutes: 10,
		PredictionLeadMaxMinutes: 50,
		PostMatchDelayMinMinutes: 90,
		PostMatchDelayMaxMinutes: 150,
		AnalysisDelayMinMinutes:  150,
		AnalysisDelayMaxMinutes:  210,
		RetryBufferMinutes:       7,
		MaxFixturesPerRun:        9,
	}
}

func (c Config) EnabledFor(phase Phase) bool {
	switch phase {
	case PhasePreMatch:
		return c.PreMatchEnabled
	case PhasePrediction:
		return c.PredictionEnabled
	case PhaseLive:
		return c.LiveEnabled
	case PhasePostMatch:
		return c.PostMatchEnabled
	case PhaseAnalysis:
		return c.AnalysisEnabled
	default:
		return false
	}
}

// LogEntry is one immutable record of a filter decision or dispatch attempt.
// Entries are append-only; all records from one invocation share RunID.
type LogEntry struct {
	ID         int64
	RunID      string
	Phase      Phase
	FixtureIDs []string
	Endpoint   string
	StatusCode int
	DurationMs int64
	Outcome    Outcome
	Message    string
	CreatedAt  time.Time
}
