package usecase

import (
	"time"

	"github.com/matchsight/matchsight/internal/domain/automation"
)

// Window is the inclusive [Open, Close] range a fixture's kickoff or
// full-time must fall in for a phase to act. Widths must stay wider than
// the external polling interval or fixtures slip between two runs.
type Window struct {
	Open  time.Time
	Close time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Open) && !t.After(w.Close)
}

// preMatchKickoffWindow returns the kickoff range served by the pre-match
// phase at the given instant. With the default 50..60 minute lead, a run at
// 14:05 serves fixtures kicking off between 14:55 and 15:05.
func preMatchKickoffWindow(now time.Time, cfg automation.Config) Window {
	return Window{
		Open:  now.Add(time.Duration(cfg.PreMatchLeadMinMinutes) * time.Minute),
		Close: now.Add(time.Duration(cfg.PreMatchLeadMaxMinutes) * time.Minute),
	}
}

func predictionKickoffWindow(now time.Time, cfg automation.Config) Window {
	return Window{
		Open:  now.Add(time.Duration(cfg.PredictionLeadMinMinutes) * time.Minute),
		Close: now.Add(time.Duration(cfg.PredictionLeadMaxMinutes) * time.Minute),
	}
}

// postMatchFullTimeWindow returns the full-time range served by the
// post-match phase: matches that finished between delayMax and delayMin
// minutes ago.
func postMatchFullTimeWindow(now time.Time, cfg automation.Config) Window {
	return Window{
		Open:  now.Add(-time.Duration(cfg.PostMatchDelayMaxMinutes) * time.Minute),
		Close: now.Add(-time.Duration(cfg.PostMatchDelayMinMinutes) * time.Minute),
	}
}

func analysisFullTimeWindow(now time.Time, cfg automation.Config) Window {
	return Window{
		Open:  now.Add(-time.Duration(cfg.AnalysisDelayMaxMinutes) * time.Minute),
		Close: now.Add(-time.Duration(cfg.AnalysisDelayMinMinutes) * time.Minute),
	}
}

// predictionWindowOpenAt is the moment a given fixture's prediction window
// opened. Artifacts created before this moment were generated against stale
// input and are due for regeneration.
func predictionWindowOpenAt(kickoff time.Time, cfg automation.Config) time.Time {
	return kickoff.Add(-time.Duration(cfg.PredictionLeadMaxMinutes) * time.Minute)
}

// analysisWindowOpenAt is the moment a given fixture's analysis window
// opened, relative to its full-time.
func analysisWindowOpenAt(fullTime time.Time, cfg automation.Config) time.Time {
	return fullTime.Add(time.Duration(cfg.AnalysisDelayMinMinutes) * time.Minute)
}

// startOfUTCDay truncates to midnight UTC. Pre-match eligibility resets at
// the day boundary rather than by retry buffer.
func startOfUTCDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
