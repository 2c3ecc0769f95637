package fixture

import (
	"strings"
	"time"
)

const (
	StatusScheduled = "SCHEDULED"
	StatusLive      = "LIVE"
	StatusFinished  = "FINISHED"
	StatusCancelled = "CANCELLED"
	StatusPostponed = "POSTPONED"
)

// Fixture represents one scheduled match. The ingestion subsystem owns
// kickoff/status/score mutations; the automation scheduler only reads them
// and writes the per-phase trigger timestamps.
type Fixture struct {
	ID           string
	LeagueID     string
	LeagueName   string
	HomeTeam     string
	AwayTeam     string
	HomeTeamID   string
	AwayTeamID   string
	FixtureRefID int64
	KickoffAt    time.Time
	HomeScore    *int
	AwayScore    *int
	Status       string
	FinishedAt   *time.Time

	// Soft idempotency guards, one per time-gated workflow phase.
	PreMatchTriggeredAt   *time.Time
	PredictionTriggeredAt *time.Time
	AnalysisTriggeredAt   *time.Time
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	if status == "" {
		return StatusScheduled
	}
	return status
}

func IsLiveStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusLive, "IN_PLAY", "HT", "1H", "2H", "ET":
		return true
	default:
		return false
	}
}

func IsFinishedStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusFinished, "FT", "AET", "PEN":
		return true
	default:
		return false
	}
}

func IsCancelledLikeStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusCancelled, StatusPostponed, "ABANDONED":
		return true
	default:
		return false
	}
}
