package usecase

import (
	"time"

	"github.com/matchsight/matchsight/internal/domain/fixture"
)

// preMatchEligible reports whether the pre-match phase still owes this
// fixture a trigger. There is no downstream artifact to inspect, so the
// rule is simply "not yet triggered today": the marker resets at the UTC
// day boundary, not after a retry buffer.
func preMatchEligible(triggeredAt *time.Time, now time.Time) bool {
	if triggeredAt == nil {
		return true
	}
	return triggeredAt.Before(startOfUTCDay(now))
}

// artifactPhaseEligible decides prediction/analysis eligibility for one
// fixture. Rules in priority order:
//
//  1. never triggered, no artifact: eligible
//  2. triggered within the retry buffer: not eligible, assumed in flight
//  3. triggered outside the buffer, artifact still missing: eligible (retry)
//  4. artifact created at or after this fixture's window open: not eligible
//  5. artifact created before the window opened: stale, eligible for
//     regeneration, still subject to the buffer via rule 2
func artifactPhaseEligible(triggeredAt, artifactAt *time.Time, windowOpen, now time.Time, buffer time.Duration) bool {
	if triggeredAt != nil && now.Sub(*triggeredAt) < buffer {
		return false
	}
	if artifactAt == nil {
		return true
	}
	if !artifactAt.Before(windowOpen) {
		return false
	}
	return true
}

// capFixtures truncates to the per-run maximum. Callers pass fixtures
// already ordered by kickoff or full-time ascending, so the cut drops the
// least time-critical tail.
func capFixtures(items []fixture.Fixture, max int) []fixture.Fixture {
	if max <= 0 || len(items) <= max {
		return items
	}
	return items[:max]
}

type leagueGroup struct {
	LeagueID   string
	LeagueName string
	Fixtures   []fixture.Fixture
}

// groupByLeague partitions fixtures into one group per league, preserving
// first-seen league order so the time ordering of the input survives.
func groupByLeague(items []fixture.Fixture) []leagueGroup {
	index := make(map[string]int, len(items))
	groups := make([]leagueGroup, 0, len(items))
	for _, item := range items {
		pos, ok := index[item.LeagueID]
		if !ok {
			pos = len(groups)
			index[item.LeagueID] = pos
			groups = append(groups, leagueGroup{LeagueID: item.LeagueID, LeagueName: item.LeagueName})
		}
		groups[pos].Fixtures = append(groups[pos].Fixtures, item)
	}
	return groups
}
