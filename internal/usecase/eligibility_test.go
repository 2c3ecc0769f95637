package usecase

import (
	"testing"
	"time"

	"github.com/matchsight/matchsight/internal/domain/fixture"
)

func ptrTime(t time.Time) *time.Time { return &t }

func TestPreMatchEligible(t *testing.T) {
	now := time.Date(2026, 3, 14, 14, 5, 0, 0, time.UTC)

	if !preMatchEligible(nil, now) {
		t.Fatal("never-triggered fixture should be eligible")
	}
	if preMatchEligible(ptrTime(now.Add(-3*time.Minute)), now) {
		t.Fatal("fixture triggered earlier today should not be eligible")
	}
	if preMatchEligible(ptrTime(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)), now) {
		t.Fatal("fixture triggered exactly at midnight should not be eligible")
	}
	if !preMatchEligible(ptrTime(time.Date(2026, 3, 13, 23, 59, 0, 0, time.UTC)), now) {
		t.Fatal("fixture triggered yesterday should be eligible again")
	}
}

func TestArtifactPhaseEligible(t *testing.T) {
	buffer := 7 * time.Minute
	windowOpen := time.Date(2026, 3, 14, 14, 35, 0, 0, time.UTC)
	now := windowOpen.Add(time.Minute)

	cases := []struct {
		name        string
		triggeredAt *time.Time
		artifactAt  *time.Time
		want        bool
	}{
		{name: "never triggered, no artifact", want: true},
		{
			name:        "triggered within buffer",
			triggeredAt: ptrTime(now.Add(-3 * time.Minute)),
			want:        false,
		},
		{
			name:        "triggered outside buffer, artifact missing",
			triggeredAt: ptrTime(now.Add(-15 * time.Minute)),
			want:        true,
		},
		{
			name:       "fresh artifact",
			artifactAt: ptrTime(windowOpen.Add(30 * time.Second)),
			want:       false,
		},
		{
			name:       "artifact created exactly at window open counts as fresh",
			artifactAt: ptrTime(windowOpen),
			want:       false,
		},
		{
			name:       "stale artifact, no regeneration attempt yet",
			artifactAt: ptrTime(windowOpen.Add(-25 * time.Minute)),
			want:       true,
		},
		{
			name:        "stale artifact, regeneration triggered within buffer",
			triggeredAt: ptrTime(now.Add(-2 * time.Minute)),
			artifactAt:  ptrTime(windowOpen.Add(-25 * time.Minute)),
			want:        false,
		},
		{
			name:        "stale artifact, regeneration attempt outside buffer",
			triggeredAt: ptrTime(now.Add(-20 * time.Minute)),
			artifactAt:  ptrTime(windowOpen.Add(-25 * time.Minute)),
			want:        true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := artifactPhaseEligible(tc.triggeredAt, tc.artifactAt, windowOpen, now, buffer)
			if got != tc.want {
				t.Fatalf("eligible = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestArtifactPhaseEligibleBufferBoundary(t *testing.T) {
	buffer := 7 * time.Minute
	now := time.Date(2026, 3, 14, 14, 20, 0, 0, time.UTC)
	windowOpen := now.Add(-10 * time.Minute)

	exactly := ptrTime(now.Add(-buffer))
	if !artifactPhaseEligible(exactly, nil, windowOpen, now, buffer) {
		t.Fatal("trigger exactly one buffer ago should be retryable")
	}

	justInside := ptrTime(now.Add(-buffer).Add(time.Second))
	if artifactPhaseEligible(justInside, nil, windowOpen, now, buffer) {
		t.Fatal("trigger just inside the buffer should be held back")
	}
}

func TestCapFixtures(t *testing.T) {
	items := []fixture.Fixture{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	if got := capFixtures(items, 9); len(got) != 3 {
		t.Fatalf("cap above len should keep all, got %d", len(got))
	}
	if got := capFixtures(items, 0); len(got) != 3 {
		t.Fatalf("zero cap should keep all, got %d", len(got))
	}

	got := capFixtures(items, 2)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("cap should keep the earliest items, got %+v", got)
	}
}

func TestGroupByLeague(t *testing.T) {
	items := []fixture.Fixture{
		{ID: "f1", LeagueID: "epl", LeagueName: "Premier League"},
		{ID: "f2", LeagueID: "laliga", LeagueName: "La Liga"},
		{ID: "f3", LeagueID: "epl", LeagueName: "Premier League"},
	}

	groups := groupByLeague(items)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].LeagueID != "epl" || len(groups[0].Fixtures) != 2 {
		t.Fatalf("first group should be epl with 2 fixtures, got %+v", groups[0])
	}
	if groups[1].LeagueID != "laliga" || len(groups[1].Fixtures) != 1 {
		t.Fatalf("second group should be laliga with 1 fixture, got %+v", groups[1])
	}
}
