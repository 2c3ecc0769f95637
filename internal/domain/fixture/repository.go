package fixture

import (
	"context"
	"time"
)

// Repository exposes fixture read operations plus the ingestion upsert.
type Repository interface {
	ListByLeague(ctx context.Context, leagueID string) ([]Fixture, error)
	// ListKickoffBetween returns non-cancelled fixtures whose kickoff falls
	// in [start, end], ordered by kickoff ascending.
	ListKickoffBetween(ctx context.Context, start, end time.Time) ([]Fixture, error)
	// ListFinishedBetween returns finished fixtures whose full-time timestamp
	// falls in [start, end], ordered by full-time ascending.
	ListFinishedBetween(ctx context.Context, start, end time.Time) ([]Fixture, error)
	ListLive(ctx context.Context) ([]Fixture, error)
	Upsert(ctx context.Context, items []Fixture) error
}
