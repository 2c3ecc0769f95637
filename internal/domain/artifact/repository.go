package artifact

import (
	"context"
	"time"
)

type Repository interface {
	// LatestCreatedByFixture returns, for each fixture id that has at least
	// one artifact of the given kind, the creation time of the most recent
	// one. Fixtures without artifacts are absent from the map.
	LatestCreatedByFixture(ctx context.Context, kind Kind, fixtureIDs []string) (map[string]time.Time, error)
}
