package cache

import (
	"context"
	"time"

	"github.com/matchsight/matchsight/internal/domain/fixture"
	basecache "github.com/matchsight/matchsight/internal/platform/cache"
)

// FixtureRepository caches the public league listing in front of postgres.
// The automation window queries deliberately bypass the cache: the scheduler
// filters on trigger timestamps, and serving a stale snapshot there could
// double-fire a phase inside the retry buffer.
type FixtureRepository struct {
	next  fixture.Repository
	cache *basecache.Store
}

func NewFixtureRepository(next fixture.Repository, cache *basecache.Store) *FixtureRepository {
	return &FixtureRepository{next: next, cache: cache}
}

func (r *FixtureRepository) ListByLeague(ctx context.Context, leagueID string) ([]fixture.Fixture, error) {
	key := "fixture:list:" + leagueID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListByLeague(ctx, leagueID)
		if err != nil {
			return nil, err
		}
		return append([]fixture.Fixture(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]fixture.Fixture)
	return append([]fixture.Fixture(nil), items...), nil
}

func (r *FixtureRepository) ListKickoffBetween(ctx context.Context, start, end time.Time) ([]fixture.Fixture, error) {
	return r.next.ListKickoffBetween(ctx, start, end)
}

func (r *FixtureRepository) ListFinishedBetween(ctx context.Context, start, end time.Time) ([]fixture.Fixture, error) {
	return r.next.ListFinishedBetween(ctx, start, end)
}

func (r *FixtureRepository) ListLive(ctx context.Context) ([]fixture.Fixture, error) {
	return r.next.ListLive(ctx)
}

func (r *FixtureRepository) Upsert(ctx context.Context, items []fixture.Fixture) error {
	if err := r.next.Upsert(ctx, items); err != nil {
		return err
	}

	r.cache.DeletePrefix(ctx, "fixture:list:")
	return nil
}
