package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/matchsight/matchsight/internal/domain/fixture"
)

// FixtureService covers the thin read/ingest boundary around fixtures. The
// scheduler owns only the trigger timestamps; everything else on a fixture
// row is written here on behalf of the ingestion feed.
type FixtureService struct {
	repo fixture.Repository
	now  func() time.Time
}

func NewFixtureService(repo fixture.Repository) *FixtureService {
	return &FixtureService{repo: repo, now: time.Now}
}

func (s *FixtureService) ListByLeague(ctx context.Context, leagueID string) ([]fixture.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.ListByLeague")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return nil, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	fixtures, err := s.repo.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list fixtures by league: %w", err)
	}

	return fixtures, nil
}

// Ingest upserts a batch of fixtures from the external feed. Trigger
// timestamps are preserved on conflict so an ingestion refresh can never
// reset idempotency state.
func (s *FixtureService) Ingest(ctx context.Context, items []fixture.Fixture) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.Ingest")
	defer span.End()

	if len(items) == 0 {
		return 0, fmt.Errorf("%w: at least one fixture is required", ErrInvalidInput)
	}

	for i := range items {
		items[i].ID = strings.TrimSpace(items[i].ID)
		if items[i].ID == "" {
			return 0, fmt.Errorf("%w: fixture id is required", ErrInvalidInput)
		}
		if strings.TrimSpace(items[i].LeagueID) == "" {
			return 0, fmt.Errorf("%w: league id is required for fixture %s", ErrInvalidInput, items[i].ID)
		}
		if items[i].KickoffAt.IsZero() {
			return 0, fmt.Errorf("%w: kickoff is required for fixture %s", ErrInvalidInput, items[i].ID)
		}
		items[i].Status = fixture.NormalizeStatus(items[i].Status)
	}

	if err := s.repo.Upsert(ctx, items); err != nil {
		return 0, fmt.Errorf("upsert fixtures: %w", err)
	}

	return len(items), nil
}
