package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/matchsight/matchsight/internal/domain/automation"
	"github.com/matchsight/matchsight/internal/domain/fixture"
	qb "github.com/matchsight/matchsight/internal/platform/querybuilder"
)

type FixtureRepository struct {
	db *sqlx.DB
}

func NewFixtureRepository(db *sqlx.DB) *FixtureRepository {
	return &FixtureRepository{db: db}
}

func (r *FixtureRepository) ListByLeague(ctx context.Context, leagueID string) ([]fixture.Fixture, error) {
	query, args, err := qb.Select("*").From("fixtures").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("kickoff_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select fixtures by league query: %w", err)
	}

	return r.selectFixtures(ctx, query, args)
}

func (r *FixtureRepository) ListKickoffBetween(ctx context.Context, start, end time.Time) ([]fixture.Fixture, error) {
	query, args, err := qb.Select("*").From("fixtures").
		Where(
			qb.Expr("kickoff_at >= ?", start),
			qb.Expr("kickoff_at <= ?", end),
			qb.Expr("status NOT IN ('CANCELLED', 'POSTPONED', 'ABANDONED')"),
			qb.IsNull("deleted_at"),
		).
		OrderBy("kickoff_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select fixtures by kickoff query: %w", err)
	}

	return r.selectFixtures(ctx, query, args)
}

func (r *FixtureRepository) ListFinishedBetween(ctx context.Context, start, end time.Time) ([]fixture.Fixture, error) {
	query, args, err := qb.Select("*").From("fixtures").
		Where(
			qb.Expr("finished_at >= ?", start),
			qb.Expr("finished_at <= ?", end),
			qb.IsNull("deleted_at"),
		).
		OrderBy("finished_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select finished fixtures query: %w", err)
	}

	return r.selectFixtures(ctx, query, args)
}

func (r *FixtureRepository) ListLive(ctx context.Context) ([]fixture.Fixture, error) {
	query, args, err := qb.Select("*").From("fixtures").
		Where(
			qb.Expr("status IN ('LIVE', 'IN_PLAY', 'HT', '1H', '2H', 'ET')"),
			qb.IsNull("deleted_at"),
		).
		OrderBy("kickoff_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select live fixtures query: %w", err)
	}

	return r.selectFixtures(ctx, query, args)
}

func (r *FixtureRepository) selectFixtures(ctx context.Context, query string, args []any) ([]fixture.Fixture, error) {
	var rows []fixtureTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select fixtures: %w", err)
	}

	out := make([]fixture.Fixture, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

func (r *FixtureRepository) Upsert(ctx context.Context, items []fixture.Fixture) error {
	now := time.Now().UTC()
	for _, item := range items {
		model := fixtureInsertModel{
			PublicID:   item.ID,
			LeagueID:   item.LeagueID,
			LeagueName: item.LeagueName,
			HomeTeam:   item.HomeTeam,
			AwayTeam:   item.AwayTeam,
			HomeTeamID: optionalString(item.HomeTeamID),
			AwayTeamID: optionalString(item.AwayTeamID),
			KickoffAt:  item.KickoffAt,
			HomeScore:  intPtrToNullInt64(item.HomeScore),
			AwayScore:  intPtrToNullInt64(item.AwayScore),
			Status:     item.Status,
			FinishedAt: item.FinishedAt,
			UpdatedAt:  now,
		}
		if item.FixtureRefID != 0 {
			model.FixtureRefID = sql.NullInt64{Int64: item.FixtureRefID, Valid: true}
		}

		query, args, err := qb.InsertModel("fixtures", model, `ON CONFLICT (public_id)
DO UPDATE SET
	league_public_id = EXCLUDED.league_public_id,
	league_name = EXCLUDED.league_name,
	home_team = EXCLUDED.home_team,
	away_team = EXCLUDED.away_team,
	home_team_public_id = EXCLUDED.home_team_public_id,
	away_team_public_id = EXCLUDED.away_team_public_id,
	fixture_id = EXCLUDED.fixture_id,
	kickoff_at = EXCLUDED.kickoff_at,
	home_score = EXCLUDED.home_score,
	away_score = EXCLUDED.away_score,
	status = EXCLUDED.status,
	finished_at = EXCLUDED.finished_at,
	updated_at = EXCLUDED.updated_at`)
		if err != nil {
			return fmt.Errorf("build upsert fixture query: %w", err)
		}

		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert fixture %s: %w", item.ID, err)
		}
	}

	return nil
}

// MarkTriggered stamps the per-phase idempotency column. It runs before the
// corresponding dispatch goes out, so a crash between the write and the
// call still blocks an immediate re-fire.
func (r *FixtureRepository) MarkTriggered(ctx context.Context, fixtureID string, phase automation.Phase, at time.Time) error {
	column, err := triggerColumnFor(phase)
	if err != nil {
		return err
	}

	query, args, err := qb.Update("fixtures").
		Set(column, at).
		Set("updated_at", at).
		Where(
			qb.Eq("public_id", fixtureID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark trigger query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark %s trigger for fixture %s: %w", phase, fixtureID, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("fixture %s not found", fixtureID)
	}

	return nil
}

func triggerColumnFor(phase automation.Phase) (string, error) {
	switch phase {
	case automation.PhasePreMatch:
		return "pre_match_triggered_at", nil
	case automation.PhasePrediction:
		return "prediction_triggered_at", nil
	case automation.PhaseAnalysis:
		return "analysis_triggered_at", nil
	default:
		return "", fmt.Errorf("phase %s has no trigger column", phase)
	}
}
