package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/matchsight/matchsight/internal/domain/artifact"
	qb "github.com/matchsight/matchsight/internal/platform/querybuilder"
)

type ArtifactRepository struct {
	db *sqlx.DB
}

func NewArtifactRepository(db *sqlx.DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

type artifactLatestRow struct {
	FixtureID string    `db:"fixture_public_id"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *ArtifactRepository) LatestCreatedByFixture(ctx context.Context, kind artifact.Kind, fixtureIDs []string) (map[string]time.Time, error) {
	out := make(map[string]time.Time, len(fixtureIDs))
	if len(fixtureIDs) == 0 {
		return out, nil
	}

	table, err := tableForKind(kind)
	if err != nil {
		return nil, err
	}

	ids := make([]any, 0, len(fixtureIDs))
	for _, id := range fixtureIDs {
		ids = append(ids, id)
	}

	query, args, err := qb.Select("fixture_public_id", "MAX(created_at) AS created_at").
		From(table).
		Where(
			qb.In("fixture_public_id", ids),
			qb.IsNull("deleted_at"),
		).
		GroupBy("fixture_public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build latest %s query: %w", table, err)
	}

	var rows []artifactLatestRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select latest %s: %w", table, err)
	}

	for _, row := range rows {
		out[row.FixtureID] = row.CreatedAt
	}

	return out, nil
}

func tableForKind(kind artifact.Kind) (string, error) {
	switch kind {
	case artifact.KindPrediction:
		return "predictions", nil
	case artifact.KindAnalysis:
		return "analyses", nil
	default:
		return "", fmt.Errorf("unknown artifact kind %q", kind)
	}
}
