package postgres

import (
	"database/sql"
	"time"

	"github.com/matchsight/matchsight/internal/domain/fixture"
)

type fixtureTableModel struct {
	ID           int64          `db:"id"`
	PublicID     string         `db:"public_id"`
	LeagueID     string         `db:"league_public_id"`
	LeagueName   string         `db:"league_name"`
	HomeTeam     string         `db:"home_team"`
	AwayTeam     string         `db:"away_team"`
	HomeTeamID   sql.NullString `db:"home_team_public_id"`
	AwayTeamID   sql.NullString `db:"away_team_public_id"`
	FixtureRefID sql.NullInt64  `db:"fixture_id"`
	KickoffAt    time.Time      `db:"kickoff_at"`
	HomeScore    sql.NullInt64  `db:"home_score"`
	AwayScore    sql.NullInt64  `db:"away_score"`
	Status       string         `db:"status"`
	FinishedAt   *time.Time     `db:"finished_at"`

	PreMatchTriggeredAt   *time.Time `db:"pre_match_triggered_at"`
	PredictionTriggeredAt *time.Time `db:"prediction_triggered_at"`
	AnalysisTriggeredAt   *time.Time `db:"analysis_triggered_at"`

	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

func (m fixtureTableModel) toDomain() fixture.Fixture {
	var refID int64
	if m.FixtureRefID.Valid {
		refID = m.FixtureRefID.Int64
	}

	return fixture.Fixture{
		ID:                    m.PublicID,
		LeagueID:              m.LeagueID,
		LeagueName:            m.LeagueName,
		HomeTeam:              m.HomeTeam,
		AwayTeam:              m.AwayTeam,
		HomeTeamID:            m.HomeTeamID.String,
		AwayTeamID:            m.AwayTeamID.String,
		FixtureRefID:          refID,
		KickoffAt:             m.KickoffAt,
		HomeScore:             nullInt64ToIntPtr(m.HomeScore),
		AwayScore:             nullInt64ToIntPtr(m.AwayScore),
		Status:                m.Status,
		FinishedAt:            m.FinishedAt,
		PreMatchTriggeredAt:   m.PreMatchTriggeredAt,
		PredictionTriggeredAt: m.PredictionTriggeredAt,
		AnalysisTriggeredAt:   m.AnalysisTriggeredAt,
	}
}

// fixtureInsertModel deliberately omits the trigger timestamp columns: an
// ingestion refresh must never reset idempotency state.
type fixtureInsertModel struct {
	PublicID     string         `db:"public_id"`
	LeagueID     string         `db:"league_public_id"`
	LeagueName   string         `db:"league_name"`
	HomeTeam     string         `db:"home_team"`
	AwayTeam     string         `db:"away_team"`
	HomeTeamID   *string        `db:"home_team_public_id"`
	AwayTeamID   *string        `db:"away_team_public_id"`
	FixtureRefID sql.NullInt64  `db:"fixture_id"`
	KickoffAt    time.Time      `db:"kickoff_at"`
	HomeScore    sql.NullInt64  `db:"home_score"`
	AwayScore    sql.NullInt64  `db:"away_score"`
	Status       string         `db:"status"`
	FinishedAt   *time.Time     `db:"finished_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}
