package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/matchsight/matchsight/internal/domain/automation"
	qb "github.com/matchsight/matchsight/internal/platform/querybuilder"
)

// The automation config is a singleton row pinned to a fixed id.
const automationConfigRowID = int64(1)

type AutomationConfigRepository struct {
	db *sqlx.DB
}

func NewAutomationConfigRepository(db *sqlx.DB) *AutomationConfigRepository {
	return &AutomationConfigRepository{db: db}
}

func (r *AutomationConfigRepository) Get(ctx context.Context) (automation.Config, bool, error) {
	query, args, err := qb.Select("*").From("automation_config").
		Where(qb.Eq("id", automationConfigRowID)).
		ToSQL()
	if err != nil {
		return automation.Config{}, false, fmt.Errorf("build select automation config query: %w", err)
	}

	var row automationConfigTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return automation.Config{}, false, nil
		}
		return automation.Config{}, false, fmt.Errorf("select automation config: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *AutomationConfigRepository) Save(ctx context.Context, cfg automation.Config) error {
	model := configInsertModelFrom(cfg)

	query, args, err := qb.InsertModel("automation_config", model, `ON CONFLICT (id)
DO UPDATE SET
	enabled = EXCLUDED.enabled,
	pre_match_enabled = EXCLUDED.pre_match_enabled,
	prediction_enabled = EXCLUDED.prediction_enabled,
	live_enabled = EXCLUDED.live_enabled,
	post_match_enabled = EXCLUDED.post_match_enabled,
	analysis_enabled = EXCLUDED.analysis_enabled,
	pre_match_lead_min_minutes = EXCLUDED.pre_match_lead_min_minutes,
	pre_match_lead_max_minutes = EXCLUDED.pre_match_lead_max_minutes,
	prediction_lead_min_minutes = EXCLUDED.prediction_lead_min_minutes,
	prediction_lead_max_minutes = EXCLUDED.prediction_lead_max_minutes,
	post_match_delay_min_minutes = EXCLUDED.post_match_delay_min_minutes,
	post_match_delay_max_minutes = EXCLUDED.post_match_delay_max_minutes,
	analysis_delay_min_minutes = EXCLUDED.analysis_delay_min_minutes,
	analysis_delay_max_minutes = EXCLUDED.analysis_delay_max_minutes,
	retry_buffer_minutes = EXCLUDED.retry_buffer_minutes,
	max_fixtures_per_run = EXCLUDED.max_fixtures_per_run,
	updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build upsert automation config query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert automation config: %w", err)
	}

	return nil
}

// UpdateLastRun stamps the bookkeeping columns. On a fresh database the
// defaults are materialized first so the very first run still has a row to
// stamp.
func (r *AutomationConfigRepository) UpdateLastRun(ctx context.Context, at time.Time, status string) error {
	query, args, err := qb.Update("automation_config").
		Set("last_run_at", at).
		Set("last_run_status", status).
		Where(qb.Eq("id", automationConfigRowID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update last run query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update last run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update last run rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	seed := automation.DefaultConfig()
	seed.LastRunAt = &at
	seed.LastRunStatus = status
	seed.UpdatedAt = at
	if err := r.Save(ctx, seed); err != nil {
		return err
	}

	// The conflict-update path above skips last-run columns, so stamp again
	// in case another writer raced the seed insert.
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update last run after seed: %w", err)
	}

	return nil
}
