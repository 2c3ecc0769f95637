package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/matchsight/matchsight/internal/domain/automation"
	qb "github.com/matchsight/matchsight/internal/platform/querybuilder"
)

// AutomationLogRepository persists the append-only audit trail. Rows are
// never updated or deleted.
type AutomationLogRepository struct {
	db *sqlx.DB
}

func NewAutomationLogRepository(db *sqlx.DB) *AutomationLogRepository {
	return &AutomationLogRepository{db: db}
}

func (r *AutomationLogRepository) Append(ctx context.Context, entry automation.LogEntry) error {
	fixtureIDs := entry.FixtureIDs
	if fixtureIDs == nil {
		fixtureIDs = []string{}
	}
	encoded, err := sonic.Marshal(fixtureIDs)
	if err != nil {
		return fmt.Errorf("marshal fixture ids: %w", err)
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	model := automationLogInsertModel{
		RunID:      entry.RunID,
		Phase:      sql.NullString{String: string(entry.Phase), Valid: entry.Phase != ""},
		FixtureIDs: string(encoded),
		Endpoint:   sql.NullString{String: entry.Endpoint, Valid: entry.Endpoint != ""},
		StatusCode: entry.StatusCode,
		DurationMs: entry.DurationMs,
		Outcome:    string(entry.Outcome),
		Message:    entry.Message,
		CreatedAt:  createdAt,
	}

	query, args, err := qb.InsertModel("automation_logs", model, "")
	if err != nil {
		return fmt.Errorf("build insert automation log query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert automation log: %w", err)
	}

	return nil
}

func (r *AutomationLogRepository) List(ctx context.Context, filter automation.LogFilter) ([]automation.LogEntry, error) {
	conditions := make([]qb.Condition, 0, 3)
	if filter.Phase != "" {
		conditions = append(conditions, qb.Eq("phase", string(filter.Phase)))
	}
	if filter.Outcome != "" {
		conditions = append(conditions, qb.Eq("outcome", string(filter.Outcome)))
	}
	if filter.Date != nil {
		day := filter.Date.UTC().Truncate(24 * time.Hour)
		conditions = append(conditions, qb.Expr("created_at >= ? AND created_at < ?", day, day.Add(24*time.Hour)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	builder := qb.Select("*").From("automation_logs").
		OrderBy("created_at DESC", "id DESC").
		Limit(limit)
	if len(conditions) > 0 {
		builder = builder.Where(conditions...)
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select automation logs query: %w", err)
	}

	var rows []automationLogTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select automation logs: %w", err)
	}

	out := make([]automation.LogEntry, 0, len(rows))
	for _, row := range rows {
		entry := automation.LogEntry{
			ID:         row.ID,
			RunID:      row.RunID,
			Phase:      automation.Phase(row.Phase.String),
			Endpoint:   row.Endpoint.String,
			StatusCode: row.StatusCode,
			DurationMs: row.DurationMs,
			Outcome:    automation.Outcome(row.Outcome),
			Message:    row.Message,
			CreatedAt:  row.CreatedAt,
		}
		if len(row.FixtureIDs) > 0 {
			if err := sonic.Unmarshal(row.FixtureIDs, &entry.FixtureIDs); err != nil {
				return nil, fmt.Errorf("unmarshal fixture ids for log %d: %w", row.ID, err)
			}
		}
		out = append(out, entry)
	}

	return out, nil
}
