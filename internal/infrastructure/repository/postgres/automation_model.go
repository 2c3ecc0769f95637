package postgres

import (
	"database/sql"
	"time"

	"github.com/matchsight/matchsight/internal/domain/automation"
)

type automationConfigTableModel struct {
	ID                int64          `db:"id"`
	Enabled           bool           `db:"enabled"`
	PreMatchEnabled   bool           `db:"pre_match_enabled"`
	PredictionEnabled bool           `db:"prediction_enabled"`
	LiveEnabled       bool           `db:"live_enabled"`
	PostMatchEnabled  bool           `db:"post_match_enabled"`
	AnalysisEnabled   bool           `db:"analysis_enabled"`

	PreMatchLeadMin   int `db:"pre_match_lead_min_minutes"`
	PreMatchLeadMax   int `db:"pre_match_lead_max_minutes"`
	PredictionLeadMin int `db:"prediction_lead_min_minutes"`
	PredictionLeadMax int `db:"prediction_lead_max_minutes"`
	PostMatchDelayMin int `db:"post_match_delay_min_minutes"`
	PostMatchDelayMax int `db:"post_match_delay_max_minutes"`
	AnalysisDelayMin  int `db:"analysis_delay_min_minutes"`
	AnalysisDelayMax  int `db:"analysis_delay_max_minutes"`

	RetryBufferMinutes int `db:"retry_buffer_minutes"`
	MaxFixturesPerRun  int `db:"max_fixtures_per_run"`

	LastRunAt     *time.Time     `db:"last_run_at"`
	LastRunStatus sql.NullString `db:"last_run_status"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (m automationConfigTableModel) toDomain() automation.Config {
	return automation.Config{
		Enabled:                  m.Enabled,
		PreMatchEnabled:          m.PreMatchEnabled,
		PredictionEnabled:        m.PredictionEnabled,
		LiveEnabled:              m.LiveEnabled,
		PostMatchEnabled:         m.PostMatchEnabled,
		AnalysisEnabled:          m.AnalysisEnabled,
		PreMatchLeadMinMinutes:   m.PreMatchLeadMin,
		PreMatchLeadMaxMinutes:   m.PreMatchLeadMax,
		PredictionLeadMinMinutes: m.PredictionLeadMin,
		PredictionLeadMaxMinutes: m.PredictionLeadMax,
		PostMatchDelayMinMinutes: m.PostMatchDelayMin,
		PostMatchDelayMaxMinutes: m.PostMatchDelayMax,
		AnalysisDelayMinMinutes:  m.AnalysisDelayMin,
		AnalysisDelayMaxMinutes:  m.AnalysisDelayMax,
		RetryBufferMinutes:       m.RetryBufferMinutes,
		MaxFixturesPerRun:        m.MaxFixturesPerRun,
		LastRunAt:                m.LastRunAt,
		LastRunStatus:            m.LastRunStatus.String,
		UpdatedAt:                m.UpdatedAt,
	}
}

func configInsertModelFrom(cfg automation.Config) automationConfigTableModel {
	return automationConfigTableModel{
		ID:                 automationConfigRowID,
		Enabled:            cfg.Enabled,
		PreMatchEnabled:    cfg.PreMatchEnabled,
		PredictionEnabled:  cfg.PredictionEnabled,
		LiveEnabled:        cfg.LiveEnabled,
		PostMatchEnabled:   cfg.PostMatchEnabled,
		AnalysisEnabled:    cfg.AnalysisEnabled,
		PreMatchLeadMin:    cfg.PreMatchLeadMinMinutes,
		PreMatchLeadMax:    cfg.PreMatchLeadMaxMinutes,
		PredictionLeadMin:  cfg.PredictionLeadMinMinutes,
		PredictionLeadMax:  cfg.PredictionLeadMaxMinutes,
		PostMatchDelayMin:  cfg.PostMatchDelayMinMinutes,
		PostMatchDelayMax:  cfg.PostMatchDelayMaxMinutes,
		AnalysisDelayMin:   cfg.AnalysisDelayMinMinutes,
		AnalysisDelayMax:   cfg.AnalysisDelayMaxMinutes,
		RetryBufferMinutes: cfg.RetryBufferMinutes,
		MaxFixturesPerRun:  cfg.MaxFixturesPerRun,
		LastRunAt:          cfg.LastRunAt,
		LastRunStatus:      sql.NullString{String: cfg.LastRunStatus, Valid: cfg.LastRunStatus != ""},
		UpdatedAt:          cfg.UpdatedAt,
	}
}

type automationLogInsertModel struct {
	RunID      string         `db:"run_id"`
	Phase      sql.NullString `db:"phase"`
	FixtureIDs string         `db:"fixture_ids"`
	Endpoint   sql.NullString `db:"endpoint"`
	StatusCode int            `db:"status_code"`
	DurationMs int64          `db:"duration_ms"`
	Outcome    string         `db:"outcome"`
	Message    string         `db:"message"`
	CreatedAt  time.Time      `db:"created_at"`
}

type automationLogTableModel struct {
	ID         int64          `db:"id"`
	RunID      string         `db:"run_id"`
	Phase      sql.NullString `db:"phase"`
	FixtureIDs []byte         `db:"fixture_ids"`
	Endpoint   sql.NullString `db:"endpoint"`
	StatusCode int            `db:"status_code"`
	DurationMs int64          `db:"duration_ms"`
	Outcome    string         `db:"outcome"`
	Message    string         `db:"message"`
	CreatedAt  time.Time      `db:"created_at"`
}
