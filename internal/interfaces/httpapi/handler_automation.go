package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/matchsight/matchsight/internal/domain/automation"
	"github.com/matchsight/matchsight/internal/usecase"
)

type automationConfigResponse struct {
	Enabled bool `json:"enabled"`

	PreMatchEnabled   bool `json:"preMatchEnabled"`
	PredictionEnabled bool `json:"predictionEnabled"`
	LiveEnabled       bool `json:"liveEnabled"`
	PostMatchEnabled  bool `json:"postMatchEnabled"`
	AnalysisEnabled   bool `json:"analysisEnabled"`

	PreMatchLeadMinMinutes   int `json:"preMatchLeadMinMinutes"`
	PreMatchLeadMaxMinutes   int `json:"preMatchLeadMaxMinutes"`
	PredictionLeadMinMinutes int `json:"predictionLeadMinMinutes"`
	PredictionLeadMaxMinutes int `json:"predictionLeadMaxMinutes"`
	PostMatchDelayMinMinutes int `json:"postMatchDelayMinMinutes"`
	PostMatchDelayMaxMinutes int `json:"postMatchDelayMaxMinutes"`
	AnalysisDelayMinMinutes  int `json:"analysisDelayMinMinutes"`
	AnalysisDelayMaxMinutes  int `json:"analysisDelayMaxMinutes"`
	RetryBufferMinutes       int `json:"retryBufferMinutes"`
	MaxFixturesPerRun        int `json:"maxFixturesPerRun"`

	LastRunAt     *time.Time `json:"lastRunAt,omitempty"`
	LastRunStatus string     `json:"lastRunStatus,omitempty"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type updateAutomationConfigRequest struct {
	Enabled bool `json:"enabled"`

	PreMatchEnabled   bool `json:"preMatchEnabled"`
	PredictionEnabled bool `json:"predictionEnabled"`
	LiveEnabled       bool `json:"liveEnabled"`
	PostMatchEnabled  bool `json:"postMatchEnabled"`
	AnalysisEnabled   bool `json:"analysisEnabled"`

	PreMatchLeadMinMinutes   int `json:"preMatchLeadMinMinutes" validate:"min=0"`
	PreMatchLeadMaxMinutes   int `json:"preMatchLeadMaxMinutes" validate:"gt=0"`
	PredictionLeadMinMinutes int `json:"predictionLeadMinMinutes" validate:"min=0"`
	PredictionLeadMaxMinutes int `json:"predictionLeadMaxMinutes" validate:"gt=0"`
	PostMatchDelayMinMinutes int `json:"postMatchDelayMinMinutes" validate:"min=0"`
	PostMatchDelayMaxMinutes int `json:"postMatchDelayMaxMinutes" validate:"gt=0"`
	AnalysisDelayMinMinutes  int `json:"analysisDelayMinMinutes" validate:"min=0"`
	AnalysisDelayMaxMinutes  int `json:"analysisDelayMaxMinutes" validate:"gt=0"`
	RetryBufferMinutes       int `json:"retryBufferMinutes" validate:"gt=0"`
	MaxFixturesPerRun        int `json:"maxFixturesPerRun" validate:"gt=0"`
}

type automationLogResponse struct {
	ID         int64     `json:"id"`
	RunID      string    `json:"runId"`
	Phase      string    `json:"phase,omitempty"`
	FixtureIDs []string  `json:"fixtureIds"`
	Endpoint   string    `json:"endpoint,omitempty"`
	StatusCode int       `json:"statusCode,omitempty"`
	DurationMs int64     `json:"durationMs"`
	Outcome    string    `json:"outcome"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (h *Handler) RunAutomation(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunAutomation")
	defer span.End()

	summary, err := h.automationService.Run(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "automation run failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, summary)
}

func (h *Handler) GetAutomationConfig(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetAutomationConfig")
	defer span.End()

	cfg, err := h.configService.Resolve(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "resolve automation config failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, toAutomationConfigResponse(cfg))
}

func (h *Handler) UpdateAutomationConfig(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateAutomationConfig")
	defer span.End()

	var req updateAutomationConfigRequest
	if err := h.decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	updated, err := h.configService.Update(ctx, automation.Config{
		Enabled:                  req.Enabled,
		PreMatchEnabled:          req.PreMatchEnabled,
		PredictionEnabled:        req.PredictionEnabled,
		LiveEnabled:              req.LiveEnabled,
		PostMatchEnabled:         req.PostMatchEnabled,
		AnalysisEnabled:          req.AnalysisEnabled,
		PreMatchLeadMinMinutes:   req.PreMatchLeadMinMinutes,
		PreMatchLeadMaxMinutes:   req.PreMatchLeadMaxMinutes,
		PredictionLeadMinMinutes: req.PredictionLeadMinMinutes,
		PredictionLeadMaxMinutes: req.PredictionLeadMaxMinutes,
		PostMatchDelayMinMinutes: req.PostMatchDelayMinMinutes,
		PostMatchDelayMaxMinutes: req.PostMatchDelayMaxMinutes,
		AnalysisDelayMinMinutes:  req.AnalysisDelayMinMinutes,
		AnalysisDelayMaxMinutes:  req.AnalysisDelayMaxMinutes,
		RetryBufferMinutes:       req.RetryBufferMinutes,
		MaxFixturesPerRun:        req.MaxFixturesPerRun,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, toAutomationConfigResponse(updated))
}

func (h *Handler) ListAutomationLogs(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListAutomationLogs")
	defer span.End()

	query := usecase.LogQuery{
		Phase:   r.URL.Query().Get("phase"),
		Outcome: r.URL.Query().Get("status"),
		Date:    r.URL.Query().Get("date"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(ctx, w, invalidQueryParam("limit", raw))
			return
		}
		query.Limit = limit
	}

	entries, err := h.logService.List(ctx, query)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]automationLogResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toAutomationLogResponse(entry))
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"items":      out,
		"totalItems": len(out),
	})
}

func toAutomationConfigResponse(cfg automation.Config) automationConfigResponse {
	return automationConfigResponse{
		Enabled:                  cfg.Enabled,
		PreMatchEnabled:          cfg.PreMatchEnabled,
		PredictionEnabled:        cfg.PredictionEnabled,
		LiveEnabled:              cfg.LiveEnabled,
		PostMatchEnabled:         cfg.PostMatchEnabled,
		AnalysisEnabled:          cfg.AnalysisEnabled,
		PreMatchLeadMinMinutes:   cfg.PreMatchLeadMinMinutes,
		PreMatchLeadMaxMinutes:   cfg.PreMatchLeadMaxMinutes,
		PredictionLeadMinMinutes: cfg.PredictionLeadMinMinutes,
		PredictionLeadMaxMinutes: cfg.PredictionLeadMaxMinutes,
		PostMatchDelayMinMinutes: cfg.PostMatchDelayMinMinutes,
		PostMatchDelayMaxMinutes: cfg.PostMatchDelayMaxMinutes,
		AnalysisDelayMinMinutes:  cfg.AnalysisDelayMinMinutes,
		AnalysisDelayMaxMinutes:  cfg.AnalysisDelayMaxMinutes,
		RetryBufferMinutes:       cfg.RetryBufferMinutes,
		MaxFixturesPerRun:        cfg.MaxFixturesPerRun,
		LastRunAt:                cfg.LastRunAt,
		LastRunStatus:            cfg.LastRunStatus,
		UpdatedAt:                cfg.UpdatedAt,
	}
}

func toAutomationLogResponse(entry automation.LogEntry) automationLogResponse {
	fixtureIDs := entry.FixtureIDs
	if fixtureIDs == nil {
		fixtureIDs = []string{}
	}
	return automationLogResponse{
		ID:         entry.ID,
		RunID:      entry.RunID,
		Phase:      string(entry.Phase),
		FixtureIDs: fixtureIDs,
		Endpoint:   entry.Endpoint,
		StatusCode: entry.StatusCode,
		DurationMs: entry.DurationMs,
		Outcome:    string(entry.Outcome),
		Message:    entry.Message,
		CreatedAt:  entry.CreatedAt,
	}
}
