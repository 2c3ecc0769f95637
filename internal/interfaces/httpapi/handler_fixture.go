package httpapi

import (
	"net/http"
	"time"

	"github.com/matchsight/matchsight/internal/domain/fixture"
)

type fixtureResponse struct {
	ID                    string     `json:"id"`
	LeagueID              string     `json:"leagueId"`
	LeagueName            string     `json:"leagueName"`
	HomeTeam              string     `json:"homeTeam"`
	AwayTeam              string     `json:"awayTeam"`
	KickoffAt             time.Time  `json:"kickoffAt"`
	HomeScore             *int       `json:"homeScore,omitempty"`
	AwayScore             *int       `json:"awayScore,omitempty"`
	Status                string     `json:"status"`
	FinishedAt            *time.Time `json:"finishedAt,omitempty"`
	PreMatchTriggeredAt   *time.Time `json:"preMatchTriggeredAt,omitempty"`
	PredictionTriggeredAt *time.Time `json:"predictionTriggeredAt,omitempty"`
	AnalysisTriggeredAt   *time.Time `json:"analysisTriggeredAt,omitempty"`
}

type ingestFixtureItem struct {
	ID           string     `json:"id" validate:"required"`
	LeagueID     string     `json:"leagueId" validate:"required"`
	LeagueName   string     `json:"leagueName"`
	HomeTeam     string     `json:"homeTeam" validate:"required"`
	AwayTeam     string     `json:"awayTeam" validate:"required"`
	HomeTeamID   string     `json:"homeTeamId"`
	AwayTeamID   string     `json:"awayTeamId"`
	FixtureRefID int64      `json:"fixtureRefId"`
	KickoffAt    time.Time  `json:"kickoffAt" validate:"required"`
	HomeScore    *int       `json:"homeScore"`
	AwayScore    *int       `json:"awayScore"`
	Status       string     `json:"status"`
	FinishedAt   *time.Time `json:"finishedAt"`
}

type ingestFixturesRequest struct {
	Items []ingestFixtureItem `json:"items" validate:"required,min=1,dive"`
}

type ingestFixturesResponse struct {
	Ingested int `json:"ingested"`
}

func (h *Handler) ListFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFixtures")
	defer span.End()

	fixtures, err := h.fixtureService.ListByLeague(ctx, r.URL.Query().Get("league_id"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]fixtureResponse, 0, len(fixtures))
	for _, f := range fixtures {
		out = append(out, toFixtureResponse(f))
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"items":      out,
		"totalItems": len(out),
	})
}

func (h *Handler) IngestFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.IngestFixtures")
	defer span.End()

	var req ingestFixturesRequest
	if err := h.decodeRequest(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	items := make([]fixture.Fixture, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, fixture.Fixture{
			ID:           item.ID,
			LeagueID:     item.LeagueID,
			LeagueName:   item.LeagueName,
			HomeTeam:     item.HomeTeam,
			AwayTeam:     item.AwayTeam,
			HomeTeamID:   item.HomeTeamID,
			AwayTeamID:   item.AwayTeamID,
			FixtureRefID: item.FixtureRefID,
			KickoffAt:    item.KickoffAt,
			HomeScore:    item.HomeScore,
			AwayScore:    item.AwayScore,
			Status:       item.Status,
			FinishedAt:   item.FinishedAt,
		})
	}

	ingested, err := h.fixtureService.Ingest(ctx, items)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, ingestFixturesResponse{Ingested: ingested})
}

func toFixtureResponse(f fixture.Fixture) fixtureResponse {
	return fixtureResponse{
		ID:                    f.ID,
		LeagueID:              f.LeagueID,
		LeagueName:            f.LeagueName,
		HomeTeam:              f.HomeTeam,
		AwayTeam:              f.AwayTeam,
		KickoffAt:             f.KickoffAt,
		HomeScore:             f.HomeScore,
		AwayScore:             f.AwayScore,
		Status:                f.Status,
		FinishedAt:            f.FinishedAt,
		PreMatchTriggeredAt:   f.PreMatchTriggeredAt,
		PredictionTriggeredAt: f.PredictionTriggeredAt,
		AnalysisTriggeredAt:   f.AnalysisTriggeredAt,
	}
}
