package automation

import (
	"context"
	"time"
)

// FixtureRef carries the fixture fields a workflow payload needs.
type FixtureRef struct {
	ID        string
	HomeTeam  string
	AwayTeam  string
	KickoffAt time.Time
}

// WorkflowRequest is one league-grouped trigger for the pre-match, live and
// post-match phases. The downstream engine receives the whole group as a
// single call.
type WorkflowRequest struct {
	Phase      Phase
	LeagueID   string
	LeagueName string
	Fixtures   []FixtureRef
}

// DispatchResult captures what happened on the wire. Response holds the
// parsed body when the engine answered JSON, or the raw text otherwise.
type DispatchResult struct {
	Endpoint   string
	StatusCode int
	DurationMs int64
	Response   string
}

// Dispatcher invokes the external workflow engine. Calls block until the
// engine answers or the configured timeout fires; a timeout is an error
// result, never a pending call.
type Dispatcher interface {
	TriggerWorkflow(ctx context.Context, req WorkflowRequest) (DispatchResult, error)
	GeneratePrediction(ctx context.Context, fixtureID, model string) (DispatchResult, error)
	GenerateAnalysis(ctx context.Context, fixtureID string) (DispatchResult, error)
}
