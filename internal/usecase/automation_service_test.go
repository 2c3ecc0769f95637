package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/matchsight/matchsight/internal/domain/artifact"
	"github.com/matchsight/matchsight/internal/domain/automation"
	"github.com/matchsight/matchsight/internal/domain/fixture"
	"github.com/matchsight/matchsight/internal/platform/logging"
)

type fakeFixtureRepo struct {
	mu       sync.Mutex
	fixtures []fixture.Fixture
	listErr  error
	liveErr  error
}

func (r *fakeFixtureRepo) ListByLeague(_ context.Context, leagueID string) ([]fixture.Fixture, error) {
	var out []fixture.Fixture
	for _, f := range r.fixtures {
		if f.LeagueID == leagueID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFixtureRepo) ListKickoffBetween(_ context.Context, start, end time.Time) ([]fixture.Fixture, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []fixture.Fixture
	for _, f := range r.fixtures {
		if !f.KickoffAt.Before(start) && !f.KickoffAt.After(end) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFixtureRepo) ListFinishedBetween(_ context.Context, start, end time.Time) ([]fixture.Fixture, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []fixture.Fixture
	for _, f := range r.fixtures {
		if f.FinishedAt == nil {
			continue
		}
		if !f.FinishedAt.Before(start) && !f.FinishedAt.After(end) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFixtureRepo) ListLive(_ context.Context) ([]fixture.Fixture, error) {
	if r.liveErr != nil {
		return nil, r.liveErr
	}
	var out []fixture.Fixture
	for _, f := range r.fixtures {
		if fixture.IsLiveStatus(f.Status) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFixtureRepo) Upsert(_ context.Context, items []fixture.Fixture) error {
	r.fixtures = append(r.fixtures, items...)
	return nil
}

type fakeArtifactRepo struct {
	latest map[artifact.Kind]map[string]time.Time
}

func (r *fakeArtifactRepo) LatestCreatedByFixture(_ context.Context, kind artifact.Kind, fixtureIDs []string) (map[string]time.Time, error) {
	out := make(map[string]time.Time)
	for _, id := range fixtureIDs {
		if t, ok := r.latest[kind][id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

type markedTrigger struct {
	FixtureID string
	Phase     automation.Phase
}

type fakeMarker struct {
	mu     sync.Mutex
	marked []markedTrigger
	err    error
}

func (m *fakeMarker) MarkTriggered(_ context.Context, fixtureID string, phase automation.Phase, _ time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marked = append(m.marked, markedTrigger{FixtureID: fixtureID, Phase: phase})
	return nil
}

type fakeLogRepo struct {
	mu      sync.Mutex
	entries []automation.LogEntry
}

func (r *fakeLogRepo) Append(_ context.Context, entry automation.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeLogRepo) List(_ context.Context, _ automation.LogFilter) ([]automation.LogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]automation.LogEntry(nil), r.entries...), nil
}

func (r *fakeLogRepo) byOutcome(outcome automation.Outcome) []automation.LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []automation.LogEntry
	for _, e := range r.entries {
		if e.Outcome == outcome {
			out = append(out, e)
		}
	}
	return out
}

type fakeConfigRepo struct {
	cfg           automation.Config
	exists        bool
	lastRunStatus string
}

func (r *fakeConfigRepo) Get(_ context.Context) (automation.Config, bool, error) {
	return r.cfg, r.exists, nil
}

func (r *fakeConfigRepo) Save(_ context.Context, cfg automation.Config) error {
	r.cfg = cfg
	r.exists = true
	return nil
}

func (r *fakeConfigRepo) UpdateLastRun(_ context.Context, at time.Time, status string) error {
	r.cfg.LastRunAt = &at
	r.cfg.LastRunStatus = status
	return nil
}

type dispatchedCall struct {
	Method    string
	Phase     automation.Phase
	LeagueID  string
	FixtureID string
	Model     string
	Fixtures  int
}

type fakeDispatcher struct {
	mu            sync.Mutex
	calls         []dispatchedCall
	workflowErr   error
	predictionErr error
}

func (d *fakeDispatcher) TriggerWorkflow(_ context.Context, req automation.WorkflowRequest) (automation.DispatchResult, error) {
	d.mu.Lock()
	d.calls = append(d.calls, dispatchedCall{
		Method:   "workflow",
		Phase:    req.Phase,
		LeagueID: req.LeagueID,
		Fixtures: len(req.Fixtures),
	})
	d.mu.Unlock()
	if d.workflowErr != nil {
		return automation.DispatchResult{Endpoint: "/webhook/match-workflow"}, d.workflowErr
	}
	return automation.DispatchResult{Endpoint: "/webhook/match-workflow", StatusCode: 200, DurationMs: 12}, nil
}

func (d *fakeDispatcher) GeneratePrediction(_ context.Context, fixtureID, model string) (automation.DispatchResult, error) {
	d.mu.Lock()
	d.calls = append(d.calls, dispatchedCall{Method: "prediction", FixtureID: fixtureID, Model: model})
	d.mu.Unlock()
	if d.predictionErr != nil {
		return automation.DispatchResult{Endpoint: "/webhook/generate-prediction"}, d.predictionErr
	}
	return automation.DispatchResult{Endpoint: "/webhook/generate-prediction", StatusCode: 200, DurationMs: 40}, nil
}

func (d *fakeDispatcher) GenerateAnalysis(_ context.Context, fixtureID string) (automation.DispatchResult, error) {
	d.mu.Lock()
	d.calls = append(d.calls, dispatchedCall{Method: "analysis", FixtureID: fixtureID})
	d.mu.Unlock()
	return automation.DispatchResult{Endpoint: "/webhook/generate-analysis", StatusCode: 200, DurationMs: 55}, nil
}

func (d *fakeDispatcher) byMethod(method string) []dispatchedCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []dispatchedCall
	for _, c := range d.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

type stubIDGen struct{ id string }

func (g stubIDGen) NewID() (string, error) { return g.id, nil }

type automationTestEnv struct {
	svc        *AutomationService
	fixtures   *fakeFixtureRepo
	artifacts  *fakeArtifactRepo
	marker     *fakeMarker
	logs       *fakeLogRepo
	configRepo *fakeConfigRepo
	dispatcher *fakeDispatcher
}

func newAutomationTestEnv(t *testing.T, now time.Time, cfg automation.Config) *automationTestEnv {
	t.Helper()

	env := &automationTestEnv{
		fixtures:   &fakeFixtureRepo{},
		artifacts:  &fakeArtifactRepo{latest: map[artifact.Kind]map[string]time.Time{}},
		marker:     &fakeMarker{},
		logs:       &fakeLogRepo{},
		configRepo: &fakeConfigRepo{cfg: cfg, exists: true},
		dispatcher: &fakeDispatcher{},
	}

	configs := NewConfigService(env.configRepo, nil, 5*time.Minute, 7*time.Minute)
	env.svc = NewAutomationService(
		env.fixtures,
		env.artifacts,
		env.marker,
		env.logs,
		configs,
		env.dispatcher,
		stubIDGen{id: "run-test"},
		logging.NewNop(),
		AutomationOptions{BatchSize: 3, BatchDelay: 0, PredictionModel: "matchsight-v2"},
	)
	env.svc.now = func() time.Time { return now }
	env.svc.batch.sleep = func(time.Duration) {}

	return env
}

func TestRunGloballyDisabled(t *testing.T) {
	now := time.Date(2026, 3, 14, 14, 5, 0, 0, time.UTC)
	cfg := automation.DefaultConfig()
	cfg.Enabled = false

	env := newAutomationTestEnv(t, now, cfg)

	summary, err := env.svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.RunID != "run-test" {
		t.Fatalf("run id = %q", summary.RunID)
	}
	if len(summary.Phases) != 0 {
		t.Fatalf("disabled run should evaluate no phases, got %v", summary.Phases)
	}

	skipped := env.logs.byOutcome(automation.OutcomeSkipped)
	if len(skipped) != 1 || skipped[0].Message != "automation disabled" {
		t.Fatalf("expected one disabled-skip record, got %+v", skipped)
	}
	if env.configRepo.cfg.LastRunStatus != runStatusSkipped {
		t.Fatalf("last run status = %q, want skipped", env.configRepo.cfg.LastRunStatus)
	}
	if len(env.dispatcher.calls) != 0 {
		t.Fatalf("disabled run must not dispatch, got %v", env.dispatcher.calls)
	}
}

func TestRunPreMatchTriggersLeagueGroup(t *testing.T) {
	now := time.Date(2026, 3, 14, 14, 5, 0, 0, time.UTC)
	kickoff := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

	env := newAutomationTestEnv(t, now, automation.DefaultConfig())
	env.fixtures.fixtures = []fixture.Fixture{
		{ID: "f1", LeagueID: "epl", LeagueName: "Premier League", HomeTeam: "Arsenal", AwayTeam: "Spurs", KickoffAt: kickoff, Status: fixture.StatusScheduled},
		{ID: "f2", LeagueID: "epl", LeagueName: "Premier League", HomeTeam: "Leeds", AwayTeam: "Everton", KickoffAt: kickoff, Status: fixture.StatusScheduled},
		// Already triggered today, excluded.
		{ID: "f3", LeagueID: "epl", LeagueName: "Premier League", KickoffAt: kickoff, Status: fixture.StatusScheduled, PreMatchTriggeredAt: ptrTime(now.Add(-time.Hour))},
		// Kickoff outside the 50..60 minute lead, excluded.
		{ID: "f4", LeagueID: "epl", LeagueName: "Premier League", KickoffAt: now.Add(30 * time.Minute), Status: fixture.StatusScheduled},
	}

	summary, err := env.svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	pre := summary.Phases[automation.PhasePreMatch]
	if pre.Checked != 3 {
		t.Fatalf("pre-match checked = %d, want 3", pre.Checked)
	}
	if pre.Triggered != 2 {
		t.Fatalf("pre-match triggered = %d, want 2", pre.Triggered)
	}
	if pre.Errors != 0 {
		t.Fatalf("pre-match errors = %d, want 0", pre.Errors)
	}

	workflows := env.dispatcher.byMethod("workflow")
	var preCalls []dispatchedCall
	for _, c := range workflows {
		if c.Phase == automation.PhasePreMatch {
			preCalls = append(preCalls, c)
		}
	}
	if len(preCalls) != 1 {
		t.Fatalf("expected one league-group call, got %d", len(preCalls))
	}
	if preCalls[0].LeagueID != "epl" || preCalls[0].Fixtures != 2 {
		t.Fatalf("unexpected group call %+v", preCalls[0])
	}

	marked := map[string]bool{}
	for _, m := range env.marker.marked {
		if m.Phase == automation.PhasePreMatch {
			marked[m.FixtureID] = true
		}
	}
	if !marked["f1"] || !marked["f2"] || marked["f3"] || marked["f4"] {
		t.Fatalf("unexpected trigger marks %v", env.marker.marked)
	}

	if env.configRepo.cfg.LastRunStatus != runStatusSuccess {
		t.Fatalf("last run status = %q, want success", env.configRepo.cfg.LastRunStatus)
	}
}

func TestRunPredictionRetryAndStaleness(t *testing.T) {
	now := time.Date(2026, 3, 14, 14, 36, 0, 0, time.UTC)
	kickoff := now.Add(30 * time.Minute)

	cfg := automation.DefaultConfig()
	env := newAutomationTestEnv(t, now, cfg)

	windowOpen := predictionWindowOpenAt(kickoff, cfg)
	env.fixtures.fixtures = []fixture.Fixture{
		// Never triggered, no artifact: dispatched.
		{ID: "new", LeagueID: "epl", KickoffAt: kickoff, Status: fixture.StatusScheduled},
		// Triggered 3 minutes ago, assumed in flight: held back.
		{ID: "inflight", LeagueID: "epl", KickoffAt: kickoff, Status: fixture.StatusScheduled, PredictionTriggeredAt: ptrTime(now.Add(-3 * time.Minute))},
		// Triggered 15 minutes ago, artifact never arrived: retried.
		{ID: "retry", LeagueID: "epl", KickoffAt: kickoff, Status: fixture.StatusScheduled, PredictionTriggeredAt: ptrTime(now.Add(-15 * time.Minute))},
		// Fresh artifact: done.
		{ID: "fresh", LeagueID: "epl", KickoffAt: kickoff, Status: fixture.StatusScheduled},
		// Stale artifact from before the window opened: regenerated.
		{ID: "stale", LeagueID: "epl", KickoffAt: kickoff, Status: fixture.StatusScheduled},
	}
	env.artifacts.latest[artifact.KindPrediction] = map[string]time.Time{
		"fresh": windowOpen.Add(time.Minute),
		"stale": windowOpen.Add(-26 * time.Minute),
	}

	summary, err := env.svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	pred := summary.Phases[automation.PhasePrediction]
	if pred.Checked != 5 {
		t.Fatalf("prediction checked = %d, want 5", pred.Checked)
	}
	if pred.Triggered != 3 {
		t.Fatalf("prediction triggered = %d, want 3", pred.Triggered)
	}

	got := map[string]string{}
	for _, c := range env.dispatcher.byMethod("prediction") {
		got[c.FixtureID] = c.Model
	}
	for _, want := range []string{"new", "retry", "stale"} {
		if got[want] != "matchsight-v2" {
			t.Fatalf("fixture %s should be dispatched with the configured model, calls %v", want, got)
		}
	}
	if _, ok := got["inflight"]; ok {
		t.Fatal("in-flight fixture must not be re-dispatched")
	}
	if _, ok := got["fresh"]; ok {
		t.Fatal("fixture with a fresh prediction must not be re-dispatched")
	}
}

func TestRunAnalysisRequiresPrediction(t *testing.T) {
	now := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	fullTime := now.Add(-180 * time.Minute)

	env := newAutomationTestEnv(t, now, automation.DefaultConfig())
	env.fixtures.fixtures = []fixture.Fixture{
		{ID: "with-pred", LeagueID: "epl", KickoffAt: fullTime.Add(-105 * time.Minute), Status: fixture.StatusFinished, FinishedAt: ptrTime(fullTime)},
		{ID: "no-pred", LeagueID: "epl", KickoffAt: fullTime.Add(-105 * time.Minute), Status: fixture.StatusFinished, FinishedAt: ptrTime(fullTime)},
	}
	env.artifacts.latest[artifact.KindPrediction] = map[string]time.Time{
		"with-pred": fullTime.Add(-30 * time.Minute),
	}

	summary, err := env.svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	analysis := summary.Phases[automation.PhaseAnalysis]
	if analysis.Checked != 2 {
		t.Fatalf("analysis checked = %d, want 2", analysis.Checked)
	}
	if analysis.Triggered != 1 {
		t.Fatalf("analysis triggered = %d, want 1", analysis.Triggered)
	}

	calls := env.dispatcher.byMethod("analysis")
	if len(calls) != 1 || calls[0].FixtureID != "with-pred" {
		t.Fatalf("expected single analysis call for with-pred, got %v", calls)
	}
}

func TestRunPhaseFailureDoesNotBlockOthers(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 10, 0, 0, time.UTC)

	env := newAutomationTestEnv(t, now, automation.DefaultConfig())
	env.fixtures.liveErr = errors.New("live query failed")
	env.fixtures.fixtures = []fixture.Fixture{
		{ID: "f1", LeagueID: "epl", LeagueName: "Premier League", KickoffAt: now.Add(55 * time.Minute), Status: fixture.StatusScheduled},
	}

	summary, err := env.svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := summary.Phases[automation.PhaseLive].Errors; got != 1 {
		t.Fatalf("live errors = %d, want 1", got)
	}
	if got := summary.Phases[automation.PhasePreMatch].Triggered; got != 1 {
		t.Fatalf("pre-match should still trigger, got %d", got)
	}
	if env.configRepo.cfg.LastRunStatus != runStatusError {
		t.Fatalf("last run status = %q, want error", env.configRepo.cfg.LastRunStatus)
	}

	failures := env.logs.byOutcome(automation.OutcomeError)
	if len(failures) != 1 || failures[0].Phase != automation.PhaseLive {
		t.Fatalf("expected one live error record, got %+v", failures)
	}
}

func TestRunDisabledPhaseLogsSkip(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 10, 0, 0, time.UTC)
	cfg := automation.DefaultConfig()
	cfg.AnalysisEnabled = false

	env := newAutomationTestEnv(t, now, cfg)

	if _, err := env.svc.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	var analysisSkips int
	for _, e := range env.logs.byOutcome(automation.OutcomeSkipped) {
		if e.Phase == automation.PhaseAnalysis && e.Message == "phase disabled" {
			analysisSkips++
		}
	}
	if analysisSkips != 1 {
		t.Fatalf("expected one analysis skip record, got %d", analysisSkips)
	}
}

func TestRunCapsFixturesPerRun(t *testing.T) {
	now := time.Date(2026, 3, 14, 14, 36, 0, 0, time.UTC)

	cfg := automation.DefaultConfig()
	env := newAutomationTestEnv(t, now, cfg)
	for i := 0; i < 12; i++ {
		env.fixtures.fixtures = append(env.fixtures.fixtures, fixture.Fixture{
			ID:        fmt.Sprintf("f%02d", i),
			LeagueID:  "epl",
			KickoffAt: now.Add(30 * time.Minute),
			Status:    fixture.StatusScheduled,
		})
	}

	summary, err := env.svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	pred := summary.Phases[automation.PhasePrediction]
	if pred.Checked != 12 {
		t.Fatalf("prediction checked = %d, want 12", pred.Checked)
	}
	if pred.Triggered != cfg.MaxFixturesPerRun {
		t.Fatalf("prediction triggered = %d, want cap %d", pred.Triggered, cfg.MaxFixturesPerRun)
	}
	if calls := env.dispatcher.byMethod("prediction"); len(calls) != cfg.MaxFixturesPerRun {
		t.Fatalf("expected %d dispatches, got %d", cfg.MaxFixturesPerRun, len(calls))
	}
}

func TestRunDispatchErrorIsPerItem(t *testing.T) {
	now := time.Date(2026, 3, 14, 14, 5, 0, 0, time.UTC)

	env := newAutomationTestEnv(t, now, automation.DefaultConfig())
	env.dispatcher.workflowErr = errors.New("engine unavailable")
	env.fixtures.fixtures = []fixture.Fixture{
		{ID: "f1", LeagueID: "epl", LeagueName: "Premier League", KickoffAt: now.Add(55 * time.Minute), Status: fixture.StatusScheduled},
	}

	summary, err := env.svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run should not fail on dispatch errors: %v", err)
	}

	pre := summary.Phases[automation.PhasePreMatch]
	if pre.Errors != 1 || pre.Triggered != 0 {
		t.Fatalf("pre-match summary = %+v, want 1 error", pre)
	}

	// The marker fired before the dispatch failed, so the buffer now guards
	// against an immediate re-fire.
	if len(env.marker.marked) == 0 {
		t.Fatal("trigger timestamp must be written before dispatch")
	}
}
