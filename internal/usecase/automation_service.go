package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/matchsight/matchsight/internal/domain/artifact"
	"github.com/matchsight/matchsight/internal/domain/automation"
	"github.com/matchsight/matchsight/internal/domain/fixture"
	"github.com/matchsight/matchsight/internal/platform/id"
	"github.com/matchsight/matchsight/internal/platform/logging"
)

const (
	runStatusSuccess = "success"
	runStatusError   = "error"
	runStatusSkipped = "skipped"
)

type PhaseSummary struct {
	Checked   int `json:"checked"`
	Triggered int `json:"triggered"`
	Errors    int `json:"errors"`
}

type RunSummary struct {
	RunID      string                            `json:"runId"`
	StartedAt  time.Time                         `json:"startedAt"`
	DurationMs int64                             `json:"durationMs"`
	Phases     map[automation.Phase]PhaseSummary `json:"perPhase"`
}

// AutomationOptions carries the dispatch tunables that come from the
// environment rather than the stored automation config.
type AutomationOptions struct {
	BatchSize       int
	BatchDelay      time.Duration
	PredictionModel string
}

// AutomationService is the scheduler entry point. It is stateless by
// design: every invocation reloads config and fixture state, so all memory
// of past decisions lives in the database and correctness survives the
// process being recreated between runs.
type AutomationService struct {
	fixtures   fixture.Repository
	artifacts  artifact.Repository
	marker     automation.TriggerMarker
	logs       automation.LogRepository
	configs    *ConfigService
	dispatcher automation.Dispatcher
	idGen      id.Generator
	logger     *logging.Logger
	batch      *batchExecutor
	model      string
	now        func() time.Time
}

func NewAutomationService(
	fixtures fixture.Repository,
	artifacts artifact.Repository,
	marker automation.TriggerMarker,
	logs automation.LogRepository,
	configs *ConfigService,
	dispatcher automation.Dispatcher,
	idGen id.Generator,
	logger *logging.Logger,
	opts AutomationOptions,
) *AutomationService {
	if logger == nil {
		logger = logging.Default()
	}
	return &AutomationService{
		fixtures:   fixtures,
		artifacts:  artifacts,
		marker:     marker,
		logs:       logs,
		configs:    configs,
		dispatcher: dispatcher,
		idGen:      idGen,
		logger:     logger,
		batch:      newBatchExecutor(opts.BatchSize, opts.BatchDelay),
		model:      opts.PredictionModel,
		now:        time.Now,
	}
}

// Run evaluates all five phases once and returns a per-phase summary. The
// phases run independently: a failure or panic in one never blocks the
// rest, and dispatch errors surface only in the summary and the log
// records, never as a returned error.
func (s *AutomationService) Run(ctx context.Context) (RunSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AutomationService.Run")
	defer span.End()

	startedAt := s.now().UTC()
	runID, err := s.idGen.NewID()
	if err != nil {
		return RunSummary{}, fmt.Errorf("generate run id: %w", err)
	}

	summary := RunSummary{
		RunID:     runID,
		StartedAt: startedAt,
		Phases:    make(map[automation.Phase]PhaseSummary, len(automation.Phases())),
	}

	cfg, err := s.configs.Resolve(ctx)
	if err != nil {
		return RunSummary{}, fmt.Errorf("resolve automation config: %w", err)
	}

	if !cfg.Enabled {
		s.appendLog(ctx, automation.LogEntry{
			RunID:   runID,
			Outcome: automation.OutcomeSkipped,
			Message: "automation disabled",
		})
		s.recordLastRun(ctx, startedAt, runStatusSkipped)
		summary.DurationMs = s.now().UTC().Sub(startedAt).Milliseconds()
		return summary, nil
	}

	hadErrors := false
	for _, phase := range automation.Phases() {
		result := s.runPhase(ctx, runID, phase, cfg)
		summary.Phases[phase] = result
		if result.Errors > 0 {
			hadErrors = true
		}
	}

	status := runStatusSuccess
	if hadErrors {
		status = runStatusError
	}
	s.recordLastRun(ctx, startedAt, status)

	summary.DurationMs = s.now().UTC().Sub(startedAt).Milliseconds()
	s.logger.InfoContext(ctx, "automation run finished",
		"run_id", runID,
		"status", status,
		"duration_ms", summary.DurationMs,
	)

	return summary, nil
}

// runPhase wraps one phase end to end, including panic isolation so a bug
// in one phase's evaluation cannot take the others down with it.
func (s *AutomationService) runPhase(ctx context.Context, runID string, phase automation.Phase, cfg automation.Config) (out PhaseSummary) {
	defer func() {
		if r := recover(); r != nil {
			out.Errors++
			s.logger.ErrorContext(ctx, "automation phase panicked", "phase", phase, "panic", r)
			s.appendLog(ctx, automation.LogEntry{
				RunID:   runID,
				Phase:   phase,
				Outcome: automation.OutcomeError,
				Message: fmt.Sprintf("panic: %v", r),
			})
		}
	}()

	if !cfg.EnabledFor(phase) {
		s.appendLog(ctx, automation.LogEntry{
			RunID:   runID,
			Phase:   phase,
			Outcome: automation.OutcomeSkipped,
			Message: "phase disabled",
		})
		return out
	}

	switch phase {
	case automation.PhasePreMatch:
		return s.runPreMatch(ctx, runID, cfg)
	case automation.PhasePrediction:
		return s.runPrediction(ctx, runID, cfg)
	case automation.PhaseLive:
		return s.runLive(ctx, runID, cfg)
	case automation.PhasePostMatch:
		return s.runPostMatch(ctx, runID, cfg)
	case automation.PhaseAnalysis:
		return s.runAnalysis(ctx, runID, cfg)
	default:
		return out
	}
}

func (s *AutomationService) runPreMatch(ctx context.Context, runID string, cfg automation.Config) PhaseSummary {
	now := s.now().UTC()
	win := preMatchKickoffWindow(now, cfg)

	candidates, err := s.fixtures.ListKickoffBetween(ctx, win.Open, win.Close)
	if err != nil {
		return s.phaseEvalError(ctx, runID, automation.PhasePreMatch, fmt.Errorf("list kickoff window: %w", err))
	}

	out := PhaseSummary{Checked: len(candidates)}

	eligible := make([]fixture.Fixture, 0, len(candidates))
	for _, f := range candidates {
		if preMatchEligible(f.PreMatchTriggeredAt, now) {
			eligible = append(eligible, f)
		}
	}
	eligible = capFixtures(eligible, cfg.MaxFixturesPerRun)
	if len(eligible) == 0 {
		s.appendNoAction(ctx, runID, automation.PhasePreMatch)
		return out
	}

	s.dispatchLeagueGroups(ctx, runID, automation.PhasePreMatch, eligible, true, &out)
	return out
}

func (s *AutomationService) runPrediction(ctx context.Context, runID string, cfg automation.Config) PhaseSummary {
	now := s.now().UTC()
	win := predictionKickoffWindow(now, cfg)

	candidates, err := s.fixtures.ListKickoffBetween(ctx, win.Open, win.Close)
	if err != nil {
		return s.phaseEvalError(ctx, runID, automation.PhasePrediction, fmt.Errorf("list kickoff window: %w", err))
	}

	out := PhaseSummary{Checked: len(candidates)}
	if len(candidates) == 0 {
		s.appendNoAction(ctx, runID, automation.PhasePrediction)
		return out
	}

	latest, err := s.artifacts.LatestCreatedByFixture(ctx, artifact.KindPrediction, fixtureIDs(candidates))
	if err != nil {
		return s.phaseEvalError(ctx, runID, automation.PhasePrediction, fmt.Errorf("load prediction artifacts: %w", err))
	}

	buffer := time.Duration(cfg.RetryBufferMinutes) * time.Minute
	eligible := make([]fixture.Fixture, 0, len(candidates))
	for _, f := range candidates {
		open := predictionWindowOpenAt(f.KickoffAt, cfg)
		if artifactPhaseEligible(f.PredictionTriggeredAt, lookupTime(latest, f.ID), open, now, buffer) {
			eligible = append(eligible, f)
		}
	}
	eligible = capFixtures(eligible, cfg.MaxFixturesPerRun)
	if len(eligible) == 0 {
		s.appendNoAction(ctx, runID, automation.PhasePrediction)
		return out
	}

	items := make([]batchItem, 0, len(eligible))
	for _, f := range eligible {
		f := f
		items = append(items, batchItem{Key: f.ID, Run: func(ctx context.Context) error {
			if err := s.marker.MarkTriggered(ctx, f.ID, automation.PhasePrediction, s.now().UTC()); err != nil {
				s.appendDispatchLog(ctx, runID, automation.PhasePrediction, []string{f.ID}, automation.DispatchResult{}, err)
				return fmt.Errorf("mark prediction trigger: %w", err)
			}
			res, err := s.dispatcher.GeneratePrediction(ctx, f.ID, s.model)
			s.appendDispatchLog(ctx, runID, automation.PhasePrediction, []string{f.ID}, res, err)
			return err
		}})
	}

	s.executeBatches(ctx, runID, automation.PhasePrediction, items, nil, &out)
	return out
}

func (s *AutomationService) runLive(ctx context.Context, runID string, cfg automation.Config) PhaseSummary {
	candidates, err := s.fixtures.ListLive(ctx)
	if err != nil {
		return s.phaseEvalError(ctx, runID, automation.PhaseLive, fmt.Errorf("list live fixtures: %w", err))
	}

	out := PhaseSummary{Checked: len(candidates)}
	candidates = capFixtures(candidates, cfg.MaxFixturesPerRun)
	if len(candidates) == 0 {
		s.appendNoAction(ctx, runID, automation.PhaseLive)
		return out
	}

	s.dispatchLeagueGroups(ctx, runID, automation.PhaseLive, candidates, false, &out)
	return out
}

func (s *AutomationService) runPostMatch(ctx context.Context, runID string, cfg automation.Config) PhaseSummary {
	now := s.now().UTC()
	win := postMatchFullTimeWindow(now, cfg)

	candidates, err := s.fixtures.ListFinishedBetween(ctx, win.Open, win.Close)
	if err != nil {
		return s.phaseEvalError(ctx, runID, automation.PhasePostMatch, fmt.Errorf("list full-time window: %w", err))
	}

	out := PhaseSummary{Checked: len(candidates)}
	candidates = capFixtures(candidates, cfg.MaxFixturesPerRun)
	if len(candidates) == 0 {
		s.appendNoAction(ctx, runID, automation.PhasePostMatch)
		return out
	}

	s.dispatchLeagueGroups(ctx, runID, automation.PhasePostMatch, candidates, false, &out)
	return out
}

func (s *AutomationService) runAnalysis(ctx context.Context, runID string, cfg automation.Config) PhaseSummary {
	now := s.now().UTC()
	win := analysisFullTimeWindow(now, cfg)

	candidates, err := s.fixtures.ListFinishedBetween(ctx, win.Open, win.Close)
	if err != nil {
		return s.phaseEvalError(ctx, runID, automation.PhaseAnalysis, fmt.Errorf("list full-time window: %w", err))
	}

	out := PhaseSummary{Checked: len(candidates)}
	if len(candidates) == 0 {
		s.appendNoAction(ctx, runID, automation.PhaseAnalysis)
		return out
	}

	ids := fixtureIDs(candidates)
	predictions, err := s.artifacts.LatestCreatedByFixture(ctx, artifact.KindPrediction, ids)
	if err != nil {
		return s.phaseEvalError(ctx, runID, automation.PhaseAnalysis, fmt.Errorf("load prediction artifacts: %w", err))
	}
	analyses, err := s.artifacts.LatestCreatedByFixture(ctx, artifact.KindAnalysis, ids)
	if err != nil {
		return s.phaseEvalError(ctx, runID, automation.PhaseAnalysis, fmt.Errorf("load analysis artifacts: %w", err))
	}

	buffer := time.Duration(cfg.RetryBufferMinutes) * time.Minute
	eligible := make([]fixture.Fixture, 0, len(candidates))
	for _, f := range candidates {
		if f.FinishedAt == nil {
			continue
		}
		// Analysis consumes the prediction, so a fixture without one is
		// never eligible regardless of timing.
		if _, hasPrediction := predictions[f.ID]; !hasPrediction {
			continue
		}
		open := analysisWindowOpenAt(*f.FinishedAt, cfg)
		if artifactPhaseEligible(f.AnalysisTriggeredAt, lookupTime(analyses, f.ID), open, now, buffer) {
			eligible = append(eligible, f)
		}
	}
	eligible = capFixtures(eligible, cfg.MaxFixturesPerRun)
	if len(eligible) == 0 {
		s.appendNoAction(ctx, runID, automation.PhaseAnalysis)
		return out
	}

	items := make([]batchItem, 0, len(eligible))
	for _, f := range eligible {
		f := f
		items = append(items, batchItem{Key: f.ID, Run: func(ctx context.Context) error {
			if err := s.marker.MarkTriggered(ctx, f.ID, automation.PhaseAnalysis, s.now().UTC()); err != nil {
				s.appendDispatchLog(ctx, runID, automation.PhaseAnalysis, []string{f.ID}, automation.DispatchResult{}, err)
				return fmt.Errorf("mark analysis trigger: %w", err)
			}
			res, err := s.dispatcher.GenerateAnalysis(ctx, f.ID)
			s.appendDispatchLog(ctx, runID, automation.PhaseAnalysis, []string{f.ID}, res, err)
			return err
		}})
	}

	s.executeBatches(ctx, runID, automation.PhaseAnalysis, items, nil, &out)
	return out
}

// dispatchLeagueGroups sends one workflow call per league covering all of
// that league's eligible fixtures. When mark is set the per-fixture trigger
// timestamp is written before the call goes out, so a crash mid-dispatch
// still blocks an immediate re-fire.
func (s *AutomationService) dispatchLeagueGroups(ctx context.Context, runID string, phase automation.Phase, eligible []fixture.Fixture, mark bool, out *PhaseSummary) {
	groups := groupByLeague(eligible)
	sizes := make(map[string]int, len(groups))

	items := make([]batchItem, 0, len(groups))
	for _, g := range groups {
		g := g
		sizes[g.LeagueID] = len(g.Fixtures)
		items = append(items, batchItem{Key: g.LeagueID, Run: func(ctx context.Context) error {
			ids := fixtureIDs(g.Fixtures)
			if mark {
				for _, f := range g.Fixtures {
					if err := s.marker.MarkTriggered(ctx, f.ID, phase, s.now().UTC()); err != nil {
						s.appendDispatchLog(ctx, runID, phase, ids, automation.DispatchResult{}, err)
						return fmt.Errorf("mark %s trigger: %w", phase, err)
					}
				}
			}

			req := automation.WorkflowRequest{
				Phase:      phase,
				LeagueID:   g.LeagueID,
				LeagueName: g.LeagueName,
				Fixtures:   fixtureRefs(g.Fixtures),
			}
			res, err := s.dispatcher.TriggerWorkflow(ctx, req)
			s.appendDispatchLog(ctx, runID, phase, ids, res, err)
			return err
		}})
	}

	s.executeBatches(ctx, runID, phase, items, sizes, out)
}

// executeBatches runs the items and folds results into the summary. When
// sizes is non-nil each key counts for that many fixtures, otherwise one.
func (s *AutomationService) executeBatches(ctx context.Context, runID string, phase automation.Phase, items []batchItem, sizes map[string]int, out *PhaseSummary) {
	results, err := s.batch.Execute(ctx, items)
	if err != nil {
		got := s.phaseEvalError(ctx, runID, phase, err)
		out.Errors += got.Errors
		return
	}

	for _, r := range results {
		weight := 1
		if sizes != nil {
			weight = sizes[r.Key]
		}
		if r.Err != nil {
			out.Errors++
			continue
		}
		out.Triggered += weight
	}
}

func (s *AutomationService) phaseEvalError(ctx context.Context, runID string, phase automation.Phase, err error) PhaseSummary {
	s.logger.ErrorContext(ctx, "automation phase failed", "phase", phase, "error", err)
	s.appendLog(ctx, automation.LogEntry{
		RunID:   runID,
		Phase:   phase,
		Outcome: automation.OutcomeError,
		Message: err.Error(),
	})
	return PhaseSummary{Errors: 1}
}

func (s *AutomationService) appendNoAction(ctx context.Context, runID string, phase automation.Phase) {
	s.appendLog(ctx, automation.LogEntry{
		RunID:   runID,
		Phase:   phase,
		Outcome: automation.OutcomeNoAction,
		Message: "window empty",
	})
}

func (s *AutomationService) appendDispatchLog(ctx context.Context, runID string, phase automation.Phase, ids []string, res automation.DispatchResult, dispatchErr error) {
	entry := automation.LogEntry{
		RunID:      runID,
		Phase:      phase,
		FixtureIDs: ids,
		Endpoint:   res.Endpoint,
		StatusCode: res.StatusCode,
		DurationMs: res.DurationMs,
		Outcome:    automation.OutcomeSuccess,
		Message:    res.Response,
	}
	if dispatchErr != nil {
		entry.Outcome = automation.OutcomeError
		entry.Message = dispatchErr.Error()
	}
	s.appendLog(ctx, entry)
}

// appendLog never fails the caller: the log is evidence, and losing one
// record is better than failing a dispatch that already went out.
func (s *AutomationService) appendLog(ctx context.Context, entry automation.LogEntry) {
	entry.CreatedAt = s.now().UTC()
	if err := s.logs.Append(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "append automation log failed", "phase", entry.Phase, "error", err)
	}
}

func (s *AutomationService) recordLastRun(ctx context.Context, at time.Time, status string) {
	if err := s.configs.RecordLastRun(ctx, at, status); err != nil {
		s.logger.ErrorContext(ctx, "record last run failed", "error", err)
	}
}

func fixtureIDs(items []fixture.Fixture) []string {
	ids := make([]string, 0, len(items))
	for _, f := range items {
		ids = append(ids, f.ID)
	}
	return ids
}

func fixtureRefs(items []fixture.Fixture) []automation.FixtureRef {
	refs := make([]automation.FixtureRef, 0, len(items))
	for _, f := range items {
		refs = append(refs, automation.FixtureRef{
			ID:        f.ID,
			HomeTeam:  f.HomeTeam,
			AwayTeam:  f.AwayTeam,
			KickoffAt: f.KickoffAt,
		})
	}
	return refs
}

func lookupTime(m map[string]time.Time, key string) *time.Time {
	if t, ok := m[key]; ok {
		return &t
	}
	return nil
}
