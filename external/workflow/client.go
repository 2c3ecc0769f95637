package workflow

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/matchsight/matchsight/internal/domain/automation"
	"github.com/matchsight/matchsight/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var errWorkflowTransient = crerr.New("workflow transient failure")

const maxResponseBytes = 4096

type ClientConfig struct {
	TriggerURL     string
	PredictionURL  string
	AnalysisURL    string
	Secret         string
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client invokes the external workflow engine over HTTP. The timeout is
// generous because downstream AI generation is slow; a call that exceeds it
// is an error result, never a pending dispatch.
type Client struct {
	client         *http.Client
	triggerURL     string
	predictionURL  string
	analysisURL    string
	secret         string
	logger         *slog.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		client:         &http.Client{Timeout: timeout},
		triggerURL:     strings.TrimSpace(cfg.TriggerURL),
		predictionURL:  strings.TrimSpace(cfg.PredictionURL),
		analysisURL:    strings.TrimSpace(cfg.AnalysisURL),
		secret:         strings.TrimSpace(cfg.Secret),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type workflowFixturePayload struct {
	ID        string    `json:"id"`
	HomeTeam  string    `json:"homeTeam"`
	AwayTeam  string    `json:"awayTeam"`
	KickoffAt time.Time `json:"kickoffAt"`
}

type workflowTriggerPayload struct {
	Phase        string                   `json:"phase"`
	LeagueID     string                   `json:"leagueId"`
	LeagueName   string                   `json:"leagueName"`
	FixtureCount int                      `json:"fixtureCount"`
	Fixtures     []workflowFixturePayload `json:"fixtures,omitempty"`
}

type generatePayload struct {
	FixtureID string `json:"fixtureId"`
	Model     string `json:"model,omitempty"`
}

// TriggerWorkflow sends one league-grouped call. Pre-match carries the full
// fixture list; live and post-match only need the league and a count.
func (c *Client) TriggerWorkflow(ctx context.Context, req automation.WorkflowRequest) (automation.DispatchResult, error) {
	payload := workflowTriggerPayload{
		Phase:        string(req.Phase),
		LeagueID:     req.LeagueID,
		LeagueName:   req.LeagueName,
		FixtureCount: len(req.Fixtures),
	}
	if req.Phase == automation.PhasePreMatch {
		payload.Fixtures = make([]workflowFixturePayload, 0, len(req.Fixtures))
		for _, f := range req.Fixtures {
			payload.Fixtures = append(payload.Fixtures, workflowFixturePayload{
				ID:        f.ID,
				HomeTeam:  f.HomeTeam,
				AwayTeam:  f.AwayTeam,
				KickoffAt: f.KickoffAt,
			})
		}
	}

	return c.post(ctx, c.triggerURL, payload)
}

func (c *Client) GeneratePrediction(ctx context.Context, fixtureID, model string) (automation.DispatchResult, error) {
	return c.post(ctx, c.predictionURL, generatePayload{FixtureID: fixtureID, Model: model})
}

func (c *Client) GenerateAnalysis(ctx context.Context, fixtureID string) (automation.DispatchResult, error) {
	return c.post(ctx, c.analysisURL, generatePayload{FixtureID: fixtureID})
}

func (c *Client) post(ctx context.Context, endpoint string, payload any) (automation.DispatchResult, error) {
	result := automation.DispatchResult{Endpoint: endpoint}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "workflow circuit breaker rejected request", "state", c.breaker.State(), "endpoint", endpoint)
			return result, fmt.Errorf("workflow engine is temporarily unavailable: %w", err)
		}
	}

	validated, err := validateHTTPURL(endpoint)
	if err != nil {
		return result, crerr.Wrap(err, "invalid workflow endpoint")
	}
	result.Endpoint = validated

	body, err := sonic.Marshal(payload)
	if err != nil {
		return result, crerr.Wrap(err, "marshal workflow payload")
	}
	bodyText := truncateForLog(string(body), maxResponseBytes)
	curlPreview := buildCurlPreview(validated, bodyText, c.secret != "")

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("workflow.endpoint", validated),
			attribute.String("workflow.request_body", bodyText),
			attribute.String("workflow.request_curl_preview", curlPreview),
		)
	}
	c.logger.InfoContext(ctx, "workflow dispatch request", "endpoint", validated, "curl_preview", curlPreview)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, validated, strings.NewReader(string(body)))
	if err != nil {
		return result, crerr.Wrap(err, "create workflow request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.secret != "" {
		req.Header.Set("X-Workflow-Secret", c.secret)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	result.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		callErr := fmt.Errorf("%w: dispatch workflow endpoint=%s: %v", errWorkflowTransient, validated, err)
		c.recordCircuitResult(callErr)
		return result, callErr
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	result.StatusCode = resp.StatusCode
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	result.Response = normalizeResponseBody(raw)

	if resp.StatusCode/100 != 2 {
		if isRetryableStatus(resp.StatusCode) {
			callErr := fmt.Errorf("%w: dispatch workflow status=%d endpoint=%s body=%s", errWorkflowTransient, resp.StatusCode, validated, result.Response)
			c.recordCircuitResult(callErr)
			return result, callErr
		}

		callErr := fmt.Errorf("dispatch workflow status=%d endpoint=%s body=%s", resp.StatusCode, validated, result.Response)
		c.recordCircuitResult(callErr)
		return result, callErr
	}

	c.logger.InfoContext(ctx, "workflow dispatched", "endpoint", validated, "status", resp.StatusCode, "duration_ms", result.DurationMs)
	c.recordCircuitResult(nil)
	return result, nil
}

// normalizeResponseBody compacts a JSON answer, or falls back to the raw
// trimmed text when the engine did not answer JSON.
func normalizeResponseBody(raw []byte) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return ""
	}

	var decoded any
	if err := sonic.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return trimmed
	}
	compacted, err := sonic.Marshal(decoded)
	if err != nil {
		return trimmed
	}
	return string(compacted)
}

func validateHTTPURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return candidate, nil
}

func buildCurlPreview(endpoint, body string, withSecret bool) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}

	appendPart("curl")
	appendPart("-X")
	appendPart("POST")
	appendPart(shellQuote(endpoint))
	appendPart("-H")
	appendPart(shellQuote("Content-Type: application/json"))
	if withSecret {
		appendPart("-H")
		appendPart(shellQuote("X-Workflow-Secret: ***"))
	}
	appendPart("-d")
	appendPart(shellQuote(body))

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}

func (c *Client) recordCircuitResult(err error) {
	if !c.circuitEnabled || c.breaker == nil {
		return
	}
	if err == nil {
		c.breaker.RecordSuccess()
		return
	}
	if stderrors.Is(err, errWorkflowTransient) {
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}
