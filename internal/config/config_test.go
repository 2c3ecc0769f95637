package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.AppEnv != EnvDev {
		t.Fatalf("expected dev env, got %q", cfg.AppEnv)
	}
	if cfg.ServiceName != "matchsight-api" {
		t.Fatalf("unexpected service name %q", cfg.ServiceName)
	}
	if cfg.CacheTTL != 60*time.Second {
		t.Fatalf("unexpected cache ttl %s", cfg.CacheTTL)
	}
	if cfg.WorkflowTimeout != 5*time.Minute {
		t.Fatalf("unexpected workflow timeout %s", cfg.WorkflowTimeout)
	}
	if cfg.DispatchBatch != 3 {
		t.Fatalf("unexpected dispatch batch %d", cfg.DispatchBatch)
	}
	if cfg.DispatchDelay != time.Second {
		t.Fatalf("unexpected dispatch delay %s", cfg.DispatchDelay)
	}
	if cfg.RetryBuffer != 7*time.Minute {
		t.Fatalf("unexpected retry buffer %s", cfg.RetryBuffer)
	}
	if cfg.PredictionModel != "matchsight-v2" {
		t.Fatalf("unexpected prediction model %q", cfg.PredictionModel)
	}
	if !strings.HasPrefix(cfg.WorkflowTriggerURL, "http://localhost:5678/") {
		t.Fatalf("unexpected workflow trigger url %q", cfg.WorkflowTriggerURL)
	}
}

func TestLoadInvalidAppEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid APP_ENV")
	}
}

func TestLoadRetryBufferMustExceedPollInterval(t *testing.T) {
	t.Setenv("AUTOMATION_POLL_INTERVAL", "10m")
	t.Setenv("AUTOMATION_RETRY_BUFFER", "7m")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when retry buffer <= poll interval")
	}
}

func TestLoadUptraceRequiresDSN(t *testing.T) {
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when uptrace enabled without DSN")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("ADMIN_API_KEY", "secret-key")
	t.Setenv("AUTOMATION_DISPATCH_BATCH", "5")
	t.Setenv("WORKFLOW_TRIGGER_URL", "https://flows.internal/webhook/match")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.AppEnv != EnvProd {
		t.Fatalf("expected prod env, got %q", cfg.AppEnv)
	}
	if cfg.AdminAPIKey != "secret-key" {
		t.Fatalf("unexpected admin key %q", cfg.AdminAPIKey)
	}
	if cfg.DispatchBatch != 5 {
		t.Fatalf("unexpected dispatch batch %d", cfg.DispatchBatch)
	}
	if cfg.WorkflowTriggerURL != "https://flows.internal/webhook/match" {
		t.Fatalf("unexpected workflow trigger url %q", cfg.WorkflowTriggerURL)
	}
}
