package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_PORT", "SIM_STEP_SECONDS", "SIM_MIN_SUBSTEPS", "MAX_SHOT_SECONDS", "MIGRATE_ON_START", "SESSION_TTL_MINUTES"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.StepSeconds != 0.01 || cfg.MinSubsteps != 15 {
		t.Errorf("unexpected step settings %v/%d", cfg.StepSeconds, cfg.MinSubsteps)
	}
	if cfg.MaxShotSeconds != 60 {
		t.Errorf("expected 60s shot limit, got %v", cfg.MaxShotSeconds)
	}
	if !cfg.MigrateOnStart {
		t.Error("expected migrations on start by default")
	}
	if cfg.SessionTTL() != 2*time.Hour {
		t.Errorf("expected 2h session ttl, got %s", cfg.SessionTTL())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SIM_STEP_SECONDS", "0.005")
	t.Setenv("SIM_MIN_SUBSTEPS", "30")
	t.Setenv("RACK_SEED", "77")
	t.Setenv("MIGRATE_ON_START", "false")
	t.Setenv("MAX_SHOT_SECONDS", "not-a-number")

	cfg := Load()

	if cfg.StepSeconds != 0.005 {
		t.Errorf("expected step 0.005, got %v", cfg.StepSeconds)
	}
	if cfg.MinSubsteps != 30 {
		t.Errorf("expected 30 substeps, got %d", cfg.MinSubsteps)
	}
	if cfg.RackSeed != 77 {
		t.Errorf("expected seed 77, got %d", cfg.RackSeed)
	}
	if cfg.MigrateOnStart {
		t.Error("expected MIGRATE_ON_START=false to disable migrations")
	}
	if cfg.MaxShotSeconds != 60 {
		t.Errorf("invalid value should fall back to default, got %v", cfg.MaxShotSeconds)
	}
}
