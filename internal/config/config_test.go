package config

import (
	"testing"
	"time"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when JWT_SECRET is missing")
	}
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("RATE_QUERY_OVERDUE_HOURS", "48")
	t.Setenv("QUOTE_L2_MARGIN_BELOW", "7.5")
	t.Setenv("REFRESH_DELAY_MS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Workflow.OverdueAfter != 48*time.Hour {
		t.Errorf("OverdueAfter = %v, want 48h", cfg.Workflow.OverdueAfter)
	}
	if cfg.Workflow.L2MarginBelow != 7.5 {
		t.Errorf("L2MarginBelow = %v, want 7.5", cfg.Workflow.L2MarginBelow)
	}
	if cfg.Workflow.RefreshDelay != 750*time.Millisecond {
		t.Errorf("RefreshDelay should fall back to default on bad input, got %v", cfg.Workflow.RefreshDelay)
	}
	if cfg.Workflow.HighUrgencyMarginBelow != 10 {
		t.Errorf("HighUrgencyMarginBelow = %v, want 10", cfg.Workflow.HighUrgencyMarginBelow)
	}
}
