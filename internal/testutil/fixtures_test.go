package testutil

import (
	"testing"
	"time"

	"github.com/firefly-engineering/fersk/internal/config"
)

func TestLoadValidConfig(t *testing.T) {
	cfg, err := config.Load(ValidConfigPath(t))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.WorkPath != "/var/tmp/fersk-fixture" {
		t.Errorf("WorkPath = %q, want %q", cfg.WorkPath, "/var/tmp/fersk-fixture")
	}
	if !cfg.IncludeUncommitted {
		t.Error("IncludeUncommitted should be true")
	}
	if cfg.Submodules {
		t.Error("Submodules should be false")
	}
	if cfg.KillDelay != 2*time.Second {
		t.Errorf("KillDelay = %s, want 2s", cfg.KillDelay)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	if _, err := config.Load(InvalidConfigPath(t)); err == nil {
		t.Error("invalid config should fail to load")
	}
}

func TestLoadFixture_Missing(t *testing.T) {
	if _, err := LoadFixture("nope.toml"); err == nil {
		t.Error("LoadFixture should fail for a missing fixture")
	}
}
