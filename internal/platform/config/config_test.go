package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.TickRate != 100*time.Millisecond {
		t.Errorf("tick rate = %s, want 100ms", cfg.TickRate)
	}
	if cfg.RaidCheckEvery != 600 || cfg.NarrativeEvery != 300 {
		t.Errorf("cadences = %d/%d", cfg.RaidCheckEvery, cfg.NarrativeEvery)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.NarratorEnabled() {
		t.Error("narrator should be off without a key")
	}
}

func TestLoadReadsDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("DRILL_GAME_ID=soak\nDRILL_TICK_RATE=50ms\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DRILL_SEED", "42")
	t.Cleanup(func() {
		os.Unsetenv("DRILL_GAME_ID")
		os.Unsetenv("DRILL_TICK_RATE")
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GameID != "soak" || cfg.TickRate != 50*time.Millisecond || cfg.Seed != 42 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.TickRate = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero tick rate")
	}
	cfg = Default()
	cfg.MaxClients = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero client limit")
	}
}
