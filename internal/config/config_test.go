package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.RequestTimeout != 60*time.Second {
		t.Fatalf("expected 60s request timeout, got %s", cfg.RequestTimeout)
	}
	if cfg.AutoAcceptDelay != 10*time.Second {
		t.Fatalf("expected 10s auto-accept delay, got %s", cfg.AutoAcceptDelay)
	}
	if cfg.Cooldown != 30*time.Second {
		t.Fatalf("expected 30s cooldown, got %s", cfg.Cooldown)
	}
	if cfg.MaxSessions != 0 {
		t.Fatalf("expected unlimited sessions, got %d", cfg.MaxSessions)
	}
	if cfg.MaxPeekDistance != 64 {
		t.Fatalf("expected 64 max distance, got %f", cfg.MaxPeekDistance)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "2m")
	t.Setenv("MAX_SESSIONS", "5")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.RequestTimeout != 2*time.Minute {
		t.Fatalf("expected 2m, got %s", cfg.RequestTimeout)
	}
	if cfg.MaxSessions != 5 {
		t.Fatalf("expected 5, got %d", cfg.MaxSessions)
	}
}

func TestFileOverlayPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peekd.yaml")
	if err := os.WriteFile(path, []byte("cooldown: 45s\nmax_peek_distance: 32\n"), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	t.Setenv("PEEKD_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Cooldown != 45*time.Second {
		t.Fatalf("expected 45s cooldown from file, got %s", cfg.Cooldown)
	}
	if cfg.MaxPeekDistance != 32 {
		t.Fatalf("expected 32 from file, got %f", cfg.MaxPeekDistance)
	}
	// Knobs the file omits keep their environment defaults.
	if cfg.RequestTimeout != 60*time.Second {
		t.Fatalf("expected 60s default, got %s", cfg.RequestTimeout)
	}
}

func TestReloadPicksUpChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peekd.yaml")
	if err := os.WriteFile(path, []byte("cooldown: 45s\n"), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	t.Setenv("PEEKD_CONFIG", path)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if err := os.WriteFile(path, []byte("cooldown: 90s\n"), 0o644); err != nil {
		t.Fatalf("rewrite overlay: %v", err)
	}
	next, err := cfg.Reload()
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if next.Cooldown != 90*time.Second {
		t.Fatalf("expected 90s after reload, got %s", next.Cooldown)
	}
	if cfg.Cooldown != 45*time.Second {
		t.Fatal("reload must not mutate the original config")
	}
}

func TestInvalidPolicyRuleRejected(t *testing.T) {
	t.Setenv("POLICY_RULE", "distance > ")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed rule")
	}
}

func TestEngineConfigCompilesRule(t *testing.T) {
	t.Setenv("POLICY_RULE", "distance < 16")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	ec, err := cfg.EngineConfig()
	if err != nil {
		t.Fatalf("engine config failed: %v", err)
	}
	if ec.Rule == nil {
		t.Fatal("expected compiled rule")
	}
	if ec.RequestTimeout != cfg.RequestTimeout || ec.MaxDistance != cfg.MaxPeekDistance {
		t.Fatal("engine config must mirror lifecycle knobs")
	}
}
