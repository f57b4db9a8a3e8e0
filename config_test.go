package forme

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type fakeSink struct {
	events []EvidenceEvent
}

func (f *fakeSink) Record(ev EvidenceEvent) { f.events = append(f.events, ev) }

func TestDefaultConfigIsAlreadyWithinRange(t *testing.T) {
	sink := &fakeSink{}
	cfg := DefaultConfig().clamp(sink)
	if len(sink.events) != 0 {
		t.Fatalf("expected no clamp diagnostics for well-formed defaults, got %+v", sink.events)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("clamping the defaults should be a no-op")
	}
}

func TestConfigClampReportsCorrections(t *testing.T) {
	sink := &fakeSink{}
	cfg := DefaultConfig()
	cfg.MaxSpansPerRow = 0
	cfg.DiffEWMAAlpha = 5 // out of (0,1]
	cfg = cfg.clamp(sink)

	if cfg.MaxSpansPerRow != 1 {
		t.Errorf("expected MaxSpansPerRow clamped to 1, got %d", cfg.MaxSpansPerRow)
	}
	if cfg.DiffEWMAAlpha != 0.2 {
		t.Errorf("expected DiffEWMAAlpha clamped to 0.2, got %v", cfg.DiffEWMAAlpha)
	}
	if len(sink.events) != 2 {
		t.Fatalf("expected exactly 2 clamp diagnostics, got %d: %+v", len(sink.events), sink.events)
	}
}

func TestLoadConfigEnvOverridesDefaults(t *testing.T) {
	t.Setenv("FTUI_MOUSE", "true")
	t.Setenv("FTUI_MAX_SPANS_PER_ROW", "3")
	cfg := LoadConfig("", nil)
	if !cfg.MouseEnabled {
		t.Errorf("expected FTUI_MOUSE=true to enable mouse tracking")
	}
	if cfg.MaxSpansPerRow != 3 {
		t.Errorf("expected FTUI_MAX_SPANS_PER_ROW=3 to win, got %d", cfg.MaxSpansPerRow)
	}
}

func TestLoadConfigFileThenEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	toml := "ColorProfile = \"ansi256\"\nMaxSpansPerRow = 2\n"
	if err := os.WriteFile(path, []byte(toml), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	// File alone should win over the compiled-in default.
	cfg := LoadConfig(path, nil)
	if cfg.MaxSpansPerRow != 2 {
		t.Errorf("expected file value 2, got %d", cfg.MaxSpansPerRow)
	}

	// Env must still win over the file.
	t.Setenv("FTUI_MAX_SPANS_PER_ROW", "7")
	cfg = LoadConfig(path, nil)
	if cfg.MaxSpansPerRow != 7 {
		t.Errorf("expected env value 7 to override the file's 2, got %d", cfg.MaxSpansPerRow)
	}
}

func TestLoadConfigMissingFileFallsBackToDefaults(t *testing.T) {
	cfg := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"), nil)
	if cfg.GraphemeGCInterval != 30*time.Second {
		t.Errorf("expected an unreadable file path to silently fall back to defaults")
	}
}
