package forme

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// ColorProfileMode names how aggressively the presenter downgrades colors,
// independent of automatic TTY detection (a host can force a profile for
// recorded output).
type ColorProfileMode string

const (
	ColorProfileAuto     ColorProfileMode = "auto"
	ColorProfileTrueColor ColorProfileMode = "truecolor"
	ColorProfileANSI256  ColorProfileMode = "ansi256"
	ColorProfileANSI     ColorProfileMode = "ansi"
	ColorProfileAscii    ColorProfileMode = "ascii"
)

// Config is every tunable the kernel reads at startup. Every numeric field
// is clamped by LoadConfig: an out-of-range value produces a KindConfig
// diagnostic (via the supplied EvidenceSink, if any) and a clamped value,
// never a fatal startup error.
type Config struct {
	ColorProfile ColorProfileMode

	AltScreen     bool
	MouseEnabled  bool
	FocusEvents   bool
	BracketedPaste bool
	KittyKeyboard bool

	InlineMode     bool
	InlinePinnedRows int

	SpanTracking   bool
	MaxSpansPerRow int
	SpanMergeGap   int
	SpanGuardBand  int

	DiffHysteresisMargin float64
	DiffSwitchAfterN     int
	DiffEWMAAlpha        float64

	GraphemeGCInterval time.Duration

	ResizeSteadyWindow  time.Duration
	ResizeBurstWindow   time.Duration
	ResizeCooldown      time.Duration
	ResizeHardDeadline  time.Duration
	BurstEnterRate      int
	BurstExitRate       int
	RateWindowSize      time.Duration

	InputEscapeTimeout time.Duration
	InputMaxCSILen     int
	InputMaxOSCLen     int
	InputMaxDCSLen     int
	InputMaxPasteLen   int

	ClipboardEnabled bool
}

// DefaultConfig returns the kernel's compiled-in defaults.
func DefaultConfig() Config {
	return Config{
		ColorProfile:         ColorProfileAuto,
		AltScreen:            true,
		MouseEnabled:         false,
		FocusEvents:          false,
		BracketedPaste:       true,
		KittyKeyboard:        false,
		InlineMode:           false,
		InlinePinnedRows:     1,
		SpanTracking:         true,
		MaxSpansPerRow:       1,
		SpanMergeGap:         4,
		SpanGuardBand:        1,
		DiffHysteresisMargin: 1.1,
		DiffSwitchAfterN:     3,
		DiffEWMAAlpha:        0.2,
		GraphemeGCInterval:   30 * time.Second,
		ResizeSteadyWindow:   500 * time.Millisecond,
		ResizeBurstWindow:    80 * time.Millisecond,
		ResizeCooldown:       150 * time.Millisecond,
		ResizeHardDeadline:   100 * time.Millisecond,
		BurstEnterRate:       10,
		BurstExitRate:        3,
		RateWindowSize:       250 * time.Millisecond,
		InputEscapeTimeout:   50 * time.Millisecond,
		InputMaxCSILen:       256,
		InputMaxOSCLen:       4096,
		InputMaxDCSLen:       4096,
		InputMaxPasteLen:     1 << 20,
		ClipboardEnabled:     false,
	}
}

// LoadConfig builds a Config by layering, poorest precedence first: the
// compiled-in defaults, an optional TOML file at tomlPath (skipped if
// tomlPath is empty or unreadable), then FTUI_* environment variables,
// which win over everything. Invalid values are clamped; clamp decisions
// are reported to sink if non-nil.
func LoadConfig(tomlPath string, sink EvidenceSink) Config {
	cfg := DefaultConfig()

	if tomlPath != "" {
		var fileCfg Config
		if _, err := toml.DecodeFile(tomlPath, &fileCfg); err == nil {
			cfg = mergeTOMLConfig(cfg, fileCfg)
		}
	}

	cfg = applyConfigEnv(cfg)
	return cfg.clamp(sink)
}

// mergeTOMLConfig overlays any non-zero-valued field of file onto base.
// TOML decoding leaves fields the file didn't mention at their Go zero
// value, so a zero value is treated as "not specified" here.
func mergeTOMLConfig(base, file Config) Config {
	if file.ColorProfile != "" {
		base.ColorProfile = file.ColorProfile
	}
	if file.InlinePinnedRows != 0 {
		base.InlinePinnedRows = file.InlinePinnedRows
	}
	if file.MaxSpansPerRow != 0 {
		base.MaxSpansPerRow = file.MaxSpansPerRow
	}
	if file.SpanMergeGap != 0 {
		base.SpanMergeGap = file.SpanMergeGap
	}
	if file.SpanGuardBand != 0 {
		base.SpanGuardBand = file.SpanGuardBand
	}
	if file.DiffHysteresisMargin != 0 {
		base.DiffHysteresisMargin = file.DiffHysteresisMargin
	}
	if file.DiffSwitchAfterN != 0 {
		base.DiffSwitchAfterN = file.DiffSwitchAfterN
	}
	if file.DiffEWMAAlpha != 0 {
		base.DiffEWMAAlpha = file.DiffEWMAAlpha
	}
	if file.GraphemeGCInterval != 0 {
		base.GraphemeGCInterval = file.GraphemeGCInterval
	}
	if file.ResizeSteadyWindow != 0 {
		base.ResizeSteadyWindow = file.ResizeSteadyWindow
	}
	if file.ResizeBurstWindow != 0 {
		base.ResizeBurstWindow = file.ResizeBurstWindow
	}
	if file.ResizeCooldown != 0 {
		base.ResizeCooldown = file.ResizeCooldown
	}
	if file.ResizeHardDeadline != 0 {
		base.ResizeHardDeadline = file.ResizeHardDeadline
	}
	if file.BurstEnterRate != 0 {
		base.BurstEnterRate = file.BurstEnterRate
	}
	if file.BurstExitRate != 0 {
		base.BurstExitRate = file.BurstExitRate
	}
	if file.RateWindowSize != 0 {
		base.RateWindowSize = file.RateWindowSize
	}
	if file.InputEscapeTimeout != 0 {
		base.InputEscapeTimeout = file.InputEscapeTimeout
	}
	if file.InputMaxCSILen != 0 {
		base.InputMaxCSILen = file.InputMaxCSILen
	}
	if file.InputMaxOSCLen != 0 {
		base.InputMaxOSCLen = file.InputMaxOSCLen
	}
	if file.InputMaxDCSLen != 0 {
		base.InputMaxDCSLen = file.InputMaxDCSLen
	}
	if file.InputMaxPasteLen != 0 {
		base.InputMaxPasteLen = file.InputMaxPasteLen
	}
	// Booleans can't distinguish "unset" from "false" in TOML without a
	// pointer type; these follow the file only when a TOML table was
	// actually decoded (non-empty ColorProfile is used as that signal).
	if file.ColorProfile != "" {
		base.AltScreen = file.AltScreen
		base.MouseEnabled = file.MouseEnabled
		base.FocusEvents = file.FocusEvents
		base.BracketedPaste = file.BracketedPaste
		base.KittyKeyboard = file.KittyKeyboard
		base.InlineMode = file.InlineMode
		base.SpanTracking = file.SpanTracking
		base.ClipboardEnabled = file.ClipboardEnabled
	}
	return base
}

func envBool(key string, cur bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return cur
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return cur
	}
	return b
}

func envInt(key string, cur int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return cur
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return cur
	}
	return n
}

func envFloat(key string, cur float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok {
		return cur
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return cur
	}
	return f
}

func envDuration(key string, cur time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return cur
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return cur
	}
	return d
}

// applyConfigEnv reads FTUI_* environment variables, the highest-precedence
// layer, read once at process start.
func applyConfigEnv(cfg Config) Config {
	if v, ok := os.LookupEnv("FTUI_COLOR_PROFILE"); ok {
		cfg.ColorProfile = ColorProfileMode(v)
	}
	cfg.AltScreen = envBool("FTUI_ALT_SCREEN", cfg.AltScreen)
	cfg.MouseEnabled = envBool("FTUI_MOUSE", cfg.MouseEnabled)
	cfg.FocusEvents = envBool("FTUI_FOCUS_EVENTS", cfg.FocusEvents)
	cfg.BracketedPaste = envBool("FTUI_BRACKETED_PASTE", cfg.BracketedPaste)
	cfg.KittyKeyboard = envBool("FTUI_KITTY_KEYBOARD", cfg.KittyKeyboard)
	cfg.InlineMode = envBool("FTUI_INLINE_MODE", cfg.InlineMode)
	cfg.InlinePinnedRows = envInt("FTUI_INLINE_PINNED_ROWS", cfg.InlinePinnedRows)
	cfg.SpanTracking = envBool("FTUI_SPAN_TRACKING", cfg.SpanTracking)
	cfg.MaxSpansPerRow = envInt("FTUI_MAX_SPANS_PER_ROW", cfg.MaxSpansPerRow)
	cfg.SpanMergeGap = envInt("FTUI_SPAN_MERGE_GAP", cfg.SpanMergeGap)
	cfg.SpanGuardBand = envInt("FTUI_SPAN_GUARD_BAND", cfg.SpanGuardBand)
	cfg.DiffHysteresisMargin = envFloat("FTUI_DIFF_HYSTERESIS_MARGIN", cfg.DiffHysteresisMargin)
	cfg.DiffSwitchAfterN = envInt("FTUI_DIFF_SWITCH_AFTER_N", cfg.DiffSwitchAfterN)
	cfg.DiffEWMAAlpha = envFloat("FTUI_DIFF_EWMA_ALPHA", cfg.DiffEWMAAlpha)
	cfg.GraphemeGCInterval = envDuration("FTUI_GRAPHEME_GC_INTERVAL", cfg.GraphemeGCInterval)
	cfg.ResizeSteadyWindow = envDuration("FTUI_RESIZE_STEADY_WINDOW", cfg.ResizeSteadyWindow)
	cfg.ResizeBurstWindow = envDuration("FTUI_RESIZE_BURST_WINDOW", cfg.ResizeBurstWindow)
	cfg.ResizeCooldown = envDuration("FTUI_RESIZE_COOLDOWN", cfg.ResizeCooldown)
	cfg.ResizeHardDeadline = envDuration("FTUI_RESIZE_HARD_DEADLINE", cfg.ResizeHardDeadline)
	cfg.BurstEnterRate = envInt("FTUI_RESIZE_BURST_ENTER_RATE", cfg.BurstEnterRate)
	cfg.BurstExitRate = envInt("FTUI_RESIZE_BURST_EXIT_RATE", cfg.BurstExitRate)
	cfg.RateWindowSize = envDuration("FTUI_RESIZE_RATE_WINDOW", cfg.RateWindowSize)
	cfg.InputEscapeTimeout = envDuration("FTUI_INPUT_ESCAPE_TIMEOUT", cfg.InputEscapeTimeout)
	cfg.InputMaxCSILen = envInt("FTUI_INPUT_MAX_CSI_LEN", cfg.InputMaxCSILen)
	cfg.InputMaxOSCLen = envInt("FTUI_INPUT_MAX_OSC_LEN", cfg.InputMaxOSCLen)
	cfg.InputMaxDCSLen = envInt("FTUI_INPUT_MAX_DCS_LEN", cfg.InputMaxDCSLen)
	cfg.InputMaxPasteLen = envInt("FTUI_INPUT_MAX_PASTE_LEN", cfg.InputMaxPasteLen)
	cfg.ClipboardEnabled = envBool("FTUI_CLIPBOARD", cfg.ClipboardEnabled)
	return cfg
}

// clamp enforces every numeric tuning knob's valid range, reporting each
// correction to sink (if non-nil) as a KindConfig evidence event.
func (cfg Config) clamp(sink EvidenceSink) Config {
	report := func(field string, from, to any) {
		if sink == nil {
			return
		}
		sink.Record(EvidenceEvent{
			Component: "config",
			Kind:      KindConfig.String(),
			Fields:    map[string]any{"field": field, "from": from, "to": to},
		})
	}

	if cfg.MaxSpansPerRow < 1 {
		report("MaxSpansPerRow", cfg.MaxSpansPerRow, 1)
		cfg.MaxSpansPerRow = 1
	}
	if cfg.SpanMergeGap < 0 {
		report("SpanMergeGap", cfg.SpanMergeGap, 0)
		cfg.SpanMergeGap = 0
	}
	if cfg.SpanGuardBand < 0 {
		report("SpanGuardBand", cfg.SpanGuardBand, 0)
		cfg.SpanGuardBand = 0
	}
	if cfg.DiffHysteresisMargin < 1 {
		report("DiffHysteresisMargin", cfg.DiffHysteresisMargin, 1.1)
		cfg.DiffHysteresisMargin = 1.1
	}
	if cfg.DiffSwitchAfterN < 1 {
		report("DiffSwitchAfterN", cfg.DiffSwitchAfterN, 1)
		cfg.DiffSwitchAfterN = 1
	}
	if cfg.DiffEWMAAlpha <= 0 || cfg.DiffEWMAAlpha > 1 {
		report("DiffEWMAAlpha", cfg.DiffEWMAAlpha, 0.2)
		cfg.DiffEWMAAlpha = 0.2
	}
	if cfg.GraphemeGCInterval <= 0 {
		report("GraphemeGCInterval", cfg.GraphemeGCInterval, 30*time.Second)
		cfg.GraphemeGCInterval = 30 * time.Second
	}
	if cfg.ResizeSteadyWindow <= 0 {
		report("ResizeSteadyWindow", cfg.ResizeSteadyWindow, 500*time.Millisecond)
		cfg.ResizeSteadyWindow = 500 * time.Millisecond
	}
	if cfg.ResizeBurstWindow <= 0 {
		report("ResizeBurstWindow", cfg.ResizeBurstWindow, 80*time.Millisecond)
		cfg.ResizeBurstWindow = 80 * time.Millisecond
	}
	if cfg.ResizeCooldown < 0 {
		report("ResizeCooldown", cfg.ResizeCooldown, 150*time.Millisecond)
		cfg.ResizeCooldown = 150 * time.Millisecond
	}
	if cfg.ResizeHardDeadline <= 0 {
		report("ResizeHardDeadline", cfg.ResizeHardDeadline, 100*time.Millisecond)
		cfg.ResizeHardDeadline = 100 * time.Millisecond
	}
	if cfg.BurstEnterRate < 1 {
		report("BurstEnterRate", cfg.BurstEnterRate, 10)
		cfg.BurstEnterRate = 10
	}
	if cfg.BurstExitRate < 1 {
		report("BurstExitRate", cfg.BurstExitRate, 3)
		cfg.BurstExitRate = 3
	}
	if cfg.BurstExitRate >= cfg.BurstEnterRate {
		// Hysteresis requires a genuinely lower exit rate; without it a
		// single quiet tick could immediately flip the regime back.
		report("BurstExitRate", cfg.BurstExitRate, cfg.BurstEnterRate-1)
		cfg.BurstExitRate = cfg.BurstEnterRate - 1
	}
	if cfg.RateWindowSize <= 0 {
		report("RateWindowSize", cfg.RateWindowSize, 250*time.Millisecond)
		cfg.RateWindowSize = 250 * time.Millisecond
	}
	if cfg.InputMaxCSILen < 16 {
		report("InputMaxCSILen", cfg.InputMaxCSILen, 256)
		cfg.InputMaxCSILen = 256
	}
	if cfg.InputMaxOSCLen < 16 {
		report("InputMaxOSCLen", cfg.InputMaxOSCLen, 4096)
		cfg.InputMaxOSCLen = 4096
	}
	if cfg.InputMaxDCSLen < 16 {
		report("InputMaxDCSLen", cfg.InputMaxDCSLen, 4096)
		cfg.InputMaxDCSLen = 4096
	}
	if cfg.InputMaxPasteLen < 1024 {
		report("InputMaxPasteLen", cfg.InputMaxPasteLen, 1<<20)
		cfg.InputMaxPasteLen = 1 << 20
	}
	if cfg.InlinePinnedRows < 0 {
		report("InlinePinnedRows", cfg.InlinePinnedRows, 1)
		cfg.InlinePinnedRows = 1
	}
	return cfg
}
