package forme

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// TerminalWriter is the single serialized owner of the output stream. Every
// byte this kernel sends to the terminal — frame presentation, interleaved
// log lines, clipboard sequences, cursor styling — funnels through it, so
// the one-writer invariant is a type-level constraint: nothing outside this
// file ever calls out.Write directly once a TerminalWriter exists.
type TerminalWriter struct {
	mu sync.Mutex

	out  io.Writer
	file *os.File // non-nil when out is a real TTY, for raw-mode/size syscalls

	cfg Config
	cap Capability
	sink EvidenceSink
	pool *GraphemePool

	diff      *DiffEngine
	presenter *Presenter
	resize    *ResizeCoalescer

	cols, rows int

	started  bool
	termState *term.State

	// Each bool records whether THIS writer turned the mode on, so Shutdown
	// only emits the matching disable for what it actually enabled.
	rawOn, altScreenOn, mouseOn, focusOn, kittyOn, pasteOn, syncOutputOn bool

	prevBuf    *Buffer
	lastGC     time.Time
	frameCount uint64

	inlineLinesUsed int
}

// NewTerminalWriter constructs a writer over out (typically os.Stdout).
// pool is the shared GraphemePool the presenter reads interned text from.
// If out is a *os.File connected to a TTY, its current size is queried via
// golang.org/x/term; otherwise cfg's configured fallback size (or 80x24) is
// used.
func NewTerminalWriter(out io.Writer, pool *GraphemePool, cfg Config, capability Capability, sink EvidenceSink) *TerminalWriter {
	if sink == nil {
		sink = DiscardSink
	}

	w := &TerminalWriter{
		out:   out,
		cfg:   cfg,
		cap:   capability,
		sink:  sink,
		pool:  pool,
		diff:  NewDiffEngine(DefaultDiffConfig()),
		resize: NewResizeCoalescer(cfg, sink),
		cols:  80,
		rows:  24,
	}
	w.presenter = NewPresenter(profileFor(cfg, capability), pool)

	if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		w.file = f
		if cols, rows, err := term.GetSize(int(f.Fd())); err == nil {
			w.cols, w.rows = cols, rows
		}
	}
	return w
}

// Size reports the writer's last-known terminal dimensions.
func (w *TerminalWriter) Size() (cols, rows int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cols, w.rows
}

// queryTerminalSize re-reads the live terminal size via the underlying
// file descriptor, used after a resize signal fires. Returns an error if
// the writer isn't backed by a real TTY.
func queryTerminalSize(w *TerminalWriter) (cols, rows int, err error) {
	w.mu.Lock()
	f := w.file
	w.mu.Unlock()
	if f == nil {
		return 0, 0, newError(KindRecoverable, "terminalwriter", fmt.Errorf("not a tty"))
	}
	return term.GetSize(int(f.Fd()))
}

// write sends raw bytes, the only place in this file that touches w.out.
// Callers must hold w.mu.
func (w *TerminalWriter) write(s string) {
	if s == "" {
		return
	}
	io.WriteString(w.out, s)
}

// Start acquires the terminal mode stack in the documented order: raw mode,
// then (unless inline mode is configured) alt-screen, then mouse capture,
// focus events, and kitty-keyboard enhancement, each gated by Config. Every
// mode actually turned on is remembered so Shutdown reverses exactly this
// set in exactly the opposite order.
func (w *TerminalWriter) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return nil
	}

	if w.file != nil {
		state, err := term.MakeRaw(int(w.file.Fd()))
		if err != nil {
			return newError(KindFatal, "terminalwriter", fmt.Errorf("enter raw mode: %w", err))
		}
		w.termState = state
		w.rawOn = true
	}

	if !w.cfg.InlineMode {
		if w.cfg.AltScreen {
			w.write("\x1b[?1049h")
			w.altScreenOn = true
		}
		w.write("\x1b[?25l") // hide cursor until the first frame positions it
		w.write("\x1b[2J\x1b[H")
	}

	if w.cfg.BracketedPaste {
		w.write("\x1b[?2004h")
		w.pasteOn = true
	}

	if w.cfg.MouseEnabled {
		w.write("\x1b[?1000h\x1b[?1002h\x1b[?1006h")
		w.mouseOn = true
	}
	if w.cfg.FocusEvents {
		w.write("\x1b[?1004h")
		w.focusOn = true
	}
	if w.cfg.KittyKeyboard && w.cap.KittyKeyboard {
		w.write("\x1b[>1u")
		w.kittyOn = true
	}

	w.started = true
	w.lastGC = time.Now()
	return nil
}

// Shutdown runs the RAII teardown: it is safe to call more than once (a
// normal exit calling it directly and a deferred recover calling it again
// after a panic both leave the terminal in the same cooked state), and it
// always emits a synchronized-output END even when no BEGIN was left
// in-flight, so a panic mid-frame can never leave the terminal frozen.
func (w *TerminalWriter) Shutdown() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.syncOutputOn {
		w.write(syncOutputEnd)
		w.syncOutputOn = false
	} else if w.cap.SynchronizedOutput {
		w.write(syncOutputEnd)
	}

	if w.kittyOn {
		w.write("\x1b[<1u")
		w.kittyOn = false
	}
	if w.focusOn {
		w.write("\x1b[?1004l")
		w.focusOn = false
	}
	if w.mouseOn {
		w.write("\x1b[?1006l\x1b[?1002l\x1b[?1000l")
		w.mouseOn = false
	}
	if w.pasteOn {
		w.write("\x1b[?2004l")
		w.pasteOn = false
	}

	if !w.cfg.InlineMode {
		w.write(ansi.ShowCursor)
		if w.altScreenOn {
			w.write("\x1b[?1049l")
			w.altScreenOn = false
		}
	} else if w.inlineLinesUsed > 0 {
		w.write("\r\n")
		w.inlineLinesUsed = 0
	}
	w.write(ansi.ResetStyle)

	if w.rawOn && w.termState != nil {
		term.Restore(int(w.file.Fd()), w.termState)
		w.rawOn = false
	}

	w.started = false
}

const (
	syncOutputBegin = "\x1b[?2026h"
	syncOutputEnd   = "\x1b[?2026l"
)

// Present diffs buf against the last presented buffer and writes the
// minimal byte stream to bring the terminal up to date, wrapped in DEC 2026
// synchronized-output markers when the capability record says the terminal
// honors them. cursor/links describe the frame's final cursor state and
// any open hyperlinks, as produced by the Frame that drew buf.
func (w *TerminalWriter) Present(buf *Buffer, cursor Cursor, links *linkRegistry) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cap.SynchronizedOutput {
		w.syncOutputOn = true
		w.write(syncOutputBegin)
	}
	var runs []UpdateRun
	if w.prevBuf == nil || w.prevBuf.Cols() != buf.Cols() || w.prevBuf.Rows() != buf.Rows() {
		w.write(w.presenter.FullRedraw(buf, links))
	} else {
		runs = w.diff.Diff(w.prevBuf, buf)
		w.write(w.presenter.Present(runs, cursor, links))
	}
	if w.syncOutputOn {
		w.write(syncOutputEnd)
		w.syncOutputOn = false
	}

	w.prevBuf = buf
	w.frameCount++
	w.maybeSweep(buf)
}

// maybeSweep triggers a GraphemePool GC pass once GraphemeGCInterval has
// elapsed, re-marking every grapheme id live in the current and previous
// buffers first so Sweep only reclaims ids nothing on screen references.
func (w *TerminalWriter) maybeSweep(cur *Buffer) {
	if time.Since(w.lastGC) < w.cfg.GraphemeGCInterval {
		return
	}
	w.lastGC = time.Now()

	markBuffer := func(b *Buffer) {
		if b == nil {
			return
		}
		for y := 0; y < b.Rows(); y++ {
			for x := 0; x < b.Cols(); x++ {
				c := b.Get(x, y)
				if c.Width != WidthEmpty {
					w.pool.Mark(c.GraphemeID)
				}
			}
		}
	}
	markBuffer(cur)
	markBuffer(w.prevBuf)

	reclaimed := w.pool.Sweep()
	if reclaimed > 0 {
		w.sink.Record(EvidenceEvent{Component: "graphemepool", Kind: "gc", Fields: map[string]any{
			"reclaimed": reclaimed, "live": w.pool.Len(),
		}})
	}
}

// Invalidate forces the next Present call to perform a full redraw instead
// of a diff, used after a resize (new dimensions) or after an interleaved
// log write has scrolled the alternate-screen-free inline region.
func (w *TerminalWriter) Invalidate() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prevBuf = nil
}

// PresentInline renders a fixed-height UI region pinned at the bottom of
// the normal terminal flow, the inline-mode counterpart to Present. Per
// the inline region's resolved contract it always fully redraws rather
// than diffing against a previous frame: log writes interleaved above the
// region (WriteLog) scroll the scrollback, and a portable diff against
// stale content there would just reproduce ghosting.
func (w *TerminalWriter) PresentInline(buf *Buffer, cursor Cursor, links *linkRegistry) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out string
	if w.inlineLinesUsed > 0 {
		out += fmt.Sprintf("\r\x1b[%dA", w.inlineLinesUsed)
	}

	w.presenter.state = PresenterState{}
	rows := buf.Rows()
	runs := make([]UpdateRun, 0, rows)
	for y := 0; y < rows; y++ {
		cells := make([]Cell, buf.Cols())
		for x := 0; x < buf.Cols(); x++ {
			cells[x] = buf.Get(x, y)
		}
		runs = append(runs, UpdateRun{Row: y, StartCol: 0, Cells: cells})
	}
	out += w.presenter.Present(runs, cursor, links)
	w.write(out)
	w.inlineLinesUsed = rows
}

// WriteLog writes a log line above the pinned inline UI region (scrolling
// the region down with it) and marks the presenter state stale so the next
// PresentInline call fully repaints instead of assuming the region is
// still where it left it.
func (w *TerminalWriter) WriteLog(line string) {
	w.mu.Lock()
	if w.inlineLinesUsed > 0 {
		w.write(fmt.Sprintf("\r\x1b[%dA", w.inlineLinesUsed))
		w.write("\x1b[0J") // erase the stale UI region before the log line scrolls past it
	}
	w.write(line)
	if len(line) == 0 || line[len(line)-1] != '\n' {
		w.write("\r\n")
	}
	w.inlineLinesUsed = 0
	w.mu.Unlock()
}

// ApplyResize reallocates the writer's known dimensions and forces the next
// Present to fully redraw. The caller (the program loop) is responsible for
// resizing the actual BufferPool; this only updates the writer's own
// bookkeeping and clears the terminal so stale content outside the new
// dimensions doesn't linger.
func (w *TerminalWriter) ApplyResize(size Size) {
	w.mu.Lock()
	w.cols, w.rows = size.Cols, size.Rows
	w.prevBuf = nil
	if !w.cfg.InlineMode {
		w.write("\x1b[2J")
	}
	w.mu.Unlock()
}

// Resize exposes the writer's ResizeCoalescer so the program loop can feed
// it OS resize notifications (Observe) and poll it on a timer (Poll).
func (w *TerminalWriter) Resize() *ResizeCoalescer { return w.resize }

// SetCursorShape emits the DECSCUSR sequence selecting the terminal
// cursor's visual style.
func (w *TerminalWriter) SetCursorShape(shape CursorShape) {
	w.mu.Lock()
	w.write(shape.sequence())
	w.mu.Unlock()
}

// SetCursorColor emits an OSC 12 sequence setting (or, for a default color,
// resetting via OSC 112) the terminal's text-cursor color.
func (w *TerminalWriter) SetCursorColor(c PackedColor) {
	w.mu.Lock()
	w.write(cursorColorSequence(c))
	w.mu.Unlock()
}

// CopyToClipboard emits an OSC 52 clipboard-set sequence, a no-op on
// terminals that don't implement it. Gated by Config.ClipboardEnabled by
// the caller; this method only builds and writes the bytes.
func (w *TerminalWriter) CopyToClipboard(text string, sel ClipboardSelection) {
	w.mu.Lock()
	w.write(CopySequence(text, sel))
	w.mu.Unlock()
}

// QueryClipboard emits an OSC 52 clipboard-read request. The terminal's
// reply arrives as ordinary input and must be decoded by the input parser.
func (w *TerminalWriter) QueryClipboard(sel ClipboardSelection) {
	w.mu.Lock()
	w.write(QuerySequence(sel))
	w.mu.Unlock()
}

// profileFor picks the starting colorprofile.Profile. An explicit
// Config.ColorProfile other than "auto" overrides detection, e.g. to force
// ANSI-only output for recorded sessions; "auto" falls back to the
// capability record's RGB flag.
func profileFor(cfg Config, c Capability) colorprofile.Profile {
	switch cfg.ColorProfile {
	case ColorProfileTrueColor:
		return colorprofile.TrueColor
	case ColorProfileANSI256:
		return colorprofile.ANSI256
	case ColorProfileANSI:
		return colorprofile.ANSI
	case ColorProfileAscii:
		return colorprofile.Ascii
	}
	if c.RGB {
		return colorprofile.TrueColor
	}
	return colorprofile.ANSI256
}
