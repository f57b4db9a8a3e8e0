// Package input implements the kernel's terminal input state machine: raw
// bytes in, typed events out. It never touches the screen; TerminalWriter
// owns the reader this package's Parser consumes from.
package input

import "time"

// EventKind discriminates the Event union.
type EventKind uint8

const (
	EventKey EventKind = iota
	EventMouse
	EventResize
	EventPaste
	EventFocus
	EventUnknown
)

// Modifiers is a bitset of held modifier keys.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModAlt
	ModCtrl
	ModSuper
)

// KeyAction distinguishes a kitty-protocol press/repeat/release from the
// legacy terminal's implicit "press" for every byte it sends.
type KeyAction uint8

const (
	KeyPress KeyAction = iota
	KeyRepeat
	KeyRelease
)

// Key is a single decoded keystroke.
type Key struct {
	Rune  rune // 0 for non-printable keys (arrows, function keys, ...)
	Name  string // e.g. "up", "f5", "enter" for non-printable keys
	Mods  Modifiers
	Action KeyAction
}

// MouseButton identifies which button a mouse event concerns.
type MouseButton uint8

const (
	MouseNone MouseButton = iota
	MouseLeft
	MouseMiddle
	MouseRight
	MouseWheelUp
	MouseWheelDown
	MouseRelease
)

// Mouse is a single decoded mouse report (SGR 1006 protocol).
type Mouse struct {
	X, Y   int
	Button MouseButton
	Mods   Modifiers
	Motion bool // true if this is a drag/move report, not a button edge
}

// Paste carries the full text of a bracketed paste, assembled across
// however many raw reads it took to see the terminating marker.
type Paste struct {
	Text string
}

// Focus reports a terminal focus-in/focus-out transition.
type Focus struct {
	Gained bool
}

// Event is the parser's unit of output. Exactly one of the typed fields is
// meaningful, selected by Kind.
type Event struct {
	Kind EventKind
	At   time.Time
	Key   Key
	Mouse Mouse
	Paste Paste
	Focus Focus
	Resize struct{ Cols, Rows int }
}
