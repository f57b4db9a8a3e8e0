//go:build windows

package input

import (
	"time"

	"github.com/erikgeiser/coninput"
	"golang.org/x/sys/windows"
)

// WindowsReader decodes console input records directly, bypassing the
// POSIX byte-stream path entirely: Windows delivers structured key/mouse/
// resize records rather than an ANSI escape stream, so this reader
// produces input.Event values straight from coninput's parsed records
// instead of feeding a Parser.
type WindowsReader struct {
	handle windows.Handle
}

// NewWindowsReader wraps the given console input handle (normally
// windows.Stdin).
func NewWindowsReader(handle windows.Handle) *WindowsReader {
	return &WindowsReader{handle: handle}
}

// ReadEvents blocks for at least one console input record and returns
// every Event decodable from the batch returned by a single read.
func (w *WindowsReader) ReadEvents() ([]Event, error) {
	records, err := coninput.ReadConsoleInput(w.handle)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var events []Event
	for _, rec := range records {
		switch rec.EventType {
		case coninput.KeyEventType:
			kev := coninput.KeyEventRecord(rec)
			if !kev.KeyDown {
				continue
			}
			events = append(events, Event{Kind: EventKey, At: now, Key: Key{
				Rune: rune(kev.Char),
				Mods: windowsModifiers(kev.ControlKeyState),
			}})

		case coninput.MouseEventType:
			mev := coninput.MouseEventRecord(rec)
			events = append(events, Event{Kind: EventMouse, At: now, Mouse: Mouse{
				X: int(mev.MousePositon.X), Y: int(mev.MousePositon.Y),
				Mods: windowsModifiers(mev.ControlKeyState),
			}})

		case coninput.WindowBufferSizeEventType:
			wev := coninput.WindowBufferSizeEventRecord(rec)
			ev := Event{Kind: EventResize, At: now}
			ev.Resize.Cols = int(wev.Size.X)
			ev.Resize.Rows = int(wev.Size.Y)
			events = append(events, ev)

		case coninput.FocusEventType:
			fev := coninput.FocusEventRecord(rec)
			events = append(events, Event{Kind: EventFocus, At: now, Focus: Focus{Gained: fev.SetFocus}})
		}
	}
	return events, nil
}

func windowsModifiers(state uint32) Modifiers {
	var m Modifiers
	const (
		shiftPressed = 0x0010
		leftCtrl     = 0x0008
		rightCtrl    = 0x0004
		leftAlt      = 0x0002
		rightAlt     = 0x0001
	)
	if state&shiftPressed != 0 {
		m |= ModShift
	}
	if state&(leftCtrl|rightCtrl) != 0 {
		m |= ModCtrl
	}
	if state&(leftAlt|rightAlt) != 0 {
		m |= ModAlt
	}
	return m
}
