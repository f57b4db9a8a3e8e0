package input

import (
	"strconv"
	"strings"
	"time"
)

// parseSGRMouse decodes an SGR mouse report: `CSI < Cb ; Cx ; Cy M|m`,
// where the final byte distinguishes press/motion (M) from release (m).
func parseSGRMouse(params string, final byte, now time.Time) (Event, bool) {
	if len(params) == 0 || params[0] != '<' {
		return Event{}, false
	}
	fields := strings.Split(params[1:], ";")
	if len(fields) != 3 {
		return Event{}, false
	}
	cb, err1 := strconv.Atoi(fields[0])
	cx, err2 := strconv.Atoi(fields[1])
	cy, err3 := strconv.Atoi(fields[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return Event{}, false
	}

	m := Mouse{X: cx - 1, Y: cy - 1}

	if cb&32 != 0 {
		m.Motion = true
	}
	if cb&4 != 0 {
		m.Mods |= ModShift
	}
	if cb&8 != 0 {
		m.Mods |= ModAlt
	}
	if cb&16 != 0 {
		m.Mods |= ModCtrl
	}

	btn := cb & 0x3
	switch {
	case cb&64 != 0:
		if btn == 1 {
			m.Button = MouseWheelDown
		} else {
			m.Button = MouseWheelUp
		}
	case final == 'm':
		m.Button = MouseRelease
	default:
		switch btn {
		case 0:
			m.Button = MouseLeft
		case 1:
			m.Button = MouseMiddle
		case 2:
			m.Button = MouseRight
		default:
			m.Button = MouseNone
		}
	}

	return Event{Kind: EventMouse, At: now, Mouse: m}, true
}
