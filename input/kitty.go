package input

import (
	"strconv"
	"strings"
	"time"
)

// KittyFlags are the progressive-enhancement bits a terminal can be asked
// to report via CSI > flags u, per the kitty keyboard protocol.
type KittyFlags uint8

const (
	KittyDisambiguate KittyFlags = 1 << iota
	KittyReportEvents
	KittyReportAlternates
	KittyReportAllKeys
	KittyReportText
)

// EnableSequence builds the CSI that requests flags be pushed onto the
// terminal's kitty-keyboard stack.
func EnableSequence(flags KittyFlags) string {
	return "\x1b[>" + strconv.Itoa(int(flags)) + "u"
}

// DisableSequence pops the kitty-keyboard enhancement stack.
func DisableSequence() string {
	return "\x1b[<1u"
}

// finishKittyKey decodes a `CSI ... u` kitty-protocol key event. The
// general form is:
//
//	CSI unicode-key-code:alternate-key-codes ; modifiers:event-type ; text-as-codepoints u
//
// Only the fields this kernel surfaces (rune, modifiers, press/repeat/
// release) are decoded; alternate-key-codes and text-as-codepoints are
// accepted but not separately exposed.
func (p *Parser) finishKittyKey(params string, now time.Time) *Event {
	fields := strings.Split(params, ";")
	if len(fields) == 0 || fields[0] == "" {
		return nil
	}

	codeField := strings.Split(fields[0], ":")
	code, err := strconv.Atoi(codeField[0])
	if err != nil {
		ev := diagnosticEvent(now, "kitty_malformed")
		return &ev
	}

	var mods Modifiers
	action := KeyPress
	if len(fields) > 1 {
		modField := strings.Split(fields[1], ":")
		if n, err := strconv.Atoi(modField[0]); err == nil && n > 0 {
			mods = csiModifiers("0;" + strconv.Itoa(n))
		}
		if len(modField) > 1 {
			switch modField[1] {
			case "2":
				action = KeyRepeat
			case "3":
				action = KeyRelease
			}
		}
	}

	key := Key{Mods: mods, Action: action}
	if name, ok := kittyFunctionalKeys[code]; ok {
		key.Name = name
	} else {
		key.Rune = rune(code)
	}

	ev := Event{Kind: EventKey, At: now, Key: key}
	return &ev
}

// kittyFunctionalKeys maps the kitty protocol's reserved codepoints for
// non-printable keys to names, covering the common navigation/editing set.
var kittyFunctionalKeys = map[int]string{
	57344: "escape", 57345: "enter", 57346: "tab", 57347: "backspace",
	57348: "insert", 57349: "delete", 57350: "left", 57351: "right",
	57352: "up", 57353: "down", 57354: "pageup", 57355: "pagedown",
	57356: "home", 57357: "end", 57358: "capslock", 57376: "f1",
	57377: "f2", 57378: "f3", 57379: "f4", 57380: "f5", 57381: "f6",
	57382: "f7", 57383: "f8", 57384: "f9", 57385: "f10", 57386: "f11",
	57387: "f12",
}
