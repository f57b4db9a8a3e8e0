package input

import (
	"testing"
	"time"
)

func newTestParser() *Parser {
	p := NewParser(DefaultLimits())
	p.Now = func() time.Time { return time.Unix(0, 0) }
	return p
}

func TestParserPlainASCIIKey(t *testing.T) {
	p := newTestParser()
	events := p.Feed([]byte("a"))
	if len(events) != 1 || events[0].Kind != EventKey || events[0].Key.Rune != 'a' {
		t.Fatalf("got %+v", events)
	}
}

func TestParserMultiByteUTF8SplitAcrossFeeds(t *testing.T) {
	p := newTestParser()
	full := []byte("界") // 3-byte UTF-8
	var events []Event
	for _, b := range full {
		events = append(events, p.Feed([]byte{b})...)
	}
	if len(events) != 1 || events[0].Key.Rune != '界' {
		t.Fatalf("expected a single assembled rune event, got %+v", events)
	}
}

func TestParserInvalidUTF8LeadByteEmitsReplacement(t *testing.T) {
	p := newTestParser()
	events := p.Feed([]byte{0xff})
	if len(events) != 1 || events[0].Key.Rune != '�' {
		t.Fatalf("got %+v", events)
	}
}

func TestParserEscapeThenLetterIsAltModified(t *testing.T) {
	p := newTestParser()
	events := p.Feed([]byte{0x1b, 'x'})
	if len(events) != 1 || events[0].Key.Rune != 'x' || events[0].Key.Mods != ModAlt {
		t.Fatalf("got %+v", events)
	}
}

func TestParserDoubleEscapeIsEscapeKey(t *testing.T) {
	p := newTestParser()
	events := p.Feed([]byte{0x1b, 0x1b})
	if len(events) != 1 || events[0].Key.Name != "escape" {
		t.Fatalf("got %+v", events)
	}
}

func TestParserCSIArrowKeys(t *testing.T) {
	p := newTestParser()
	events := p.Feed([]byte("\x1b[A"))
	if len(events) != 1 || events[0].Key.Name != "up" {
		t.Fatalf("got %+v", events)
	}
}

func TestParserCSITildeKeyWithModifier(t *testing.T) {
	p := newTestParser()
	events := p.Feed([]byte("\x1b[3;5~")) // delete, ctrl (N=5 -> bits=4 -> ctrl)
	if len(events) != 1 || events[0].Key.Name != "delete" || events[0].Key.Mods != ModCtrl {
		t.Fatalf("got %+v", events)
	}
}

func TestParserCSIOverflowEmitsDiagnosticAndResets(t *testing.T) {
	p := newTestParser()
	p.limits.MaxCSILen = 4
	in := append([]byte("\x1b["), make([]byte, 10)...)
	for i := range in[2:] {
		in[2+i] = '0'
	}
	events := p.Feed(in)
	if len(events) != 1 || events[0].Kind != EventUnknown {
		t.Fatalf("expected a single overflow diagnostic, got %+v", events)
	}
	// Parser must have reset to ground and accept new input normally.
	events = p.Feed([]byte("a"))
	if len(events) != 1 || events[0].Key.Rune != 'a' {
		t.Fatalf("expected parser usable after overflow reset, got %+v", events)
	}
}

func TestParserFocusEvents(t *testing.T) {
	p := newTestParser()
	gained := p.Feed([]byte("\x1b[I"))
	if len(gained) != 1 || gained[0].Kind != EventFocus || !gained[0].Focus.Gained {
		t.Fatalf("got %+v", gained)
	}
	lost := p.Feed([]byte("\x1b[O"))
	if len(lost) != 1 || lost[0].Kind != EventFocus || lost[0].Focus.Gained {
		t.Fatalf("got %+v", lost)
	}
}

func TestParserBracketedPasteAssembly(t *testing.T) {
	p := newTestParser()
	events := p.Feed([]byte("\x1b[200~hello\x1b[201~"))
	if len(events) != 1 || events[0].Kind != EventPaste || events[0].Paste.Text != "hello" {
		t.Fatalf("got %+v", events)
	}
}

func TestParserBracketedPasteSplitAcrossFeeds(t *testing.T) {
	p := newTestParser()
	var events []Event
	events = append(events, p.Feed([]byte("\x1b[200~par"))...)
	events = append(events, p.Feed([]byte("t1"))...)
	events = append(events, p.Feed([]byte("\x1b[201~"))...)
	if len(events) != 1 || events[0].Paste.Text != "part1" {
		t.Fatalf("got %+v", events)
	}
}

func TestParserPasteOverflowDropsOldestByte(t *testing.T) {
	p := newTestParser()
	p.limits.MaxPasteLen = 4
	events := p.Feed([]byte("\x1b[200~abcdef\x1b[201~"))
	var pasted *Event
	diagnostics := 0
	for i := range events {
		if events[i].Kind == EventPaste {
			pasted = &events[i]
		}
		if events[i].Kind == EventUnknown {
			diagnostics++
		}
	}
	if pasted == nil {
		t.Fatalf("expected a paste event, got %+v", events)
	}
	if len(pasted.Paste.Text) != 4 {
		t.Fatalf("expected paste buffer bounded to 4 bytes, got %q", pasted.Paste.Text)
	}
	if diagnostics == 0 {
		t.Fatalf("expected at least one overflow diagnostic")
	}
}

func TestParserSGRMouseFinalByteM(t *testing.T) {
	p := newTestParser()
	events := p.Feed([]byte("\x1b[<0;10;20M"))
	if len(events) != 1 || events[0].Kind != EventMouse {
		t.Fatalf("got %+v", events)
	}
	m := events[0].Mouse
	if m.X != 9 || m.Y != 19 || m.Button != MouseLeft {
		t.Fatalf("got %+v", m)
	}
}

func TestParserSGRMouseReleaseFinalByteLower(t *testing.T) {
	p := newTestParser()
	events := p.Feed([]byte("\x1b[<0;1;1m"))
	if len(events) != 1 || events[0].Mouse.Button != MouseRelease {
		t.Fatalf("got %+v", events)
	}
}

func TestParserKittyKeyPressWithCtrl(t *testing.T) {
	p := newTestParser()
	// code 97 ('a'), modifiers field 5 (ctrl: bits=4 -> ModCtrl)
	events := p.Feed([]byte("\x1b[97;5u"))
	if len(events) != 1 || events[0].Key.Rune != 'a' || events[0].Key.Mods != ModCtrl {
		t.Fatalf("got %+v", events)
	}
}

func TestParserKittyFunctionalKey(t *testing.T) {
	p := newTestParser()
	events := p.Feed([]byte("\x1b[57344u")) // escape
	if len(events) != 1 || events[0].Key.Name != "escape" {
		t.Fatalf("got %+v", events)
	}
}

func TestParserKittyKeyReleaseAction(t *testing.T) {
	p := newTestParser()
	events := p.Feed([]byte("\x1b[97;1:3u"))
	if len(events) != 1 || events[0].Key.Action != KeyRelease {
		t.Fatalf("got %+v", events)
	}
}

func TestParserOSCBellTerminated(t *testing.T) {
	p := newTestParser()
	events := p.Feed([]byte("\x1b]52;c;aGVsbG8=\x07"))
	if len(events) != 1 || events[0].Kind != EventUnknown {
		t.Fatalf("got %+v", events)
	}
}

func TestParserOSCStringTerminated(t *testing.T) {
	p := newTestParser()
	events := p.Feed([]byte("\x1b]52;c;aGVsbG8=\x1b\\"))
	if len(events) != 1 || events[0].Kind != EventUnknown {
		t.Fatalf("got %+v", events)
	}
}

func TestParserUnknownOSCDiscarded(t *testing.T) {
	p := newTestParser()
	events := p.Feed([]byte("\x1b]0;window title\x07"))
	if len(events) != 0 {
		t.Fatalf("expected unknown OSC to be silently discarded, got %+v", events)
	}
}
