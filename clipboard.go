package forme

import (
	"github.com/aymanbagabas/go-osc52/v2"
)

// ClipboardSelection names which OSC 52 selection buffer to target.
type ClipboardSelection int

const (
	ClipboardSystem ClipboardSelection = iota
	ClipboardPrimary
)

// CopySequence builds the OSC 52 escape that sets the terminal clipboard
// to text. Opt-in per Config.ClipboardEnabled: a terminal that doesn't
// support OSC 52 simply ignores the sequence, but the kernel only spends
// the bytes when the host has asked for it.
func CopySequence(text string, sel ClipboardSelection) string {
	seq := osc52.New(text)
	if sel == ClipboardPrimary {
		seq = seq.Primary()
	}
	return seq.String()
}

// QuerySequence builds the OSC 52 escape requesting the terminal report
// its current clipboard contents. The reply arrives as terminal input and
// must be parsed out by the input parser (C8), which is out of scope for
// this file — it only builds the outbound request.
func QuerySequence(sel ClipboardSelection) string {
	seq := osc52.Query()
	if sel == ClipboardPrimary {
		seq = seq.Primary()
	}
	return seq.String()
}
