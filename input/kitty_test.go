package input

import (
	"strings"
	"testing"
)

func TestEnableSequenceEncodesFlags(t *testing.T) {
	seq := EnableSequence(KittyDisambiguate | KittyReportEvents)
	if !strings.HasPrefix(seq, "\x1b[>") || !strings.HasSuffix(seq, "u") {
		t.Fatalf("got %q", seq)
	}
}

func TestDisableSequencePopsStack(t *testing.T) {
	if got := DisableSequence(); got != "\x1b[<1u" {
		t.Fatalf("got %q", got)
	}
}
