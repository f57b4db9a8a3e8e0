package forme

import (
	"errors"
	"testing"
)

func TestErrorString(t *testing.T) {
	cause := errors.New("boom")
	err := newError(KindParseFault, "parser", cause)
	want := "parser: parse_fault: boom"
	if got := err.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestErrorStringWithoutCause(t *testing.T) {
	err := newError(KindConfig, "config", nil)
	want := "config: config"
	if got := err.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := newError(KindFatal, "terminalwriter", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to see through Unwrap to the cause")
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindRecoverable:      "recoverable",
		KindParseFault:       "parse_fault",
		KindCapacityOverflow: "capacity_overflow",
		KindConfig:           "config",
		KindFatal:            "fatal",
		Kind(99):             "unknown",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
