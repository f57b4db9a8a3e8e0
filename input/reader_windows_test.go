//go:build windows

package input

import "testing"

func TestWindowsModifiersShiftCtrlAlt(t *testing.T) {
	got := windowsModifiers(0x0010 | 0x0008 | 0x0002)
	want := ModShift | ModCtrl | ModAlt
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestWindowsModifiersNone(t *testing.T) {
	if got := windowsModifiers(0); got != 0 {
		t.Fatalf("got %v", got)
	}
}
