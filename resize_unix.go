//go:build !windows

package forme

import (
	"os"
	"os/signal"
	"syscall"
)

// notifyResize registers ch to receive SIGWINCH, the POSIX terminal-resize
// signal.
func notifyResize(ch chan os.Signal) {
	signal.Notify(ch, syscall.SIGWINCH)
}

// stopResizeNotify unregisters ch from signal delivery.
func stopResizeNotify(ch chan os.Signal) {
	signal.Stop(ch)
}
