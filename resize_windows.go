//go:build windows

package forme

import "os"

// notifyResize is a no-op on Windows: console resize arrives as a
// WindowBufferSizeEvent record through WindowsReader.ReadEvents, not as a
// process signal, so there is nothing to register here. Full program-loop
// wiring for the Windows input path is left to the host (see DESIGN.md).
func notifyResize(ch chan os.Signal) {}

// stopResizeNotify is the matching no-op teardown.
func stopResizeNotify(ch chan os.Signal) {}
