//go:build !windows

package input

import (
	"io"

	"github.com/mattn/go-localereader"
	"github.com/muesli/cancelreader"
)

// Reader wraps the process's stdin (or any reader) so the program loop can
// interrupt a blocked read on shutdown (Cancel) the same way the output
// side's teardown does, and so non-UTF-8 locales are transcoded before
// bytes ever reach the Sanitizer/Parser.
type Reader struct {
	cr cancelreader.CancelReader
}

// NewReader wraps r for cancelable reads. On non-UTF-8 locales (detected
// by go-localereader from the process environment) r is first wrapped
// with a transcoding reader.
func NewReader(r io.Reader) (*Reader, error) {
	locale, err := localereader.NewReader(r)
	if err != nil {
		locale = r
	}
	cr, err := cancelreader.NewReader(locale)
	if err != nil {
		return nil, err
	}
	return &Reader{cr: cr}, nil
}

// Read satisfies io.Reader, returning cancelreader's sentinel error once
// Cancel has been called on a blocked read.
func (r *Reader) Read(p []byte) (int, error) {
	return r.cr.Read(p)
}

// Cancel interrupts any in-flight Read, used during shutdown so the
// program loop's input goroutine can exit without waiting for the next
// keystroke.
func (r *Reader) Cancel() bool {
	return r.cr.Cancel()
}

// Close releases the underlying reader's resources.
func (r *Reader) Close() error {
	return r.cr.Close()
}
