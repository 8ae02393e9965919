// Package logio writes framed messages out as a binary run-log file,
// prepending the format's fixed magic header. Grounded on
// rtcmlogger/log/writer.go's shape (an io.Writer wrapping an
// underlying file, deciding what to do on the first write), adapted
// from that package's daily-rollover policy to this domain's simpler
// "one magic header, then every frame verbatim" rule (spec.md §4.J,
// "Binary output header").
package logio

import (
	"io"

	"github.com/goblimey/go-runlog/internal/handler"
	"github.com/goblimey/go-runlog/internal/schema"
)

// Magic is the fixed 8-byte header every binary log file produced by
// this toolbox starts with (spec.md §4.J).
var Magic = []byte{0x98, 0x1D, 0x00, 0x00, 0xC8, 0x00, 0x00, 0x00}

// Writer is a handler.Handler that appends every frame it's given to
// an underlying io.Writer, writing Magic once before the first frame.
type Writer struct {
	w           io.Writer
	wroteHeader bool
}

// New wraps w.
func New(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Handle implements handler.Handler. Parse-error events are not
// written: this is an encoder destination, not a pass-through copy.
func (lw *Writer) Handle(bytes []byte, kind schema.Kind, begin, end int) error {
	if kind == schema.KindParseError {
		return nil
	}
	if !lw.wroteHeader {
		if _, err := lw.w.Write(Magic); err != nil {
			return err
		}
		lw.wroteHeader = true
	}
	_, err := lw.w.Write(bytes[begin:end])
	return err
}

// Reset clears the "magic already written" flag, so the next call to
// Handle writes Magic again. Used when the underlying destination has
// been switched to a fresh file that needs its own header (see
// SwitchWriter).
func (lw *Writer) Reset() {
	lw.wroteHeader = false
}

var _ handler.Handler = (*Writer)(nil)
