package sinks

import (
	"fmt"
	"io"

	"github.com/goblimey/go-runlog/internal/byteutil"
	"github.com/goblimey/go-runlog/internal/handler"
	"github.com/goblimey/go-runlog/internal/logio"
	"github.com/goblimey/go-runlog/internal/schema"
)

// cleanJumpThreshold is the "clean" verb's split threshold (spec.md
// §6: "Splits file at timestamp jumps >5000 or decreases"), distinct
// from JumpReport's 50000 — a tighter threshold, since "clean" is
// trying to isolate contiguous recording sessions rather than just
// flag anomalies.
const cleanJumpThreshold = 5000

// Cleaner copies every framed message to an output file, opening a new
// one (via nextFile) each time the logger timestamp jumps backwards or
// forward by more than cleanJumpThreshold. Parse-error bytes are
// dropped. Grounded on clean_file_writer.hpp, with its direct
// ofstream/path manipulation replaced by an injected nextFile
// callback — this package has no opinion on filesystem layout.
type Cleaner struct {
	nextFile func() (io.WriteCloser, error)
	warn     io.Writer

	sw     *logio.SwitchWriter
	lw     *logio.Writer
	closer io.Closer

	lastTimestamp uint32
}

// NewCleaner opens the first output file via nextFile and prepares to
// split into further files it also creates. warn receives one line per
// split, naming the jump (clean_file_writer.hpp logs to stderr).
func NewCleaner(nextFile func() (io.WriteCloser, error), warn io.Writer) (*Cleaner, error) {
	c := &Cleaner{nextFile: nextFile, warn: warn, sw: logio.NewSwitchWriter(nil)}
	c.lw = logio.New(c.sw)
	if err := c.openNext(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cleaner) openNext() error {
	if c.closer != nil {
		if err := c.closer.Close(); err != nil {
			return err
		}
	}
	f, err := c.nextFile()
	if err != nil {
		return err
	}
	c.closer = f
	c.sw.SwitchTo(f)
	c.lw.Reset()
	return nil
}

// Handle implements handler.Handler.
func (c *Cleaner) Handle(bytes []byte, kind schema.Kind, begin, end int) error {
	if kind == schema.KindParseError {
		return nil
	}
	if kind == schema.KindTimestamp {
		v := byteutil.GetBEUint3(bytes[begin+1 : end-1])
		if c.lastTimestamp != 0 && (c.lastTimestamp > v || v-c.lastTimestamp > cleanJumpThreshold) {
			if _, err := fmt.Fprintf(c.warn, "jump: %d -> %d\n", c.lastTimestamp, v); err != nil {
				return err
			}
			if err := c.openNext(); err != nil {
				return err
			}
		}
		c.lastTimestamp = v
	}
	return c.lw.Handle(bytes, kind, begin, end)
}

// Close closes the current output file.
func (c *Cleaner) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

var _ handler.Handler = (*Cleaner)(nil)
