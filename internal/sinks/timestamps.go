package sinks

import (
	"fmt"
	"io"

	"github.com/goblimey/go-runlog/internal/byteutil"
	"github.com/goblimey/go-runlog/internal/handler"
	"github.com/goblimey/go-runlog/internal/schema"
)

// Timestamps prints one line per timestamp event: its value and the
// delta from the previous one. Grounded on timestamp_printer.hpp.
type Timestamps struct {
	w           io.Writer
	have        bool
	first, last uint32
}

// NewTimestamps wraps w.
func NewTimestamps(w io.Writer) *Timestamps { return &Timestamps{w: w} }

// Handle implements handler.Handler.
func (t *Timestamps) Handle(bytes []byte, kind schema.Kind, begin, end int) error {
	if kind != schema.KindTimestamp {
		return nil
	}
	v := byteutil.GetBEUint3(bytes[begin+1 : end-1])
	if !t.have {
		t.first = v
		t.have = true
	}
	if _, err := fmt.Fprintf(t.w, "%d\t%d\n", v, v-t.last); err != nil {
		return err
	}
	t.last = v
	return nil
}

// Close prints the total time span covered (timestamp_printer.hpp's
// flush method).
func (t *Timestamps) Close() error {
	_, err := fmt.Fprintf(t.w, "time span: %d\n", t.last-t.first)
	return err
}

var _ handler.Handler = (*Timestamps)(nil)
