// Package sinks holds the terminal handlers behind spec.md §6's CLI
// verbs: histogram, kml, txt, timestamps, gpstime, timestamp, event and
// clean. Each is grounded on the matching original_source/parse_log
// file named in its doc comment.
package sinks

import (
	"fmt"
	"io"

	"github.com/goblimey/go-runlog/internal/handler"
	"github.com/goblimey/go-runlog/internal/schema"
)

// Histogram tallies per-header byte and message counts, plus a
// separate running tally for parse-error bytes. Grounded on
// histogram_counter.hpp, whose C array indexes both real header 0 and
// parse-errors into the same slot 0; that collision is not reproduced
// here — parse-error bytes get their own counters — since nothing in
// this protocol's catalogue claims header 0 and conflating the two
// would misreport a histogram that did see header-0 traffic.
type Histogram struct {
	byteCount    [256]uint64
	messageCount [256]uint64
	errorBytes   uint64
	errorCount   uint64
}

// NewHistogram returns an empty Histogram.
func NewHistogram() *Histogram { return &Histogram{} }

// Handle implements handler.Handler.
func (h *Histogram) Handle(bytes []byte, kind schema.Kind, begin, end int) error {
	n := uint64(end - begin)
	if kind == schema.KindParseError {
		h.errorBytes += n
		h.errorCount++
		return nil
	}
	header := bytes[begin]
	h.byteCount[header] += n
	h.messageCount[header]++
	return nil
}

// WriteTo prints the aligned per-header table (histogram_counter.hpp's
// output method), one line per header with at least one message, plus
// a trailing parse-error line if any bytes went unframed.
func (h *Histogram) WriteTo(w io.Writer) error {
	for i := 0; i < 256; i++ {
		if h.messageCount[i] == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", schema.Name(byte(i)), i, h.messageCount[i], h.byteCount[i]); err != nil {
			return err
		}
	}
	if h.errorCount > 0 {
		_, err := fmt.Fprintf(w, "%s\t-\t%d\t%d\n", "parse_error", h.errorCount, h.errorBytes)
		return err
	}
	return nil
}

var _ handler.Handler = (*Histogram)(nil)
