package sinks

import (
	"fmt"
	"io"

	"github.com/goblimey/go-runlog/internal/byteutil"
	"github.com/goblimey/go-runlog/internal/handler"
	"github.com/goblimey/go-runlog/internal/schema"
)

// gpsEpochWeekday names the weekday (at 00:00:00) that
// gps_time_storage's millisecond-of-week counter is offset from, per
// text_printer.hpp and gps_time_printer.hpp; decoded gps times print as
// that weekday plus a day count.
const gpsEpochWeekday = "Sunday"

// TextDump prints one tab-separated line per event: the message's
// description, every byte of the frame (header through checksum), and — for timestamp and
// gps_time_storage only — a parenthesised human-readable decoded value.
// Grounded on text_printer.hpp, whose print_value overload set is
// reproduced here as a plain switch on Kind.
type TextDump struct {
	w io.Writer
}

// NewTextDump wraps w.
func NewTextDump(w io.Writer) *TextDump { return &TextDump{w: w} }

// Handle implements handler.Handler.
func (d *TextDump) Handle(bytes []byte, kind schema.Kind, begin, end int) error {
	if kind == schema.KindParseError {
		if _, err := fmt.Fprintf(d.w, "parse_error\t%d bytes\n", end-begin); err != nil {
			return err
		}
		return nil
	}
	if _, err := io.WriteString(d.w, schema.Name(bytes[begin])); err != nil {
		return err
	}
	for i := begin; i < end; i++ {
		if _, err := fmt.Fprintf(d.w, "\t%d", bytes[i]); err != nil {
			return err
		}
	}
	if err := d.printDecoded(bytes, kind, begin, end); err != nil {
		return err
	}
	_, err := io.WriteString(d.w, "\n")
	return err
}

func (d *TextDump) printDecoded(bytes []byte, kind schema.Kind, begin, end int) error {
	payload := bytes[begin+1 : end-1]
	switch kind {
	case schema.KindTimestamp:
		_, err := fmt.Fprintf(d.w, "\t(%d)", byteutil.GetBEUint3(payload))
		return err
	case schema.KindGPSTimeStorage:
		msOfWeek := byteutil.GetBEUint(payload[2:6], 4)
		days := msOfWeek / (24 * 3600 * 1000)
		remainder := msOfWeek % (24 * 3600 * 1000)
		h := remainder / 3600000
		m := (remainder % 3600000) / 60000
		s := (remainder % 60000) / 1000
		_, err := fmt.Fprintf(d.w, "\t(%s+%dd %02d:%02d:%02d)", gpsEpochWeekday, days, h, m, s)
		return err
	}
	return nil
}

var _ handler.Handler = (*TextDump)(nil)
