// Package analogue implements spec.md §4.I: a two-pass tabulator that
// aligns every numeric channel onto a common time base and writes it
// out as CSV. Grounded on
// original_source/parse_log/analogue_channel_table.hpp; logs with
// log/slog rather than log.Logger, mirroring the newer style already
// present in rtcm/type1005/message.go alongside the older log.Logger
// used elsewhere in the teacher.
package analogue

import (
	"bufio"
	"fmt"
	"log/slog"
	"time"

	"github.com/goblimey/go-runlog/internal/byteutil"
	"github.com/goblimey/go-runlog/internal/handler"
	"github.com/goblimey/go-runlog/internal/schema"
)

// ticksPerSecond is the logger's timestamp resolution (spec.md's
// GLOSSARY: "one unit ... nominally 1/100 s").
const ticksPerSecond = 100

// Column names one output column: the channel it draws from and the
// header text to print for it.
type Column struct {
	Key  schema.ChannelKey
	Name string
}

// Table is a handler.Handler usable for both passes described in
// spec.md §4.I. Construct with New, run the scan pass by feeding it
// every event, call either UseDiscoveredColumns or SetColumns, call
// BeginEmit, then feed it every event again for the emit pass.
type Table struct {
	logger *slog.Logger

	scanning bool
	order    []schema.ChannelKey
	seen     map[schema.ChannelKey]bool

	columns []Column
	values  map[schema.ChannelKey]float64

	haveFirstTimestamp bool
	firstTimestamp     uint32
	lastTimestamp      uint32

	firstDate       time.Time
	haveDate        bool
	reportingPeriod uint32 // ticks; 0 means "emit on every change"
	haveBoundary    bool
	boundary        uint32

	sep string
	w   *bufio.Writer
}

// New creates a Table in scan-pass mode.
func New(logger *slog.Logger) *Table {
	return &Table{
		logger:   logger,
		scanning: true,
		seen:     make(map[schema.ChannelKey]bool),
		sep:      ";",
	}
}

// FirstDate returns the date captured from the first valid
// date_storage message seen, if any.
func (t *Table) FirstDate() (time.Time, bool) { return t.firstDate, t.haveDate }

// UseDiscoveredColumns fixes the output columns to every channel key
// observed during the scan pass, in discovery order (spec.md §4.I,
// "automatically ... in insertion order").
func (t *Table) UseDiscoveredColumns() {
	t.columns = make([]Column, len(t.order))
	for i, key := range t.order {
		t.columns[i] = Column{Key: key, Name: fmt.Sprintf("%d:%d", key.Header, key.SubIndex)}
	}
}

// SetColumns fixes both the order and the set of output columns
// explicitly (spec.md §4.I, "set_columns").
func (t *Table) SetColumns(columns []Column) {
	t.columns = append([]Column(nil), columns...)
}

// BeginEmit switches the table to the emit pass, writing the header
// row to w. reportingPeriodSeconds is the periodic-reporting interval;
// zero means "emit a row on every value change".
func (t *Table) BeginEmit(w *bufio.Writer, reportingPeriodSeconds float64) error {
	t.scanning = false
	t.w = w
	t.reportingPeriod = uint32(reportingPeriodSeconds * ticksPerSecond)
	t.haveBoundary = false
	t.haveFirstTimestamp = false
	t.values = make(map[schema.ChannelKey]float64, len(t.columns))

	if _, err := fmt.Fprint(w, "time [s]"); err != nil {
		return err
	}
	for _, c := range t.columns {
		if _, err := fmt.Fprintf(w, "%s%s", t.sep, c.Name); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, "\n")
	return err
}

// Handle implements handler.Handler.
func (t *Table) Handle(bytes []byte, kind schema.Kind, begin, end int) error {
	header := bytes[begin]
	payload := bytes[begin+1 : end-1]

	switch kind {
	case schema.KindTimestamp:
		return t.onTimestamp(byteutil.GetBEUint3(payload))
	case schema.KindDateStorage:
		t.onDate(payload)
		return nil
	case schema.KindGPSTimeStorage:
		msOfWeek := byteutil.GetBEUint(payload[2:6], 4)
		return t.newValue(schema.ChannelKey{Header: header}, float64(msOfWeek)/1000.0)
	case schema.KindGPSPosition, schema.KindAccelerations, schema.KindGPSRawSpeed,
		schema.KindAnalogue, schema.KindExternalTemperature, schema.KindExternalAuxiliary,
		schema.KindExternalFrequency, schema.KindExternalMisc:
		return t.onGeneric(header, payload)
	}
	return nil
}

func (t *Table) onGeneric(header byte, payload []byte) error {
	e, ok := schema.Lookup(header)
	if !ok {
		return nil
	}
	subIndex, values := e.Decode(payload)
	for i, fv := range values {
		idx := byte(i)
		if len(e.Fields) > 0 && e.Fields[0].Kind == schema.FieldChannelID {
			idx = subIndex
		}
		if err := t.newValue(schema.ChannelKey{Header: header, SubIndex: idx}, fv.Cooked); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) onTimestamp(v uint32) error {
	t.lastTimestamp = v
	if !t.haveFirstTimestamp {
		t.firstTimestamp = v
		t.haveFirstTimestamp = true
	}
	if t.scanning || t.reportingPeriod == 0 {
		return nil
	}
	if !t.haveBoundary {
		t.boundary = v + t.reportingPeriod
		t.haveBoundary = true
		return nil
	}
	if v > t.boundary {
		seconds := float64(t.boundary-t.firstTimestamp-t.reportingPeriod) / ticksPerSecond
		if err := t.emitRow(seconds); err != nil {
			return err
		}
		t.boundary += t.reportingPeriod
	}
	return nil
}

// onDate captures the first valid date_storage message (spec.md §4.I:
// "it does not appear as a column"). An invalid calendar date is
// silently skipped (spec.md §7, "Date parse anomaly").
func (t *Table) onDate(payload []byte) {
	if t.haveDate {
		return
	}
	e, _ := schema.Lookup(5)
	_, values := e.Decode(payload)
	field := make(map[string]float64, len(values))
	for _, fv := range values {
		field[fv.Name] = fv.Cooked
	}
	year, month, day := int(field["year"]), int(field["month"]), int(field["day"])
	hour, minute, second := int(field["hour"]), int(field["minute"]), int(field["second"])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		t.logger.Debug("skipping invalid date_storage message", "year", year, "month", month, "day", day)
		return
	}
	d := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	if d.Day() != day || int(d.Month()) != month {
		t.logger.Debug("skipping invalid calendar date", "year", year, "month", month, "day", day)
		return
	}
	t.firstDate = d
	t.haveDate = true
}

func (t *Table) newValue(key schema.ChannelKey, value float64) error {
	if t.scanning {
		if !t.seen[key] {
			t.seen[key] = true
			t.order = append(t.order, key)
		}
		return nil
	}
	t.values[key] = value
	if t.reportingPeriod == 0 {
		seconds := float64(t.lastTimestamp-t.firstTimestamp) / ticksPerSecond
		return t.emitRow(seconds)
	}
	return nil
}

func (t *Table) emitRow(seconds float64) error {
	if _, err := fmt.Fprintf(t.w, "%.8g", seconds); err != nil {
		return err
	}
	for _, c := range t.columns {
		if _, err := fmt.Fprintf(t.w, "%s%.8g", t.sep, t.values[c.Key]); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(t.w, "\n")
	return err
}

var _ handler.Handler = (*Table)(nil)
