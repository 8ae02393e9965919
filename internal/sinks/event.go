package sinks

import (
	"fmt"
	"io"

	"github.com/goblimey/go-runlog/internal/byteutil"
	"github.com/goblimey/go-runlog/internal/handler"
	"github.com/goblimey/go-runlog/internal/schema"
)

// Event extracts one output row every time a high_res_timer event
// carries triggerValue, combining it with the most recently observed
// gps position, gps time-of-day, odometer distance and elapsed
// logger time. Grounded on data_at_event.hpp; generalised from its
// single hard-coded trigger byte (64) to a configurable value.
type Event struct {
	w            io.Writer
	sourceName   string
	triggerValue float64

	longitude, latitude float64
	gpsMsOfWeek         uint64
	haveGPSTime         bool
	lastDistance        float64
	lastTimestamp       uint32
	firstTimestamp      uint32
}

// NewEvent wraps w, writing the header row immediately if emitHeader.
// sourceName labels every output row (data_at_event.hpp's run-name
// column); triggerValue is the high_res_timer value that fires a row.
func NewEvent(w io.Writer, sourceName string, triggerValue float64, emitHeader bool) (*Event, error) {
	e := &Event{w: w, sourceName: sourceName, triggerValue: triggerValue}
	if emitHeader {
		if _, err := io.WriteString(w, "run,type,distance,time,reltime,longitude,latitude\n"); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// SetSource changes the label attached to subsequently emitted rows,
// letting one Event instance (and its single header row) span several
// input files.
func (e *Event) SetSource(name string) { e.sourceName = name }

// Handle implements handler.Handler.
func (e *Event) Handle(bytes []byte, kind schema.Kind, begin, end int) error {
	payload := bytes[begin+1 : end-1]
	switch kind {
	case schema.KindGPSPosition:
		ent, _ := schema.Lookup(bytes[begin])
		_, values := ent.Decode(payload)
		e.longitude, e.latitude = values[0].Cooked, values[1].Cooked
	case schema.KindGPSTimeStorage:
		e.gpsMsOfWeek = byteutil.GetBEUint(payload[2:6], 4)
		e.haveGPSTime = true
	case schema.KindTimestamp:
		v := byteutil.GetBEUint3(payload)
		if e.firstTimestamp == 0 {
			e.firstTimestamp = v
		}
		e.lastTimestamp = v
	case schema.KindOdometer:
		e.lastDistance = float64(byteutil.GetBEUint(payload, 4)) / 10.0 / 1000.0
	case schema.KindHighResTimer:
		// data_at_event.hpp tests the raw first payload byte, not the
		// decoded 4-byte value: the event type lives in the value
		// field's high-order byte.
		if len(payload) > 0 && float64(payload[0]) == e.triggerValue {
			return e.emit(float64(payload[0]))
		}
	}
	return nil
}

func (e *Event) emit(eventType float64) error {
	reltime := float64(e.lastTimestamp-e.firstTimestamp) / 100.0
	gpsTime := "unknown"
	if e.haveGPSTime {
		remainder := e.gpsMsOfWeek % (24 * 3600 * 1000)
		h := remainder / 3600000
		m := (remainder % 3600000) / 60000
		s := (remainder % 60000) / 1000
		gpsTime = fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	_, err := fmt.Fprintf(e.w, "%s,%g,%g,%s,%g,%.8g,%.8g\n",
		e.sourceName, eventType, e.lastDistance, gpsTime, reltime, e.longitude, e.latitude)
	return err
}

var _ handler.Handler = (*Event)(nil)
