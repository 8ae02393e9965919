// Package clockcorrect implements spec.md §4.E: the nested state
// machine that watches for a TGT wedge — a tight (timestamp, GPS time,
// timestamp) triple — and reprograms a slopecorrect.Corrector each time
// one is found, buffering everything else in the meantime. There is no
// teacher analogue (RTCM devices are already on GPS time, so
// goblimey/go-ntrip never needs to correlate two clocks); this package
// is built directly from spec.md §4.E/§8 and grounded on
// original_source/parse_log/timestamp_correction.hpp for the exact
// wedge/flush arithmetic, expressed as the explicit state enums +
// transition function spec.md §9 asks for in place of the source's
// third-party state-machine framework.
package clockcorrect

import (
	"github.com/goblimey/go-runlog/internal/byteutil"
	"github.com/goblimey/go-runlog/internal/handler"
	"github.com/goblimey/go-runlog/internal/scanner"
	"github.com/goblimey/go-runlog/internal/schema"
	"github.com/goblimey/go-runlog/internal/slopecorrect"
)

// gpsTickRatio is the number of GPS milliseconds per logger tick
// (spec.md §4.E).
const gpsTickRatio = 10

// basePivot is the fixed value the first corrected timestamp is
// rebased to, so that timestamps from before the first wedge don't go
// negative (spec.md §4.E).
const basePivot = 15000

// wedgeGapTicks bounds how tight a (timestamp, timestamp) bracket must
// be to count as a wedge (spec.md §4.E: "T2.value - T1.value < 10 ticks").
const wedgeGapTicks = 10

type outerState int

const (
	outerInitial outerState = iota
	outerSearching
)

type innerState int

const (
	innerSearching innerState = iota
	innerTSFound
	innerGPSFound
)

// SM is the clock-correction state machine. It is a pipeline
// handler.Handler: construct it with the downstream corrector (and the
// Handler chain beyond it) and feed it every event from upstream.
type SM struct {
	downstream handler.Handler
	corrector  *slopecorrect.Corrector
	buf        *handler.BufferingHandler

	outer outerState
	inner innerState

	lastTimestamp uint32
	lastGPSTime   uint32

	firstTimestamp uint32
	firstGPSTime   uint32

	prevWedgeT, prevWedgeG uint32
	haveWedge              bool // at least one wedge has been seen
	haveFlushed            bool // real (non-fallback) flush math has run at least once
}

// New creates a clock-correction state machine whose slope corrector
// feeds downstream.
func New(downstream handler.Handler) *SM {
	corrector := slopecorrect.New(downstream)
	return &SM{
		downstream: downstream,
		corrector:  corrector,
		buf:        handler.NewBufferingHandler(handler.RescanFunc(scanner.Scan)),
	}
}

// Handle implements handler.Handler. Every event, including the
// timestamp and GPS events that drive the state machine, is appended
// to the buffer verbatim (spec.md §4.E, "Buffer contents"); only
// timestamp and GPS-time events additionally drive a state transition.
func (sm *SM) Handle(bytes []byte, kind schema.Kind, begin, end int) error {
	sm.buf.Push(bytes, begin, end)

	switch kind {
	case schema.KindTimestamp:
		v := byteutil.GetBEUint3(bytes[begin+1 : begin+4])
		return sm.onTimestamp(v)
	case schema.KindGPSTimeStorage:
		g := uint32(byteutil.GetBEUint(bytes[begin+3:begin+7], 4))
		sm.onGPS(g)
	}
	return nil
}

func (sm *SM) close(t uint32) bool {
	return t > sm.lastTimestamp && t-sm.lastTimestamp < wedgeGapTicks
}

func (sm *SM) onTimestamp(t uint32) error {
	switch sm.inner {
	case innerSearching:
		sm.inner = innerTSFound
		sm.lastTimestamp = t
	case innerTSFound:
		sm.lastTimestamp = t
	case innerGPSFound:
		if sm.close(t) {
			return sm.exit(t)
		}
		sm.inner = innerTSFound
		sm.lastTimestamp = t
	}
	return nil
}

func (sm *SM) onGPS(g uint32) {
	switch sm.inner {
	case innerSearching:
		// searching --gps--> searching: no reference timestamp yet, ignore.
	case innerTSFound:
		sm.inner = innerGPSFound
		sm.lastGPSTime = g
	case innerGPSFound:
		sm.inner = innerSearching
	}
}

// exit fires when a wedge (T1, G, T2) is detected: T1 is sm.lastTimestamp
// (set before this call), G is sm.lastGPSTime, T2 is t.
func (sm *SM) exit(t uint32) error {
	wedgeT, wedgeG := sm.lastTimestamp, sm.lastGPSTime
	sm.inner = innerSearching

	if sm.outer == outerInitial {
		sm.firstTimestamp, sm.firstGPSTime = wedgeT, wedgeG
		sm.prevWedgeT, sm.prevWedgeG = wedgeT, wedgeG
		sm.outer = outerSearching
		sm.haveWedge = true
		return nil
	}

	if err := sm.flush(wedgeT, wedgeG); err != nil {
		return err
	}
	sm.prevWedgeT, sm.prevWedgeG = wedgeT, wedgeG
	return nil
}

// flush programs the corrector from the previous and current wedges
// and replays the buffer through it (spec.md §4.E, "Flush math").
func (sm *SM) flush(t, g uint32) error {
	tp, gp := sm.prevWedgeT, sm.prevWedgeG

	correctedPivot := int64(gp-sm.firstGPSTime)/gpsTickRatio + basePivot
	skew := (float64(g-gp) / gpsTickRatio) / float64(t-tp)

	sm.corrector.SetSkew(tp, uint32(correctedPivot), skew)
	sm.corrector.SetAllowedRange(tp, t)
	sm.haveFlushed = true

	return sm.buf.FlushThrough(sm.corrector)
}

// Close must be called once at end of stream: it allows all
// timestamps through and replays whatever remains buffered using the
// last programmed skew (spec.md §4.E, "Final flush"). If no wedge ever
// produced real flush math (zero or one wedge seen in the whole
// stream), there is no skew to fall back on, so this rebases every
// buffered timestamp to basePivot with an identity slope — the same
// non-negative-rebasing spec.md §4.E describes for the very first
// wedge, applied here because that rebasing never got a second wedge
// to ride on.
func (sm *SM) Close() error {
	if !sm.haveFlushed {
		pivot := sm.prevWedgeT // zero if no wedge was ever seen
		sm.corrector.SetSkew(pivot, basePivot, 1.0)
	}
	sm.corrector.AllowAll()
	return sm.buf.FlushThrough(sm.corrector)
}
