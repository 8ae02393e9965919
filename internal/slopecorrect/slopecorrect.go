// Package slopecorrect implements spec.md §4.F: a piecewise-linear
// rewrite of timestamp values, with a range filter, verbatim
// pass-through for everything else. Grounded on
// original_source/parse_log/timestamp_correction.hpp's corrector
// component; the teacher's closest analogue is
// rtcm/handler/handler.go's getUTCFromTimestamp, which has the same
// "this counter wraps, handle it without scattering modular-arithmetic
// special cases" posture.
package slopecorrect

import (
	"math"

	"github.com/goblimey/go-runlog/internal/byteutil"
	"github.com/goblimey/go-runlog/internal/checksum"
	"github.com/goblimey/go-runlog/internal/handler"
	"github.com/goblimey/go-runlog/internal/schema"
)

// tickMax is one past the largest 24-bit timestamp value (spec.md §3:
// the timestamp "wraps at 2^24").
const tickMax = 1 << 24

// Corrector rewrites timestamp messages in place according to the
// programmed skew, dropping any timestamp outside the allowed range,
// and forwards every other message verbatim.
type Corrector struct {
	downstream handler.Handler

	pivot, correctedPivot uint32
	skew                  float64

	rangeSet bool
	lo, hi   uint32
}

// New creates a Corrector with no skew programmed and no range
// restriction (equivalent to verbatim pass-through of timestamps too,
// until SetSkew is called).
func New(downstream handler.Handler) *Corrector {
	return &Corrector{downstream: downstream, skew: 1}
}

// SetSkew programs the affine rewrite v' = skew*(v-pivot) + correctedPivot
// (spec.md §4.F).
func (c *Corrector) SetSkew(pivot, correctedPivot uint32, skew float64) {
	c.pivot = pivot
	c.correctedPivot = correctedPivot
	c.skew = skew
}

// SetAllowedRange restricts correction to timestamps within [lo, hi]
// inclusive. If lo > hi the range wraps across the 24-bit timestamp
// space: [lo, max] ∪ [0, hi] (spec.md §4.F).
func (c *Corrector) SetAllowedRange(lo, hi uint32) {
	c.rangeSet = true
	c.lo, c.hi = lo, hi
}

// AllowAll removes any range restriction, as used for the final flush
// at end of stream (spec.md §4.E, "Final flush").
func (c *Corrector) AllowAll() {
	c.rangeSet = false
}

func (c *Corrector) inRange(v uint32) bool {
	if !c.rangeSet {
		return true
	}
	if c.lo <= c.hi {
		return v >= c.lo && v <= c.hi
	}
	return v >= c.lo || v <= c.hi
}

// Handle implements handler.Handler.
func (c *Corrector) Handle(bytes []byte, kind schema.Kind, begin, end int) error {
	if kind != schema.KindTimestamp {
		return c.downstream.Handle(bytes, kind, begin, end)
	}

	v := byteutil.GetBEUint3(bytes[begin+1 : begin+4])
	if !c.inRange(v) {
		return nil
	}

	corrected := c.skew*(float64(v)-float64(c.pivot)) + float64(c.correctedPivot)
	vPrime := uint32(int64(math.Round(corrected))) & (tickMax - 1)

	frame := make([]byte, 5)
	frame[0] = 0x09
	byteutil.PutBEUint3(frame[1:4], vPrime)
	frame[4] = checksum.Sum(frame[:4])

	return c.downstream.Handle(frame, schema.KindTimestamp, 0, 5)
}
