// Package interpolate implements spec.md §4.H: ensuring a minimum
// message frequency for tracked channels by injecting values between
// real observations. Two variants are provided, both present in
// spec.md: RepeatLast re-broadcasts the last observed value on every
// subsequent timestamp tick; Linear interpolates between the
// surrounding two observed values. Grounded on
// original_source/parse_log/interpolator.hpp, which implements the
// Linear variant; RepeatLast is built from spec.md §4.H's own prose,
// which describes that behaviour directly.
package interpolate

import (
	"github.com/goblimey/go-runlog/internal/byteutil"
	"github.com/goblimey/go-runlog/internal/handler"
	"github.com/goblimey/go-runlog/internal/scanner"
	"github.com/goblimey/go-runlog/internal/schema"
)

// RepeatLast forwards every event. On each timestamp it first re-emits,
// for every tracked channel whose value was last seen at a non-zero
// timestamp earlier than this one, that channel's last observed
// auxiliary frame — before forwarding the timestamp itself — so a
// consumer reading the stream sees a value for every such channel at
// (essentially) every tick. A value seen before any timestamp, or at
// timestamp 0, is never re-emitted.
type RepeatLast struct {
	downstream handler.Handler
	tracked    map[schema.ChannelKey]bool

	lastTimestamp uint32
	lastFrame     map[schema.ChannelKey][]byte
	lastSeenAt    map[schema.ChannelKey]uint32
}

// NewRepeatLast wraps downstream, tracking the given set of channels.
func NewRepeatLast(downstream handler.Handler, channels []schema.ChannelKey) *RepeatLast {
	tracked := make(map[schema.ChannelKey]bool, len(channels))
	for _, c := range channels {
		tracked[c] = true
	}
	return &RepeatLast{
		downstream: downstream,
		tracked:    tracked,
		lastFrame:  make(map[schema.ChannelKey][]byte),
		lastSeenAt: make(map[schema.ChannelKey]uint32),
	}
}

// Handle implements handler.Handler.
func (r *RepeatLast) Handle(bytes []byte, kind schema.Kind, begin, end int) error {
	if kind == schema.KindTimestamp {
		t := byteutil.GetBEUint3(bytes[begin+1 : begin+4])
		for key, frame := range r.lastFrame {
			if r.lastSeenAt[key] > 0 && r.lastSeenAt[key] < t {
				if err := scanner.Scan(r.downstream, frame); err != nil {
					return err
				}
				r.lastSeenAt[key] = t
			}
		}
		r.lastTimestamp = t
		return r.downstream.Handle(bytes, kind, begin, end)
	}

	if kind == schema.KindExternalAuxiliary {
		header := bytes[begin]
		payload := bytes[begin+1 : end-1]
		if key, ok := schema.KeyOf(header, payload); ok && r.tracked[key] {
			r.lastFrame[key] = append([]byte(nil), bytes[begin:end]...)
			r.lastSeenAt[key] = r.lastTimestamp
		}
	}

	return r.downstream.Handle(bytes, kind, begin, end)
}
