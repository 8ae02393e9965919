package interpolate

import (
	"github.com/goblimey/go-runlog/internal/byteutil"
	"github.com/goblimey/go-runlog/internal/checksum"
	"github.com/goblimey/go-runlog/internal/handler"
	"github.com/goblimey/go-runlog/internal/scanner"
	"github.com/goblimey/go-runlog/internal/schema"
)

// Linear tracks a single channel and interpolates between the two
// values that bracket a gap, rather than repeating the earlier one.
// Every other event is buffered until the tracked channel produces a
// new value; at that point the buffer is replayed, injecting one
// extra frame for the tracked channel at the first timestamp inside
// the gap, with the value linearly interpolated between the bracketing
// observations (spec.md §4.H; original_source/parse_log/interpolator.hpp).
type Linear struct {
	downstream handler.Handler
	channel    schema.ChannelKey
	buf        *handler.BufferingHandler

	haveValue     bool
	lastValueTime uint32
	lastValue     float64
	lastTimestamp uint32
}

// NewLinear wraps downstream, tracking a single channel key.
func NewLinear(downstream handler.Handler, channel schema.ChannelKey) *Linear {
	return &Linear{
		downstream: downstream,
		channel:    channel,
		buf:        handler.NewBufferingHandler(handler.RescanFunc(scanner.Scan)),
	}
}

// Handle implements handler.Handler.
func (l *Linear) Handle(bytes []byte, kind schema.Kind, begin, end int) error {
	if kind == schema.KindTimestamp {
		l.lastTimestamp = byteutil.GetBEUint3(bytes[begin+1 : begin+4])
		l.buf.Push(bytes, begin, end)
		return nil
	}

	if kind == l.channelKind() {
		header := bytes[begin]
		payload := bytes[begin+1 : end-1]
		if key, ok := schema.KeyOf(header, payload); ok && key == l.channel {
			return l.onValue(header, payload)
		}
	}

	l.buf.Push(bytes, begin, end)
	return nil
}

func (l *Linear) channelKind() schema.Kind {
	e, _ := schema.Lookup(l.channel.Header)
	return e.Kind
}

func (l *Linear) onValue(header byte, payload []byte) error {
	e, _ := schema.Lookup(header)
	_, values := e.Decode(payload)
	newValue := values[0].Cooked

	if !l.haveValue {
		if err := l.flushPlain(); err != nil {
			return err
		}
	} else {
		if err := l.flushInterpolated(e, l.lastValueTime, l.lastValue, l.lastTimestamp, newValue); err != nil {
			return err
		}
	}

	l.haveValue = true
	l.lastValueTime = l.lastTimestamp
	l.lastValue = newValue

	frame := append([]byte(nil), header)
	frame = append(frame, payload...)
	frame = append(frame, checksum.Sum(frame))
	return l.downstream.Handle(frame, e.Kind, 0, len(frame))
}

// flushPlain replays the buffer verbatim: there is no prior value to
// interpolate from yet (spec.md §4.H: "no injected messages" before
// the first tracked value is seen).
func (l *Linear) flushPlain() error {
	return l.buf.FlushThrough(l.downstream)
}

// flushInterpolated replays the buffer, injecting one extra frame for
// the tracked channel at the first timestamp that crosses t0+1, with
// value v(t) = v0 + (v1-v0)*(t-t0)/(t1-t0).
func (l *Linear) flushInterpolated(e schema.Entry, t0 uint32, v0 float64, t1 uint32, v1 float64) error {
	inj := &injector{
		downstream: l.downstream,
		entry:      e,
		header:     l.channel.Header,
		channel:    l.channel.SubIndex,
		t0:         t0,
		v0:         v0,
		t1:         t1,
		v1:         v1,
		nextEmit:   t0 + 1,
	}
	return l.buf.FlushThrough(inj)
}

// injector replays a buffered span of bytes, forwarding everything
// unchanged except that it injects one interpolated value frame the
// first time a buffered timestamp crosses nextEmit.
type injector struct {
	downstream handler.Handler
	entry      schema.Entry
	header     byte
	channel    byte

	t0, t1   uint32
	v0, v1   float64
	nextEmit uint32
	emitted  bool
}

func (inj *injector) Handle(bytes []byte, kind schema.Kind, begin, end int) error {
	if kind != schema.KindTimestamp {
		return inj.downstream.Handle(bytes, kind, begin, end)
	}

	t := byteutil.GetBEUint3(bytes[begin+1 : begin+4])
	if !inj.emitted && t > inj.nextEmit && inj.t1 > inj.t0 {
		v := inj.v0 + (inj.v1-inj.v0)*float64(t-inj.t0)/float64(inj.t1-inj.t0)
		if err := inj.emit(v); err != nil {
			return err
		}
		inj.emitted = true
	}
	return inj.downstream.Handle(bytes, kind, begin, end)
}

func (inj *injector) emit(v float64) error {
	payload := inj.entry.Encode(inj.channel, []float64{v})
	frame := append([]byte{inj.header}, payload...)
	frame = append(frame, checksum.Sum(frame))
	return scanner.Scan(inj.downstream, frame)
}
