package slopecorrect

import (
	"testing"

	"github.com/goblimey/go-runlog/internal/byteutil"
	"github.com/goblimey/go-runlog/internal/checksum"
	"github.com/goblimey/go-runlog/internal/schema"
)

type recordingHandler struct {
	events []struct {
		kind  schema.Kind
		value uint32
		raw   []byte
	}
}

func (r *recordingHandler) Handle(bytes []byte, kind schema.Kind, begin, end int) error {
	frame := append([]byte(nil), bytes[begin:end]...)
	var value uint32
	if kind == schema.KindTimestamp {
		value = byteutil.GetBEUint3(frame[1:4])
	}
	r.events = append(r.events, struct {
		kind  schema.Kind
		value uint32
		raw   []byte
	}{kind, value, frame})
	return nil
}

func timestampFrame(v uint32) []byte {
	frame := make([]byte, 5)
	frame[0] = 0x09
	byteutil.PutBEUint3(frame[1:4], v)
	frame[4] = checksum.Sum(frame[:4])
	return frame
}

func TestCorrectorLinearity(t *testing.T) {
	// spec.md §8: pivot=1000, correctedPivot=2000, skew=2.0, v=1500 -> 3000.
	out := &recordingHandler{}
	c := New(out)
	c.SetSkew(1000, 2000, 2.0)

	frame := timestampFrame(1500)
	if err := c.Handle(frame, schema.KindTimestamp, 0, 5); err != nil {
		t.Fatal(err)
	}
	if len(out.events) != 1 || out.events[0].value != 3000 {
		t.Errorf("want 3000, got %v", out.events)
	}
}

func TestCorrectorPassthroughNonTimestamp(t *testing.T) {
	out := &recordingHandler{}
	c := New(out)
	frame := []byte{1, 2, 3, 4}
	if err := c.Handle(frame, schema.KindGPSPosition, 0, 4); err != nil {
		t.Fatal(err)
	}
	if len(out.events) != 1 {
		t.Fatalf("want one event, got %v", out.events)
	}
	got := out.events[0].raw
	for i := range frame {
		if got[i] != frame[i] {
			t.Fatalf("passthrough altered bytes: want %v got %v", frame, got)
		}
	}
}

func TestCorrectorDropsOutOfRange(t *testing.T) {
	out := &recordingHandler{}
	c := New(out)
	c.SetSkew(0, 0, 1.0)
	c.SetAllowedRange(100, 200)

	if err := c.Handle(timestampFrame(50), schema.KindTimestamp, 0, 5); err != nil {
		t.Fatal(err)
	}
	if len(out.events) != 0 {
		t.Errorf("want the out-of-range timestamp dropped, got %v", out.events)
	}
}

func TestCorrectorWrappingRange(t *testing.T) {
	out := &recordingHandler{}
	c := New(out)
	c.SetSkew(0, 0, 1.0)
	// lo > hi: wrapping range [16000000, max] U [0, 100].
	c.SetAllowedRange(16000000, 100)

	if err := c.Handle(timestampFrame(50), schema.KindTimestamp, 0, 5); err != nil {
		t.Fatal(err)
	}
	if err := c.Handle(timestampFrame(16000050), schema.KindTimestamp, 0, 5); err != nil {
		t.Fatal(err)
	}
	if err := c.Handle(timestampFrame(8000000), schema.KindTimestamp, 0, 5); err != nil {
		t.Fatal(err)
	}
	if len(out.events) != 2 {
		t.Errorf("want the two in-wrapping-range timestamps forwarded, got %d", len(out.events))
	}
}

func TestCorrectorOutputIsChecksumValid(t *testing.T) {
	out := &recordingHandler{}
	c := New(out)
	c.SetSkew(1000, 2000, 2.0)
	if err := c.Handle(timestampFrame(1500), schema.KindTimestamp, 0, 5); err != nil {
		t.Fatal(err)
	}
	raw := out.events[0].raw
	if !checksum.Valid(raw) {
		t.Errorf("corrected frame is not checksum-valid: %v", raw)
	}
}
