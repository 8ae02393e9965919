package handler

import (
	"testing"

	"github.com/goblimey/go-runlog/internal/schema"
)

type collectingHandler struct {
	kinds []schema.Kind
}

func (c *collectingHandler) Handle(bytes []byte, kind schema.Kind, begin, end int) error {
	c.kinds = append(c.kinds, kind)
	return nil
}

// fakeRescanner treats the whole buffer as one opaque event, just
// enough to exercise FlushThrough without depending on the real
// scanner (which would create an import cycle in this package's tests).
type fakeRescanner struct{}

func (fakeRescanner) Scan(h Handler, bytes []byte) error {
	if len(bytes) == 0 {
		return nil
	}
	return h.Handle(bytes, schema.KindTimestamp, 0, len(bytes))
}

func TestBufferingHandlerFlushThrough(t *testing.T) {
	b := NewBufferingHandler(fakeRescanner{})
	frame := []byte{9, 0, 0, 1, 0x0a}
	b.Push(frame, 0, len(frame))
	if b.Len() != len(frame) {
		t.Fatalf("want %d buffered bytes, got %d", len(frame), b.Len())
	}

	out := &collectingHandler{}
	if err := b.FlushThrough(out); err != nil {
		t.Fatal(err)
	}
	if len(out.kinds) != 1 || out.kinds[0] != schema.KindTimestamp {
		t.Errorf("want one timestamp event, got %v", out.kinds)
	}
	if b.Len() != 0 {
		t.Error("want buffer cleared after flush")
	}
}

func TestBufferingHandlerClear(t *testing.T) {
	b := NewBufferingHandler(fakeRescanner{})
	frame := []byte{9, 0, 0, 1, 0x0a}
	b.Push(frame, 0, len(frame))
	b.Clear()
	if b.Len() != 0 {
		t.Error("want buffer empty after Clear")
	}
}

func TestBufferingHandlerFlushEmptyIsNoop(t *testing.T) {
	b := NewBufferingHandler(fakeRescanner{})
	out := &collectingHandler{}
	if err := b.FlushThrough(out); err != nil {
		t.Fatal(err)
	}
	if len(out.kinds) != 0 {
		t.Errorf("want no events, got %v", out.kinds)
	}
}
