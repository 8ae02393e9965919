package scanner

import (
	"testing"

	"github.com/goblimey/go-runlog/internal/schema"
)

type recordedEvent struct {
	kind       schema.Kind
	begin, end int
}

type recordingHandler struct {
	events []recordedEvent
}

func (r *recordingHandler) Handle(bytes []byte, kind schema.Kind, begin, end int) error {
	r.events = append(r.events, recordedEvent{kind, begin, end})
	return nil
}

func TestScanEmptyInput(t *testing.T) {
	r := &recordingHandler{}
	if err := Scan(r, nil); err != nil {
		t.Fatal(err)
	}
	if len(r.events) != 0 {
		t.Errorf("want zero events, got %v", r.events)
	}
}

func TestScanSingleTimestamp(t *testing.T) {
	r := &recordingHandler{}
	bytes := []byte{0x09, 0x00, 0x00, 0x0a, 0x13}
	if err := Scan(r, bytes); err != nil {
		t.Fatal(err)
	}
	want := []recordedEvent{{schema.KindTimestamp, 0, 5}}
	if !eventsEqual(r.events, want) {
		t.Errorf("want %v, got %v", want, r.events)
	}
}

func TestScanBadChecksumIsAllParseError(t *testing.T) {
	r := &recordingHandler{}
	bytes := []byte{0x09, 0x00, 0x00, 0x0a, 0x14}
	if err := Scan(r, bytes); err != nil {
		t.Fatal(err)
	}
	want := []recordedEvent{{schema.KindParseError, 0, 5}}
	if !eventsEqual(r.events, want) {
		t.Errorf("want %v, got %v", want, r.events)
	}
}

func TestScanLeadingGarbageThenFrame(t *testing.T) {
	r := &recordingHandler{}
	bytes := []byte{0xff, 0x09, 0x00, 0x00, 0x0a, 0x13}
	if err := Scan(r, bytes); err != nil {
		t.Fatal(err)
	}
	want := []recordedEvent{
		{schema.KindParseError, 0, 1},
		{schema.KindTimestamp, 1, 6},
	}
	if !eventsEqual(r.events, want) {
		t.Errorf("want %v, got %v", want, r.events)
	}
}

func TestScanTrailingGarbage(t *testing.T) {
	r := &recordingHandler{}
	bytes := []byte{0x09, 0x00, 0x00, 0x0a, 0x13, 0xff, 0xfe}
	if err := Scan(r, bytes); err != nil {
		t.Fatal(err)
	}
	want := []recordedEvent{
		{schema.KindTimestamp, 0, 5},
		{schema.KindParseError, 5, 7},
	}
	if !eventsEqual(r.events, want) {
		t.Errorf("want %v, got %v", want, r.events)
	}
}

func TestScanVariableZeroLengthFrame(t *testing.T) {
	r := &recordingHandler{}
	// header 90 (diagnostic_trace), length byte 0, checksum = 90+0 = 90.
	bytes := []byte{90, 0, 90}
	if err := Scan(r, bytes); err != nil {
		t.Fatal(err)
	}
	want := []recordedEvent{{schema.KindDiagnosticTrace, 0, 3}}
	if !eventsEqual(r.events, want) {
		t.Errorf("want %v, got %v", want, r.events)
	}
}

func TestScanIdempotent(t *testing.T) {
	bytes := []byte{0xff, 0x09, 0x00, 0x00, 0x0a, 0x13, 0x00}

	first := &recordingHandler{}
	if err := Scan(first, bytes); err != nil {
		t.Fatal(err)
	}

	// Reconstruct the byte stream implied by the first scan's events and
	// scan it again: the two event sequences must match (spec.md §8,
	// scanner idempotence).
	var replay []byte
	for _, e := range first.events {
		replay = append(replay, bytes[e.begin:e.end]...)
	}
	second := &recordingHandler{}
	if err := Scan(second, replay); err != nil {
		t.Fatal(err)
	}

	if len(first.events) != len(second.events) {
		t.Fatalf("event count differs: %v vs %v", first.events, second.events)
	}
	for i := range first.events {
		if first.events[i].kind != second.events[i].kind {
			t.Errorf("event %d kind differs: %v vs %v", i, first.events[i], second.events[i])
		}
	}
}

func TestScanByteCoverageInvariant(t *testing.T) {
	bytes := []byte{0xff, 0x09, 0x00, 0x00, 0x0a, 0x13, 0x00, 0xfe}
	r := &recordingHandler{}
	if err := Scan(r, bytes); err != nil {
		t.Fatal(err)
	}
	total := 0
	for i, e := range r.events {
		if e.begin != total {
			t.Fatalf("event %d begins at %d, expected %d (gap or overlap)", i, e.begin, total)
		}
		total = e.end
	}
	if total != len(bytes) {
		t.Errorf("events cover %d bytes, want %d", total, len(bytes))
	}
}

func eventsEqual(got, want []recordedEvent) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
