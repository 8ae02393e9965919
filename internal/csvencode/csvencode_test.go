package csvencode

import (
	"strings"
	"testing"

	"github.com/goblimey/go-runlog/internal/checksum"
	"github.com/goblimey/go-runlog/internal/schema"
)

type recordedFrame struct {
	kind  schema.Kind
	frame []byte
}

type recordingHandler struct {
	frames []recordedFrame
}

func (r *recordingHandler) Handle(bytes []byte, kind schema.Kind, begin, end int) error {
	r.frames = append(r.frames, recordedFrame{kind, append([]byte(nil), bytes[begin:end]...)})
	return nil
}

func TestParseColumnDefs(t *testing.T) {
	defs, err := ParseColumnDefs(strings.NewReader(
		"72:3 = cabin_temp\n" +
			"# comment lines don't match and are ignored\n" +
			"58:1=aux1\n" +
			"\n",
	))
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]schema.ChannelKey{
		"cabin_temp": {Header: 72, SubIndex: 3},
		"aux1":       {Header: 58, SubIndex: 1},
	}
	if len(defs) != len(want) {
		t.Fatalf("want %v, got %v", want, defs)
	}
	for name, key := range want {
		if defs[name] != key {
			t.Errorf("%s: want %v, got %v", name, key, defs[name])
		}
	}
}

func TestParseColumnListPreservesFileOrder(t *testing.T) {
	list, err := ParseColumnList(strings.NewReader("58:1=aux1\n72:3 = cabin_temp\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Name != "aux1" || list[1].Name != "cabin_temp" {
		t.Fatalf("want [aux1, cabin_temp] in file order, got %v", list)
	}
}

func TestEncoderUnknownColumnRaisesNoError(t *testing.T) {
	defs := map[string]schema.ChannelKey{"cabin_temp": {Header: 72, SubIndex: 3}}
	out := &recordingHandler{}
	enc, err := NewEncoder(out, []string{"cabin_temp", "unrecognised_column"}, defs)
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.EncodeRow([]string{"-12.3", "999"}); err != nil {
		t.Fatal(err)
	}
	if len(out.frames) != 1 {
		t.Fatalf("want exactly one frame (unknown column ignored), got %d", len(out.frames))
	}
}

func TestEncoderHeaderWithNoCatalogueEntryFailsAtConstruction(t *testing.T) {
	defs := map[string]schema.ChannelKey{"ghost": {Header: 200, SubIndex: 0}}
	out := &recordingHandler{}
	if _, err := NewEncoder(out, []string{"ghost"}, defs); err == nil {
		t.Fatal("want an error for a column mapping to an unknown header")
	}
}

// spec.md §8: schema key (72, 3) (external_temperature, fixed_point
// /10, signed 2 LE), cooked value -12.3, produces payload bytes
// 03, 85, FF (sub_index 3, value -123 little-endian).
func TestEncodeExternalTemperatureRoundtrips(t *testing.T) {
	defs := map[string]schema.ChannelKey{"cabin_temp": {Header: 72, SubIndex: 3}}
	out := &recordingHandler{}
	enc, err := NewEncoder(out, []string{"cabin_temp"}, defs)
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.EncodeRow([]string{"-12.3"}); err != nil {
		t.Fatal(err)
	}
	if len(out.frames) != 1 {
		t.Fatalf("want one frame, got %d", len(out.frames))
	}
	frame := out.frames[0].frame
	payload := frame[1 : len(frame)-1]
	want := []byte{3, 0x85, 0xff}
	for i := range want {
		if payload[i] != want[i] {
			t.Errorf("payload byte %d: want 0x%02x, got 0x%02x", i, want[i], payload[i])
		}
	}
	if !checksum.Valid(frame) {
		t.Errorf("encoded frame fails its own checksum: %v", frame)
	}
}

func TestEncoderSkipsEmptyCells(t *testing.T) {
	defs := map[string]schema.ChannelKey{"cabin_temp": {Header: 72, SubIndex: 3}}
	out := &recordingHandler{}
	enc, err := NewEncoder(out, []string{"cabin_temp"}, defs)
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.EncodeRow([]string{""}); err != nil {
		t.Fatal(err)
	}
	if len(out.frames) != 0 {
		t.Errorf("want no frame for an empty cell, got %d", len(out.frames))
	}
}

func TestEncoderRejectsUnparsableCell(t *testing.T) {
	defs := map[string]schema.ChannelKey{"cabin_temp": {Header: 72, SubIndex: 3}}
	out := &recordingHandler{}
	enc, err := NewEncoder(out, []string{"cabin_temp"}, defs)
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.EncodeRow([]string{"not-a-number"}); err == nil {
		t.Fatal("want a conversion error")
	}
}
