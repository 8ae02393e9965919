package analogue

import (
	"bufio"
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/goblimey/go-runlog/internal/checksum"
	"github.com/goblimey/go-runlog/internal/schema"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func timestampFrame(v uint32) []byte {
	frame := make([]byte, 5)
	frame[0] = 9
	frame[1] = byte(v >> 16)
	frame[2] = byte(v >> 8)
	frame[3] = byte(v)
	frame[4] = checksum.Sum(frame[:4])
	return frame
}

func analogueFrame(header byte, cooked float64) []byte {
	e, _ := schema.Lookup(header)
	payload := e.Encode(0, []float64{cooked})
	frame := append([]byte{header}, payload...)
	return append(frame, checksum.Sum(frame))
}

func dateFrame(year, month, day, hour, minute, second int) []byte {
	e, _ := schema.Lookup(5)
	payload := e.Encode(0, []float64{
		float64(second), float64(minute), float64(hour), float64(day), float64(month), float64(year),
	})
	frame := append([]byte{5}, payload...)
	return append(frame, checksum.Sum(frame))
}

func feed(t *testing.T, tbl *Table, frame []byte, kind schema.Kind) {
	t.Helper()
	if err := tbl.Handle(frame, kind, 0, len(frame)); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoveredColumnsPreserveInsertionOrder(t *testing.T) {
	tbl := New(discardLogger())

	feed(t, tbl, timestampFrame(0), schema.KindTimestamp)
	feed(t, tbl, analogueFrame(25, 1.0), schema.KindAnalogue)
	feed(t, tbl, analogueFrame(20, 2.0), schema.KindAnalogue) // discovered second despite lower header
	feed(t, tbl, timestampFrame(10), schema.KindTimestamp)

	tbl.UseDiscoveredColumns()
	if len(tbl.columns) != 2 {
		t.Fatalf("want 2 columns, got %d", len(tbl.columns))
	}
	if tbl.columns[0].Key.Header != 25 || tbl.columns[1].Key.Header != 20 {
		t.Errorf("want insertion order [25, 20], got %v", tbl.columns)
	}
}

func TestEmitOnEveryChange(t *testing.T) {
	tbl := New(discardLogger())
	feed(t, tbl, timestampFrame(0), schema.KindTimestamp)
	feed(t, tbl, analogueFrame(20, 1.5), schema.KindAnalogue)
	tbl.UseDiscoveredColumns()

	var out bytes.Buffer
	w := bufio.NewWriter(&out)
	if err := tbl.BeginEmit(w, 0); err != nil {
		t.Fatal(err)
	}

	feed(t, tbl, timestampFrame(0), schema.KindTimestamp)
	feed(t, tbl, analogueFrame(20, 1.5), schema.KindAnalogue)
	feed(t, tbl, timestampFrame(100), schema.KindTimestamp)
	feed(t, tbl, analogueFrame(20, 2.5), schema.KindAnalogue)
	w.Flush()

	got := out.String()
	wantHeader := "time [s];20:0\n"
	if got[:len(wantHeader)] != wantHeader {
		t.Fatalf("want header %q, got %q", wantHeader, got)
	}
	if !bytes.Contains([]byte(got), []byte("1.5")) || !bytes.Contains([]byte(got), []byte("2.5")) {
		t.Errorf("want both values present, got %q", got)
	}
}

func TestEmitPeriodicSkipsFirstPartialInterval(t *testing.T) {
	tbl := New(discardLogger())
	feed(t, tbl, timestampFrame(0), schema.KindTimestamp)
	feed(t, tbl, analogueFrame(20, 1.0), schema.KindAnalogue)
	tbl.UseDiscoveredColumns()

	var out bytes.Buffer
	w := bufio.NewWriter(&out)
	if err := tbl.BeginEmit(w, 1.0); err != nil { // 100-tick period
		t.Fatal(err)
	}

	feed(t, tbl, timestampFrame(0), schema.KindTimestamp)   // establishes the boundary at 100, no row
	feed(t, tbl, timestampFrame(150), schema.KindTimestamp) // crosses 100: first real row
	feed(t, tbl, timestampFrame(250), schema.KindTimestamp) // crosses 200: second real row
	w.Flush()

	lines := bytes.Split(bytes.TrimRight(out.Bytes(), "\n"), []byte("\n"))
	// header + 2 rows
	if len(lines) != 3 {
		t.Fatalf("want header + 2 rows, got %d lines: %q", len(lines), out.String())
	}
}

func TestDateStorageCapturesFirstValidDate(t *testing.T) {
	tbl := New(discardLogger())
	feed(t, tbl, dateFrame(2019, 7, 4, 12, 30, 45), schema.KindDateStorage)
	feed(t, tbl, dateFrame(2020, 1, 1, 0, 0, 0), schema.KindDateStorage) // later date: ignored

	d, ok := tbl.FirstDate()
	if !ok {
		t.Fatal("want a captured date")
	}
	if d.Year() != 2019 || d.Month().String() != "July" || d.Day() != 4 {
		t.Errorf("want 2019-07-04, got %v", d)
	}
	if d.Hour() != 12 || d.Minute() != 30 || d.Second() != 45 {
		t.Errorf("want 12:30:45, got %v", d)
	}
}

func TestDateStorageSkipsInvalidCalendarDate(t *testing.T) {
	tbl := New(discardLogger())
	feed(t, tbl, dateFrame(2019, 13, 40, 0, 0, 0), schema.KindDateStorage) // bad month/day
	feed(t, tbl, dateFrame(2019, 7, 4, 1, 2, 3), schema.KindDateStorage)  // first valid date

	d, ok := tbl.FirstDate()
	if !ok {
		t.Fatal("want a captured date")
	}
	if d.Year() != 2019 || d.Month().String() != "July" || d.Day() != 4 {
		t.Errorf("want the first valid date 2019-07-04, got %v", d)
	}
}

func TestGPSPositionProducesThreeColumns(t *testing.T) {
	tbl := New(discardLogger())

	e, _ := schema.Lookup(1)
	payload := e.Encode(0, []float64{1.2345678, -2.3456789, 3.5})
	frame := append([]byte{1}, payload...)
	frame = append(frame, checksum.Sum(frame))

	feed(t, tbl, frame, schema.KindGPSPosition)
	tbl.UseDiscoveredColumns()
	if len(tbl.columns) != 3 {
		t.Fatalf("want 3 discovered columns for gps_position, got %d: %v", len(tbl.columns), tbl.columns)
	}
}
