package islandremove

import (
	"testing"

	"github.com/goblimey/go-runlog/internal/scanner"
	"github.com/goblimey/go-runlog/internal/schema"
)

type recordingHandler struct {
	kinds []schema.Kind
}

func (r *recordingHandler) Handle(bytes []byte, kind schema.Kind, begin, end int) error {
	r.kinds = append(r.kinds, kind)
	return nil
}

var timestampFrame = []byte{9, 0, 0, 1, 0x0a}

func TestIslandDiscardedBetweenTwoErrors(t *testing.T) {
	out := &recordingHandler{}
	r := New(out)

	mustHandle(t, r, []byte{0xff}, schema.KindParseError, 0, 1)
	mustHandle(t, r, timestampFrame, schema.KindTimestamp, 0, 5)
	mustHandle(t, r, []byte{0xfe}, schema.KindParseError, 0, 1)
	r.Flush()

	if len(out.kinds) != 0 {
		t.Errorf("want island discarded, got %v", out.kinds)
	}
}

func TestIslandDiscardedAtEndOfStream(t *testing.T) {
	out := &recordingHandler{}
	r := New(out)

	mustHandle(t, r, []byte{0xff}, schema.KindParseError, 0, 1)
	mustHandle(t, r, timestampFrame, schema.KindTimestamp, 0, 5)
	r.Flush()

	if len(out.kinds) != 0 {
		t.Errorf("want island discarded at end of stream, got %v", out.kinds)
	}
}

func TestValidRunIsForwarded(t *testing.T) {
	out := &recordingHandler{}
	r := New(out)

	mustHandle(t, r, []byte{0xff}, schema.KindParseError, 0, 1)
	mustHandle(t, r, timestampFrame, schema.KindTimestamp, 0, 5)
	mustHandle(t, r, timestampFrame, schema.KindTimestamp, 0, 5)
	r.Flush()

	if len(out.kinds) != 2 {
		t.Fatalf("want both messages forwarded, got %v", out.kinds)
	}
	for _, k := range out.kinds {
		if k != schema.KindTimestamp {
			t.Errorf("want timestamp events, got %v", k)
		}
	}
}

func mustHandle(t *testing.T, r *Remover, bytes []byte, kind schema.Kind, begin, end int) {
	t.Helper()
	if err := r.Handle(bytes, kind, begin, end); err != nil {
		t.Fatal(err)
	}
}

// sanity check that the package actually composes with the real scanner.
func TestIslandRemoverEndToEnd(t *testing.T) {
	// garbage, island, garbage, valid, valid
	var input []byte
	input = append(input, 0xfe)
	input = append(input, timestampFrame...)
	input = append(input, 0xfd)
	input = append(input, timestampFrame...)
	input = append(input, timestampFrame...)

	out := &recordingHandler{}
	r := New(out)
	if err := scanner.Scan(r, input); err != nil {
		t.Fatal(err)
	}
	r.Flush()

	if len(out.kinds) != 2 {
		t.Fatalf("want the two adjacent valid messages forwarded, island dropped; got %v", out.kinds)
	}
}
