// Package islandremove implements spec.md §4.G: dropping lone valid
// messages that are surrounded on both sides by parse-error events —
// the framer's likely false positives. Grounded directly on
// original_source/parse_log/island_removal.hpp.
package islandremove

import (
	"github.com/goblimey/go-runlog/internal/handler"
	"github.com/goblimey/go-runlog/internal/scanner"
	"github.com/goblimey/go-runlog/internal/schema"
)

// Remover is a pipeline handler.Handler. It buffers a candidate
// message until it knows whether the message's right-hand neighbour is
// also valid (forward it) or the stream ends / another error arrives
// (discard it, it was an island).
type Remover struct {
	downstream   handler.Handler
	candidate    *handler.BufferingHandler
	lastWasError bool
}

// New wraps downstream with island removal.
func New(downstream handler.Handler) *Remover {
	return &Remover{
		downstream:   downstream,
		candidate:    handler.NewBufferingHandler(handler.RescanFunc(scanner.Scan)),
		lastWasError: true, // a run starts as if preceded by an error (spec.md §4.G)
	}
}

func (r *Remover) Handle(bytes []byte, kind schema.Kind, begin, end int) error {
	if kind == schema.KindParseError {
		r.candidate.Clear()
		r.lastWasError = true
		return nil
	}

	if r.lastWasError {
		// This message might be an island: it followed an error. Hold it
		// until we see what comes next.
		r.candidate.Clear()
		r.candidate.Push(bytes, begin, end)
	} else {
		// The previous message was valid too, so it can't have been an
		// island. Release it, then forward this one.
		if err := r.candidate.FlushThrough(r.downstream); err != nil {
			return err
		}
		if err := r.downstream.Handle(bytes, kind, begin, end); err != nil {
			return err
		}
	}
	r.lastWasError = false
	return nil
}

// Flush must be called once at end of stream. Any message still held
// in candidate was never followed by another valid message, so by
// construction it was preceded by an error and never got a valid right
// neighbour either: it's an island, and is discarded rather than
// forwarded (spec.md §4.G).
func (r *Remover) Flush() {
	r.candidate.Clear()
}
