// Package handler defines the uniform contract every analysis or
// transform in the toolbox is built from (spec.md §4.D): a handler
// receives a typed event — a message kind plus the byte range that
// frames it — and does whatever it does with it. Handlers compose: a
// pipeline handler wraps a downstream Handler and may forward, drop,
// buffer, reorder or synthesise events before passing them on.
//
// This replaces the teacher's CRTP/template handler chains (there is no
// equivalent Go idiom for those) with the interface-based dynamic
// dispatch spec.md §9 calls out as the acceptable re-architecture.
package handler

import "github.com/goblimey/go-runlog/internal/schema"

// Handler is implemented by every sink and pipeline stage in a chain.
// bytes is the buffer the event was framed from; [begin, end) is the
// event's byte range within it (the full framed bytes, header through
// checksum, for a message event; a run of unrecognised/bad-checksum
// bytes for a schema.KindParseError event). Implementations that need
// to keep the data must copy it — bytes is only guaranteed valid for
// the duration of the call.
type Handler interface {
	Handle(bytes []byte, kind schema.Kind, begin, end int) error
}

// Func adapts a plain function to the Handler interface, the way
// http.HandlerFunc adapts a function to http.Handler.
type Func func(bytes []byte, kind schema.Kind, begin, end int) error

func (f Func) Handle(bytes []byte, kind schema.Kind, begin, end int) error {
	return f(bytes, kind, begin, end)
}
