// Package scanner is the table-driven framer spec.md §4.C describes: it
// walks an in-memory buffer once, recognises framed messages by header
// and checksum, and calls a handler.Handler for each one, synthesising
// a schema.KindParseError event for every run of bytes it can't frame.
//
// It is grounded on rtcm/handler/handler.go's
// ReadNextRTCM3MessageFrame/GetMessage pair (candidate-byte search,
// length decode, checksum verify) but re-architected from the
// teacher's io.Reader/bufio streaming style to operate on a borrowed
// []byte, per spec.md §9 ("Design the scanner to accept the input as a
// borrowed byte slice so two passes are zero-copy").
package scanner

import (
	"github.com/goblimey/go-runlog/internal/checksum"
	"github.com/goblimey/go-runlog/internal/handler"
	"github.com/goblimey/go-runlog/internal/schema"
)

// Scan walks bytes once and calls h.Handle for each framed event and
// for each run of bytes it could not frame (spec.md §4.C). It returns
// the first error h.Handle returns, stopping immediately — the scanner
// itself never fails.
func Scan(h handler.Handler, bytes []byte) error {
	cursor := 0
	garbageBegin := 0

	for cursor < len(bytes) {
		size, kind, ok := candidate(bytes[cursor:])
		if !ok {
			cursor++
			continue
		}

		if garbageBegin < cursor {
			if err := h.Handle(bytes, schema.KindParseError, garbageBegin, cursor); err != nil {
				return err
			}
		}
		end := cursor + size
		if err := h.Handle(bytes, kind, cursor, end); err != nil {
			return err
		}
		cursor = end
		garbageBegin = cursor
	}

	if garbageBegin < cursor {
		return h.Handle(bytes, schema.KindParseError, garbageBegin, cursor)
	}
	return nil
}

// candidate looks up the header byte at remaining[0] and, if it is
// known, validates its framing and checksum. ok is false if the header
// is unknown, the frame would run past the end of remaining, or the
// checksum doesn't match — in every one of those cases the caller
// treats the header byte itself as unrecognised and retries one byte
// later, per spec.md §9's "open question" about false headers.
func candidate(remaining []byte) (size int, kind schema.Kind, ok bool) {
	entry, known := schema.Lookup(remaining[0])
	if !known {
		return 0, 0, false
	}
	size, haveEnough := schema.FrameSize(entry, remaining)
	if !haveEnough {
		return 0, 0, false
	}
	if !checksum.Valid(remaining[:size]) {
		return 0, 0, false
	}
	return size, entry.Kind, true
}
