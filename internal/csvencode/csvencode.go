// Package csvencode implements spec.md §4.J: turning CSV rows back
// into framed, checksummed log messages, guided by a column-definition
// file that maps CSV header strings to schema keys. Grounded on
// original_source/parse_log/csv_to_run.hpp, with the source's
// compile-time handler-factory dispatch replaced by a runtime lookup
// against the schema catalogue (spec.md §9: "compile-time schema →
// runtime dispatch").
package csvencode

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/goblimey/go-runlog/internal/checksum"
	"github.com/goblimey/go-runlog/internal/handler"
	"github.com/goblimey/go-runlog/internal/schema"
)

// columnDefLine matches the column-definition file grammar from
// spec.md §6: "header:sub_index = display_name".
var columnDefLine = regexp.MustCompile(`^(\d+):(\d+)\s*=\s*(.*?)\s*$`)

// ParseColumnDefs reads a column-definition file, mapping each display
// name to the schema key it encodes. Lines that don't match the
// grammar are silently ignored (spec.md §6).
func ParseColumnDefs(r io.Reader) (map[string]schema.ChannelKey, error) {
	list, err := ParseColumnList(r)
	if err != nil {
		return nil, err
	}
	defs := make(map[string]schema.ChannelKey, len(list))
	for _, c := range list {
		defs[c.Name] = c.Key
	}
	return defs, nil
}

// NamedColumn is one line of a column-definition file: a schema key
// and the display name bound to it.
type NamedColumn struct {
	Key  schema.ChannelKey
	Name string
}

// ParseColumnList reads a column-definition file preserving line
// order, for callers (the tnoify verb's fixed analogue-table columns)
// that need the columns in file order rather than as a name→key
// lookup.
func ParseColumnList(r io.Reader) ([]NamedColumn, error) {
	var list []NamedColumn
	s := bufio.NewScanner(r)
	for s.Scan() {
		m := columnDefLine.FindStringSubmatch(s.Text())
		if m == nil {
			continue
		}
		header, err := strconv.Atoi(m[1])
		if err != nil || header < 0 || header > 255 {
			continue
		}
		sub, err := strconv.Atoi(m[2])
		if err != nil || sub < 0 || sub > 255 {
			continue
		}
		list = append(list, NamedColumn{
			Key:  schema.ChannelKey{Header: byte(header), SubIndex: byte(sub)},
			Name: m[3],
		})
	}
	return list, s.Err()
}

// columnBinding is what one CSV column encodes to, or nothing if the
// column header isn't in the column-definition map.
type columnBinding struct {
	key   schema.ChannelKey
	entry schema.Entry
	bound bool
}

// Encoder turns CSV rows into framed messages, handed to downstream.
type Encoder struct {
	downstream handler.Handler
	columns    []columnBinding
}

// NewEncoder builds an Encoder for a CSV whose header row is csvHeader,
// using defs to resolve each column. A column whose name isn't in defs
// is silently ignored (spec.md §7); a column whose name IS in defs but
// whose header byte has no catalogue entry is a schema/encoder error,
// raised here at construction time, before any row is processed.
func NewEncoder(downstream handler.Handler, csvHeader []string, defs map[string]schema.ChannelKey) (*Encoder, error) {
	columns := make([]columnBinding, len(csvHeader))
	for i, name := range csvHeader {
		key, ok := defs[name]
		if !ok {
			continue
		}
		e, ok := schema.Lookup(key.Header)
		if !ok {
			return nil, fmt.Errorf("csvencode: column %q maps to header %d, sub_index %d, which has no encoder", name, key.Header, key.SubIndex)
		}
		columns[i] = columnBinding{key: key, entry: e, bound: true}
	}
	return &Encoder{downstream: downstream, columns: columns}, nil
}

// EncodeRow encodes one CSV data row. Empty cells are skipped (spec.md
// §4.J: "if the cell is non-empty"); a cell that can't be parsed as a
// number is a conversion error, fatal for the file (spec.md §7).
func (enc *Encoder) EncodeRow(row []string) error {
	for i, cell := range row {
		if i >= len(enc.columns) || !enc.columns[i].bound || cell == "" {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return fmt.Errorf("csvencode: cell %q: %w", cell, err)
		}
		b := enc.columns[i]
		payload := b.entry.Encode(b.key.SubIndex, []float64{v})
		frame := append([]byte{b.key.Header}, payload...)
		frame = append(frame, checksum.Sum(frame))
		if err := enc.downstream.Handle(frame, b.entry.Kind, 0, len(frame)); err != nil {
			return err
		}
	}
	return nil
}
