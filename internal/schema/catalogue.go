// Package schema is the static catalogue of every message kind the
// logger can produce: headers (or header ranges), frame sizes, and
// field layouts. It is built once, at package init, the way
// erh-gonmea/analyzer/pgn.go builds its PGN table once from a literal
// slice of entries — adapted here from CANboat's bit-level PGN model
// to this protocol's byte-aligned, checksum-framed one.
package schema

import "fmt"

// sizeVariable marks an Entry whose framed size is carried in the
// message itself (spec.md §3: "byte[1] + 3").
const sizeVariable = -1

// Entry describes one catalogue member: a single header, or a
// contiguous range of headers sharing the same layout (spec.md §4.A).
type Entry struct {
	HeaderBegin byte
	HeaderEnd   byte // == HeaderBegin for a singleton entry
	Kind        Kind
	Description string
	Size        int // total framed length (header..checksum), or sizeVariable
	Fields      []Field
}

func (e Entry) isRange() bool { return e.HeaderEnd > e.HeaderBegin }

// PayloadSize returns the number of payload bytes (excluding header
// and checksum) for a fixed-size entry.
func (e Entry) PayloadSize() int {
	n := 0
	for _, f := range e.Fields {
		n += f.byteSize()
	}
	return n
}

// multiplexed reports whether the first field is a channel_id field,
// per spec.md §3 ("sub_index ... is the first payload byte for
// multiplexed messages").
func (e Entry) multiplexed() bool {
	return len(e.Fields) > 0 && e.Fields[0].Kind == FieldChannelID
}

// catalogue is the literal table of known message kinds. Header
// assignments are arbitrary (the logger firmware defines them) but
// fixed and unique, exactly as erh-gonmea/analyzer/pgn.go's literal PGN
// list is fixed and unique by construction check, not by convention.
var catalogue = []Entry{
	{
		HeaderBegin: 1, HeaderEnd: 1, Kind: KindGPSPosition,
		Description: "gps position",
		Size:        1 + 12 + 1,
		Fields: []Field{
			{Name: "longitude", Kind: FieldSignedBE, Size: 4, Denominator: 1e7},
			{Name: "latitude", Kind: FieldSignedBE, Size: 4, Denominator: 1e7},
			{Name: "accuracy", Kind: FieldUnsignedBE, Size: 4, Denominator: 1000},
		},
	},
	{
		HeaderBegin: 2, HeaderEnd: 2, Kind: KindAccelerations,
		Description: "accelerations",
		Size:        1 + 4 + 1,
		Fields: []Field{
			{Name: "x", Kind: FieldSignedBE, Size: 2, Denominator: 256},
			{Name: "y", Kind: FieldSignedBE, Size: 2, Denominator: 256},
		},
	},
	{
		HeaderBegin: 3, HeaderEnd: 3, Kind: KindGPSRawSpeed,
		Description: "gps raw speed",
		Size:        1 + 4 + 1,
		Fields: []Field{
			// Raw is cm/s; cooked is km/h = cm/s * 3.6/100. Expressed as a
			// plain denominator of 100/3.6 so decode()'s raw/denominator
			// shape still applies.
			{Name: "speed", Kind: FieldUnsignedBE, Size: 4, Denominator: 100 / 3.6},
		},
	},
	{
		HeaderBegin: 4, HeaderEnd: 4, Kind: KindGPSTimeStorage,
		Description: "gps time storage",
		Size:        1 + 6 + 1,
		Fields: []Field{
			{Name: "week", Kind: FieldUnsignedBE, Size: 2},
			{Name: "ms_of_week", Kind: FieldUnsignedBE, Size: 4},
		},
	},
	{
		// Payload order matches original_source/parse_log/messages.hpp's
		// date_storage (message<55,10>, 8 payload bytes) and
		// analogue_channel_table.hpp's handle(date_storage, ...): second,
		// minute, hour, day, month, then a 2-byte big-endian *full* year
		// (not a year-since-2000 offset), then a trailing ignored byte.
		HeaderBegin: 5, HeaderEnd: 5, Kind: KindDateStorage,
		Description: "date storage",
		Size:        1 + 8 + 1,
		Fields: []Field{
			{Name: "second", Kind: FieldUnsignedBE, Size: 1},
			{Name: "minute", Kind: FieldUnsignedBE, Size: 1},
			{Name: "hour", Kind: FieldUnsignedBE, Size: 1},
			{Name: "day", Kind: FieldUnsignedBE, Size: 1},
			{Name: "month", Kind: FieldUnsignedBE, Size: 1},
			{Name: "year", Kind: FieldUnsignedBE, Size: 2},
			{Name: "offset", Kind: FieldIgnore, Size: 1},
		},
	},
	{
		HeaderBegin: 6, HeaderEnd: 6, Kind: KindIgnitionStatus,
		Description: "ignition status",
		Size:        1 + 1 + 1,
		Fields: []Field{
			{Name: "on", Kind: FieldUnsignedBE, Size: 1},
		},
	},
	{
		HeaderBegin: 7, HeaderEnd: 7, Kind: KindHighResTimer,
		Description: "high res timer",
		Size:        1 + 4 + 1,
		Fields: []Field{
			{Name: "value", Kind: FieldUnsignedBE, Size: 4},
		},
	},
	{
		HeaderBegin: 8, HeaderEnd: 8, Kind: KindBatteryVoltage,
		Description: "battery voltage",
		Size:        1 + 2 + 1,
		Fields: []Field{
			{Name: "volts", Kind: FieldUnsignedBE, Size: 2, Denominator: 100},
		},
	},
	{
		HeaderBegin: 9, HeaderEnd: 9, Kind: KindTimestamp,
		Description: "timestamp",
		Size:        1 + 3 + 1,
		Fields: []Field{
			{Name: "value", Kind: FieldUnsignedBE, Size: 3},
		},
	},
	{
		HeaderBegin: 11, HeaderEnd: 11, Kind: KindOdometer,
		Description: "odometer",
		Size:        1 + 4 + 1,
		Fields: []Field{
			{Name: "metres", Kind: FieldUnsignedBE, Size: 4, Denominator: 10},
		},
	},
	{
		HeaderBegin: 14, HeaderEnd: 18, Kind: KindExternalFrequency,
		Description: "external frequency",
		Size:        1 + 3 + 1,
		Fields: []Field{
			{Name: "channel", Kind: FieldChannelID},
			{Name: "value", Kind: FieldUnsignedLE, Size: 2, Denominator: 10},
		},
	},
	{
		HeaderBegin: 20, HeaderEnd: 51, Kind: KindAnalogue,
		Description: "analogue channel",
		Size:        1 + 2 + 1,
		Fields: []Field{
			{Name: "value", Kind: FieldUnsignedBE, Size: 2, Denominator: 1000},
		},
	},
	{
		HeaderBegin: 58, HeaderEnd: 61, Kind: KindExternalAuxiliary,
		Description: "external auxiliary",
		Size:        1 + 3 + 1,
		Fields: []Field{
			{Name: "channel", Kind: FieldChannelID},
			{Name: "value", Kind: FieldUnsignedLE, Size: 2, Denominator: 10},
		},
	},
	{
		HeaderBegin: 72, HeaderEnd: 72, Kind: KindExternalTemperature,
		Description: "external temperature",
		Size:        1 + 3 + 1,
		Fields: []Field{
			{Name: "channel", Kind: FieldChannelID},
			{Name: "value", Kind: FieldSignedLE, Size: 2, Denominator: 10},
		},
	},
	{
		HeaderBegin: 73, HeaderEnd: 73, Kind: KindExternalMisc,
		Description: "external misc",
		Size:        1 + 3 + 1,
		Fields: []Field{
			{Name: "channel", Kind: FieldChannelID},
			{Name: "value", Kind: FieldUnsignedLE, Size: 2, Denominator: 100},
		},
	},
	{
		HeaderBegin: 90, HeaderEnd: 90, Kind: KindDiagnosticTrace,
		Description: "diagnostic trace",
		Size:        sizeVariable,
		Fields:      nil, // opaque: consumers that care read the raw bytes directly
	},
}

// table is the 256-slot runtime dispatch table, expanded from
// catalogue at init time, per spec.md §4.A ("internally a 256-slot
// dispatch table").
var table [256]*Entry

func init() {
	for i := range catalogue {
		e := &catalogue[i]
		for h := int(e.HeaderBegin); h <= int(e.HeaderEnd); h++ {
			if table[h] != nil {
				panic(fmt.Sprintf("schema: header %d claimed by both %q and %q",
					h, table[h].Description, e.Description))
			}
			table[h] = e
		}
	}
}

// Lookup returns the catalogue entry claiming header, if any.
func Lookup(header byte) (Entry, bool) {
	e := table[header]
	if e == nil {
		return Entry{}, false
	}
	return *e, true
}

// Iter calls fn for every entry in the catalogue, in declaration order.
// Used by the CSV encoder and by tools that print the full schema.
func Iter(fn func(Entry)) {
	for i := range catalogue {
		fn(catalogue[i])
	}
}

// Name returns the human-readable description of header. For a member
// of a header range the name is "<desc> (i)" where i is the offset
// from the range's first header (spec.md §4.A).
func Name(header byte) string {
	e := table[header]
	if e == nil {
		return "unknown"
	}
	if e.isRange() {
		return fmt.Sprintf("%s (%d)", e.Description, int(header-e.HeaderBegin))
	}
	return e.Description
}

// FrameSize returns the total framed length (header through checksum)
// for a candidate message starting at remaining[0], which must hold
// the matched entry's header byte. ok is false if there is not enough
// data yet to tell (a truncated variable-length message).
func FrameSize(e Entry, remaining []byte) (size int, ok bool) {
	if e.Size != sizeVariable {
		return e.Size, len(remaining) >= e.Size
	}
	if len(remaining) < 2 {
		return 0, false
	}
	size = int(remaining[1]) + 3
	return size, len(remaining) >= size
}
