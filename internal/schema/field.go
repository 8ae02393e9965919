package schema

import (
	"math"

	"github.com/goblimey/go-runlog/internal/byteutil"
)

// FieldKind is the type of one field within a message payload, per
// spec.md §4.A: "Fields have a type among: unsigned_<N, order>,
// signed_<N, order>, channel_id, ignore<N>, float32,
// fixed_point<integer_field, denominator>."
type FieldKind int

const (
	FieldUnsignedBE FieldKind = iota
	FieldUnsignedLE
	FieldSignedBE
	FieldSignedLE
	FieldChannelID
	FieldIgnore
	FieldFloat32
)

// Field describes one field of a message payload. Denominator is only
// meaningful when non-zero: it turns a plain integer field into a
// fixed_point<integer_field, denominator> field, per spec.md §3
// ("cooked = raw / denominator").
type Field struct {
	Name        string
	Kind        FieldKind
	Size        int // byte width of the underlying integer; ignored for Float32 (always 4) and ChannelID (always 1)
	Denominator float64
}

// byteSize returns how many payload bytes this field occupies.
func (f Field) byteSize() int {
	switch f.Kind {
	case FieldFloat32:
		return 4
	case FieldChannelID:
		return 1
	}
	return f.Size
}

// decode reads the field's raw value starting at payload[0] and
// returns its cooked (denominator-applied) value.
func (f Field) decode(payload []byte) float64 {
	switch f.Kind {
	case FieldUnsignedBE:
		raw := float64(byteutil.GetBEUint(payload, f.Size))
		return f.cook(raw)
	case FieldUnsignedLE:
		raw := float64(byteutil.GetLEUint(payload, f.Size))
		return f.cook(raw)
	case FieldSignedBE:
		raw := float64(byteutil.GetBEInt(payload, f.Size))
		return f.cook(raw)
	case FieldSignedLE:
		raw := float64(byteutil.GetLEInt(payload, f.Size))
		return f.cook(raw)
	case FieldChannelID:
		return float64(payload[0])
	case FieldFloat32:
		bits := uint32(byteutil.GetLEUint(payload, 4))
		return float64(math.Float32frombits(bits))
	default:
		return 0
	}
}

func (f Field) cook(raw float64) float64 {
	if f.Denominator != 0 {
		return raw / f.Denominator
	}
	return raw
}

// encode writes cooked into payload as this field's raw bytes, the
// inverse of decode. It is used by the CSV→log encoder (spec.md §4.J).
func (f Field) encode(payload []byte, cooked float64) {
	raw := cooked
	if f.Denominator != 0 {
		raw = cooked * f.Denominator
	}
	switch f.Kind {
	case FieldUnsignedBE:
		putBE(payload, uint64(int64(raw+sign(raw)*0.5)), f.Size)
	case FieldUnsignedLE:
		putLE(payload, uint64(int64(raw+sign(raw)*0.5)), f.Size)
	case FieldSignedBE:
		putBE(payload, uint64(int64(raw+sign(raw)*0.5))&mask(f.Size), f.Size)
	case FieldSignedLE:
		putLE(payload, uint64(int64(raw+sign(raw)*0.5))&mask(f.Size), f.Size)
	case FieldChannelID:
		payload[0] = byte(int64(raw))
	case FieldFloat32:
		bits := math.Float32bits(float32(cooked))
		putLE(payload, uint64(bits), 4)
	}
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func mask(n int) uint64 {
	if n >= 8 {
		return ^uint64(0)
	}
	return (uint64(1) << (uint(n) * 8)) - 1
}

func putBE(b []byte, v uint64, n int) {
	for i := 0; i < n; i++ {
		b[i] = byte(v >> (uint(n-1-i) * 8))
	}
}

func putLE(b []byte, v uint64, n int) {
	for i := 0; i < n; i++ {
		b[i] = byte(v >> (uint(i) * 8))
	}
}
