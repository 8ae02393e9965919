package schema

// FieldValue is one decoded, cooked field value from a message payload.
type FieldValue struct {
	Name   string
	Cooked float64
}

// Decode interprets payload (the framed bytes between the header and
// the checksum) according to e's field layout. It returns the channel
// sub-index (0 unless the entry is multiplexed, per spec.md §3) and the
// cooked value of every non-ignored, non-channel_id field in order.
func (e Entry) Decode(payload []byte) (subIndex byte, values []FieldValue) {
	offset := 0
	fields := e.Fields
	if e.multiplexed() {
		subIndex = payload[0]
		offset = 1
		fields = fields[1:]
	}
	values = make([]FieldValue, 0, len(fields))
	for _, f := range fields {
		if f.Kind == FieldIgnore {
			offset += f.byteSize()
			continue
		}
		values = append(values, FieldValue{Name: f.Name, Cooked: f.decode(payload[offset:])})
		offset += f.byteSize()
	}
	return subIndex, values
}

// Encode builds the payload bytes for e from a channel sub-index and
// one cooked value per non-ignored, non-channel_id field, the inverse
// of Decode. It is used by the CSV→log encoder (spec.md §4.J).
func (e Entry) Encode(subIndex byte, cooked []float64) []byte {
	payload := make([]byte, e.PayloadSize())
	offset := 0
	fields := e.Fields
	if e.multiplexed() {
		fields[0].encode(payload, float64(subIndex))
		offset = 1
		fields = fields[1:]
	}
	vi := 0
	for _, f := range fields {
		if f.Kind == FieldIgnore {
			offset += f.byteSize()
			continue
		}
		f.encode(payload[offset:], cooked[vi])
		vi++
		offset += f.byteSize()
	}
	return payload
}
