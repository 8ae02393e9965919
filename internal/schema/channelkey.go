package schema

// ChannelKey identifies one data channel within the catalogue: the
// message header plus, for multiplexed entries, the sub-index byte
// that selects among the channels sharing that header (spec.md §3,
// "channel key"). KeyOf keys every non-multiplexed entry on SubIndex 0;
// the analogue table instead gives each field of a multi-field entry
// (gps position, accelerations) its field position as SubIndex.
type ChannelKey struct {
	Header   byte
	SubIndex byte
}

// KeyOf derives the channel key for a frame's header and payload
// (the bytes between the header and the checksum).
func KeyOf(header byte, payload []byte) (key ChannelKey, ok bool) {
	e, found := Lookup(header)
	if !found {
		return ChannelKey{}, false
	}
	sub := byte(0)
	if e.multiplexed() {
		sub = payload[0]
	}
	return ChannelKey{Header: header, SubIndex: sub}, true
}
