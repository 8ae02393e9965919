// Package byteutil provides pure big/little-endian extraction helpers
// over short byte slices, the way rtcm/utils pulls bit extraction out
// of the message decoders in the teacher repo. Unlike that package,
// every field in this protocol is byte-aligned, so the helpers here
// work a byte at a time rather than a bit at a time.
package byteutil

// GetBEUint reads the first n bytes of b as a big-endian unsigned
// integer. n must be between 1 and 8 inclusive.
func GetBEUint(b []byte, n int) uint64 {
	var v uint64
	for i := 0; i < n; i++ {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// GetLEUint reads the first n bytes of b as a little-endian unsigned
// integer. n must be between 1 and 8 inclusive.
func GetLEUint(b []byte, n int) uint64 {
	var v uint64
	for i := n - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// GetBEInt reads the first n bytes of b as a big-endian two's
// complement signed integer, sign-extending from bit n*8-1.
func GetBEInt(b []byte, n int) int64 {
	return signExtend(GetBEUint(b, n), n)
}

// GetLEInt reads the first n bytes of b as a little-endian two's
// complement signed integer, sign-extending from bit n*8-1.
func GetLEInt(b []byte, n int) int64 {
	return signExtend(GetLEUint(b, n), n)
}

func signExtend(v uint64, n int) int64 {
	bits := uint(n * 8)
	signBit := uint64(1) << (bits - 1)
	if v&signBit != 0 {
		v -= uint64(1) << bits
	}
	return int64(v)
}

// GetBEUint3 reads a 3-byte big-endian unsigned integer — the shape of
// the logger's internal timestamp channel (spec.md §3).
func GetBEUint3(b []byte) uint32 {
	return uint32(GetBEUint(b, 3))
}

// PutBEUint3 writes v, masked to 24 bits, into b[0:3] big-endian.
func PutBEUint3(b []byte, v uint32) {
	v &= 0xffffff
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}
