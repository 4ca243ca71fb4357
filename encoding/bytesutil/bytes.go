// Package bytesutil provides the byte conversion helpers used by the
// fingerprinting code.
package bytesutil

import "encoding/binary"

// Bytes8 returns integer x to bytes in little-endian format, x.to_bytes(8, 'little').
func Bytes8(x uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, x)
	return b
}

// FromBytes8 returns an integer which is decoded from bytes in little-endian format.
// Panics when given fewer than 8 bytes.
func FromBytes8(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

// Bytes4 returns integer x to bytes in little-endian format, x.to_bytes(4, 'little').
func Bytes4(x uint64) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(x))
	return b
}
