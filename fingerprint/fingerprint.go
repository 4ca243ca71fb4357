// Package fingerprint implements the 64-bit state digests used by the
// checker to deduplicate visited states and to link each state to its
// predecessor. Digests are produced with keyed HighwayHash over a
// deterministic little-endian encoding of the state's fields, so equal
// field values always yield equal fingerprints.
package fingerprint

import (
	"github.com/minio/highwayhash"
	"github.com/visualzhou/go-model-checker/encoding/bytesutil"
)

// Fingerprint names a state for deduplication and predecessor linking.
// Two distinct states mapping to the same fingerprint are treated as one,
// which under-explores the space; the probability is negligible for the
// state-space sizes this checker targets.
type Fingerprint uint64

// None is the reserved fingerprint of a state with no predecessor.
const None Fingerprint = 0

// hashKey is the fixed HighwayHash key. Runs must hash identically across
// processes so traces and statistics are reproducible.
var hashKey = [32]byte{
	0x4d, 0x6f, 0x64, 0x65, 0x6c, 0x43, 0x68, 0x65,
	0x63, 0x6b, 0x65, 0x72, 0x46, 0x69, 0x6e, 0x67,
	0x65, 0x72, 0x70, 0x72, 0x69, 0x6e, 0x74, 0x4b,
	0x65, 0x79, 0x56, 0x30, 0x31, 0x2e, 0x30, 0x30,
}

// Hash digests an encoded state.
func Hash(data []byte) Fingerprint {
	return Fingerprint(highwayhash.Sum64(data, hashKey[:]))
}

// Digest accumulates the semantically significant fields of a state and
// produces its fingerprint. Writes are order-sensitive and variable-length
// values are length-prefixed, so no two distinct field sequences share an
// encoding.
type Digest struct {
	buf []byte
}

// NewDigest returns an empty digest.
func NewDigest() *Digest {
	return &Digest{buf: make([]byte, 0, 64)}
}

// WriteUint64 appends one integer field.
func (d *Digest) WriteUint64(v uint64) {
	d.buf = append(d.buf, bytesutil.Bytes8(v)...)
}

// WriteInt appends one signed integer field.
func (d *Digest) WriteInt(v int) {
	d.buf = append(d.buf, bytesutil.Bytes8(uint64(v))...)
}

// WriteBool appends one boolean field.
func (d *Digest) WriteBool(v bool) {
	if v {
		d.buf = append(d.buf, 1)
	} else {
		d.buf = append(d.buf, 0)
	}
}

// WriteUint64Slice appends a variable-length field with a length prefix.
func (d *Digest) WriteUint64Slice(vs []uint64) {
	d.buf = append(d.buf, bytesutil.Bytes8(uint64(len(vs)))...)
	for _, v := range vs {
		d.buf = append(d.buf, bytesutil.Bytes8(v)...)
	}
}

// Sum returns the fingerprint of everything written so far.
func (d *Digest) Sum() Fingerprint {
	return Hash(d.buf)
}
