// Package inputbuilder implements the host-side half of the binary framing
// contract between host and guest (see Composer in package composer, which
// wraps a Builder internally). The guest consumes the resulting buffer
// positionally: there is no self-describing framing, so host and guest must
// agree on a layout ahead of time. Builder enforces no pattern beyond what
// each individual write method documents — picking a consistent pattern per
// guest program is the caller's responsibility.
package inputbuilder

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Bytes32Len is the fixed size of a write_bytes32 payload.
const Bytes32Len = 32

// ErrInvalidLength is returned by WriteBytes32 when given a slice that is not
// exactly Bytes32Len bytes long.
var ErrInvalidLength = errors.New("inputbuilder: invalid length")

// Builder is an append-only, monotonically growing byte buffer. It is built
// once per Composer.Prove cycle, consumed by the Prover collaborator, and
// then discarded — there is no reset-and-reuse API beyond Clear, which exists
// for callers building several independent inputs in sequence.
type Builder struct {
	data []byte
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

// WriteU32 appends a little-endian uint32 (4 bytes). The guest reads this
// with a fixed-width 4-byte read.
func (b *Builder) WriteU32(v uint32) *Builder {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	b.data = append(b.data, buf[:]...)
	return b
}

// WriteU64 appends a little-endian uint64 (8 bytes). The guest reads this
// with a fixed-width 8-byte read.
func (b *Builder) WriteU64(v uint64) *Builder {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	b.data = append(b.data, buf[:]...)
	return b
}

// WriteBytes32 appends exactly 32 bytes, failing ErrInvalidLength otherwise.
// Used for image IDs, digests, and other fixed-size cryptographic values.
func (b *Builder) WriteBytes32(data []byte) (*Builder, error) {
	if len(data) != Bytes32Len {
		return b, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidLength, len(data), Bytes32Len)
	}
	b.data = append(b.data, data...)
	return b, nil
}

// WriteImageID is an alias for WriteBytes32, documenting intent at call sites
// that are writing a 32-byte image identity rather than an arbitrary digest.
func (b *Builder) WriteImageID(id []byte) (*Builder, error) {
	return b.WriteBytes32(id)
}

// WriteRawBytes appends data with no framing at all. The guest must know the
// exact number of bytes to read ahead of time; mixing this with variable
// length frames requires the caller to pick pattern C (§4.2 of the spec) and
// use WriteFrame/WriteCBORFrame for the variable-length parts.
func (b *Builder) WriteRawBytes(data []byte) *Builder {
	b.data = append(b.data, data...)
	return b
}

// WriteFrame appends data preceded by its length as a little-endian uint64:
// this is the "framed mixing" primitive (pattern C) that lets a guest safely
// interleave variable-length payloads with fixed-width fields.
func (b *Builder) WriteFrame(data []byte) *Builder {
	b.writeLenPrefixed(data)
	return b
}

// WriteCBOR appends pre-encoded CBOR bytes with no length prefix. This is
// legal ONLY when the entire input is a single CBOR object (pattern A) — do
// not mix with other write_* calls on the same Builder unless you are
// building the length-framed variant, WriteCBORFrame.
func (b *Builder) WriteCBOR(cborBytes []byte) *Builder {
	b.data = append(b.data, cborBytes...)
	return b
}

// WriteCBORFrame appends pre-encoded CBOR bytes preceded by their length as a
// little-endian uint64, identical in wire layout to WriteFrame. Use this to
// safely mix a CBOR payload with fixed-width fields (pattern C).
func (b *Builder) WriteCBORFrame(cborBytes []byte) *Builder {
	b.writeLenPrefixed(cborBytes)
	return b
}

// WriteVecBytes appends a length-prefixed byte vector matching the guest's
// typed "length-prefixed byte vector" read. Wire-identical to WriteFrame;
// kept as a distinct name because it documents a distinct guest-side typed
// read rather than a raw framed blob.
func (b *Builder) WriteVecBytes(data []byte) *Builder {
	b.writeLenPrefixed(data)
	return b
}

// WriteString appends a length-prefixed UTF-8 string, matching the guest's
// typed string read.
func (b *Builder) WriteString(s string) *Builder {
	b.writeLenPrefixed([]byte(s))
	return b
}

func (b *Builder) writeLenPrefixed(data []byte) {
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(data)))
	b.data = append(b.data, lenBuf[:]...)
	b.data = append(b.data, data...)
}

// Build returns the serialized bytes, ready to pass to a Prover.
func (b *Builder) Build() []byte {
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// Size returns the current length of the serialized buffer.
func (b *Builder) Size() int {
	return len(b.data)
}

// Clear discards all buffered data, resetting the Builder to empty.
func (b *Builder) Clear() {
	b.data = b.data[:0]
}
