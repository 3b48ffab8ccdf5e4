// Package merkledemo is a non-core example guest, standing in for the
// original Rust guest that verified a fixed-depth sparse Merkle membership
// proof and committed the recomputed root alongside a public key.
package merkledemo

import (
	"crypto/sha256"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/garyrob/pyr0/claim"
)

// PathDepth is the fixed Merkle tree depth the original guest hardcoded.
const PathDepth = 16

// InputLen is the exact fixed-width input size: k_pub + r + e (3*32) plus
// PathDepth sibling hashes (PathDepth*32) plus PathDepth direction bytes.
const InputLen = 32*3 + PathDepth*32 + PathDepth

// Output is the committed journal, CBOR-encoded (the Go analogue of the
// original's Borsh serialization).
type Output struct {
	Root [32]byte `cbor:"root"`
	KPub [32]byte `cbor:"k_pub"`
}

func hashNodes(left, right [32]byte) [32]byte {
	h := sha256.New()
	h.Write(left[:])
	h.Write(right[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func computeLeaf(kPub, r, e [32]byte) [32]byte {
	h := sha256.New()
	h.Write(kPub[:])
	h.Write(r[:])
	h.Write(e[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Program reads the fixed-width input written via Composer.WriteRawBytes
// (pattern B), recomputes the Merkle root from the leaf commitment and
// path, and commits the CBOR-encoded Output.
func Program(input []byte, _ [][]byte) ([]byte, claim.ExitStatus, error) {
	if len(input) != InputLen {
		return nil, claim.ExitStatus{}, fmt.Errorf("demo/merkle: expected %d input bytes, got %d", InputLen, len(input))
	}

	off := 0
	read32 := func() [32]byte {
		var b [32]byte
		copy(b[:], input[off:off+32])
		off += 32
		return b
	}

	kPub := read32()
	r := read32()
	e := read32()

	path := make([][32]byte, PathDepth)
	for i := range path {
		path[i] = read32()
	}
	indices := make([]bool, PathDepth)
	for i := range indices {
		indices[i] = input[off] != 0
		off++
	}

	current := computeLeaf(kPub, r, e)
	for i, sibling := range path {
		if indices[i] {
			current = hashNodes(sibling, current)
		} else {
			current = hashNodes(current, sibling)
		}
	}

	journal, err := cbor.Marshal(Output{Root: current, KPub: kPub})
	if err != nil {
		return nil, claim.ExitStatus{}, fmt.Errorf("demo/merkle: %w", err)
	}
	return journal, claim.Halt(0), nil
}
