// Package testutil provides small, deterministic fixture builders for tests:
// synthetic image identities and receipts that don't require a real Prover
// backend to construct.
package testutil

import (
	"github.com/garyrob/pyr0/claim"
	"github.com/garyrob/pyr0/image"
	"github.com/garyrob/pyr0/receipt"
)

// ImageID builds a deterministic Identity from a single repeated seed byte.
func ImageID(seed byte) image.Identity {
	b := make([]byte, image.Len)
	for i := range b {
		b[i] = seed
	}
	id, err := image.FromTrustedBytes(b)
	if err != nil {
		panic(err) // unreachable: b is always exactly image.Len bytes
	}
	return id
}

// SuccinctReceipt builds an unconditional, successful Receipt for the given
// seed image, journal, and a fixed placeholder seal.
func SuccinctReceipt(seed byte, journal []byte) receipt.Receipt {
	cl := claim.New(ImageID(seed), journal, claim.Halt(0))
	return receipt.New([]byte{seed}, receipt.Succinct, &cl, 0)
}

// CompositeReceipt builds a conditional Receipt carrying assumptionCount
// unresolved assumptions.
func CompositeReceipt(seed byte, journal []byte, assumptionCount int) receipt.Receipt {
	cl := claim.New(ImageID(seed), journal, claim.Halt(0))
	return receipt.New([]byte{seed}, receipt.Composite, &cl, assumptionCount)
}

// FailedReceipt builds a Receipt whose claimed execution did not halt
// successfully.
func FailedReceipt(seed byte, journal []byte, userCode uint32) receipt.Receipt {
	cl := claim.New(ImageID(seed), journal, claim.Halt(userCode))
	return receipt.New([]byte{seed}, receipt.Succinct, &cl, 0)
}
