package prover

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/garyrob/pyr0/claim"
	"github.com/garyrob/pyr0/image"
	"github.com/garyrob/pyr0/receipt"
)

// ErrFakeSealMismatch is returned by Fake's seal verification when the seal
// was not produced by this backend for the given claim.
var ErrFakeSealMismatch = errors.New("prover: fake seal does not match claim")

// Fake is a deterministic, non-cryptographic Prover used for tests and
// demos only. It never executes any guest code and its "seals" carry no
// security whatsoever — they are a hash fingerprint over the claim and the
// assumption claim keys, sufficient only to catch accidental tampering in
// tests. Receipts it produces always report Kind Fake, and Composer.Assume
// rejects Fake receipts as assumptions exactly like a real zkVM would reject
// an unprovable fake (§7, ErrIsFake).
type Fake struct{}

// NewFake returns a ready-to-use Fake backend.
func NewFake() *Fake { return &Fake{} }

func (f *Fake) LoadImage(_ context.Context, elf []byte) (image.Image, error) {
	sum := sha256.Sum256(elf)
	id, err := image.FromTrustedBytes(sum[:])
	if err != nil {
		return image.Image{}, err
	}
	return image.Image{ID: id, Backend: append([]byte(nil), elf...)}, nil
}

func (f *Fake) Prove(ctx context.Context, img image.Image, env Environment) (RawReceipt, error) {
	return f.ProveWithOpts(ctx, img, env, receipt.Fake)
}

func (f *Fake) ProveWithOpts(_ context.Context, img image.Image, env Environment, mode receipt.Kind) (RawReceipt, error) {
	if mode != receipt.Fake {
		return RawReceipt{}, fmt.Errorf("prover: fake backend can only produce Fake receipts, got %s", mode)
	}
	c := claim.New(img.ID, env.Input, claim.Halt(0))
	seal := f.sealFor(c, env.Assumptions)
	return RawReceipt{Seal: seal, Claim: &c, Kind: receipt.Fake, AssumptionCount: len(env.Assumptions)}, nil
}

func (f *Fake) Compress(_ context.Context, raw RawReceipt, mode receipt.Kind) (RawReceipt, error) {
	if raw.Claim == nil {
		return RawReceipt{}, claim.ErrClaimPruned
	}
	seal := f.sealFor(*raw.Claim, nil)
	return RawReceipt{Seal: seal, Claim: raw.Claim, Kind: receipt.Fake, AssumptionCount: 0}, nil
}

func (f *Fake) Verify(_ context.Context, raw RawReceipt, id image.Identity) error {
	if raw.Claim == nil {
		return claim.ErrClaimPruned
	}
	if !raw.Claim.ImageID.Equal(id) {
		return fmt.Errorf("prover: image id mismatch: claimed %s, expected %s", raw.Claim.ImageID, id)
	}
	return f.VerifySeal(raw.Seal, *raw.Claim)
}

// VerifySeal implements receipt.Verifier.
func (f *Fake) VerifySeal(seal []byte, c claim.Claim) error {
	want := f.sealFor(c, nil)
	if len(seal) != len(want) {
		return ErrFakeSealMismatch
	}
	for i := range want {
		if seal[i] != want[i] {
			return ErrFakeSealMismatch
		}
	}
	return nil
}

func (f *Fake) sealFor(c claim.Claim, assumptions []RawReceipt) []byte {
	h := sha256.New()
	h.Write(c.ImageID[:])
	h.Write(c.JournalDigest[:])
	for _, a := range assumptions {
		if a.Claim == nil {
			continue
		}
		k := a.Claim.Key()
		h.Write(k.ImageID[:])
		h.Write(k.JournalDigest[:])
	}
	return h.Sum(nil)
}
