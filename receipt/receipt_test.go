package receipt_test

import (
	"crypto/sha256"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/garyrob/pyr0/claim"
	"github.com/garyrob/pyr0/image"
	"github.com/garyrob/pyr0/receipt"
)

// testVerifier is a minimal receipt.Verifier stand-in: a seal is valid iff
// it equals the SHA-256 of the claim's image id and journal digest.
type testVerifier struct{}

func (testVerifier) VerifySeal(seal []byte, c claim.Claim) error {
	want := sealFor(c)
	if len(seal) != len(want) {
		return claim.ErrClaimPruned // any non-nil error suffices here
	}
	for i := range want {
		if seal[i] != want[i] {
			return claim.ErrClaimPruned
		}
	}
	return nil
}

func sealFor(c claim.Claim) []byte {
	h := sha256.New()
	h.Write(c.ImageID[:])
	h.Write(c.JournalDigest[:])
	return h.Sum(nil)
}

func testImageID(c *qt.C, seed byte) image.Identity {
	b := make([]byte, 32)
	for i := range b {
		b[i] = seed
	}
	id, err := image.FromTrustedBytes(b)
	c.Assert(err, qt.IsNil)
	return id
}

func TestMain(m *testing.M) {
	receipt.DefaultVerifier = testVerifier{}
	m.Run()
}

// Invariant 5: verification bind.
func TestVerifyBind(t *testing.T) {
	c := qt.New(t)
	id := testImageID(c, 0x11)
	cl := claim.New(id, []byte("journal"), claim.Halt(0))
	r := receipt.New(sealFor(cl), receipt.Succinct, &cl, 0)

	c.Assert(r.Verify(id), qt.IsNil)

	otherID := testImageID(c, 0x22)
	c.Assert(r.Verify(otherID), qt.ErrorIs, receipt.ErrVerification)
}

// S7: integrity vs. verify on failed exit.
func TestIntegrityVsVerifyOnFailedExit(t *testing.T) {
	c := qt.New(t)
	id := testImageID(c, 0x33)
	cl := claim.New(id, []byte("journal"), claim.Halt(1))
	r := receipt.New(sealFor(cl), receipt.Succinct, &cl, 0)

	c.Assert(r.Verify(id), qt.Not(qt.IsNil))
	c.Assert(r.VerifyIntegrity(), qt.IsNil)
}

// Invariant 6: round trip.
func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	c := qt.New(t)
	id := testImageID(c, 0x44)
	cl := claim.New(id, []byte("round trip journal"), claim.Halt(0))
	r := receipt.New(sealFor(cl), receipt.Composite, &cl, 2)

	data, err := r.MarshalBinary()
	c.Assert(err, qt.IsNil)

	var decoded receipt.Receipt
	c.Assert(decoded.UnmarshalBinary(data), qt.IsNil)

	c.Assert(decoded.Kind(), qt.Equals, r.Kind())
	c.Assert(decoded.AssumptionCount(), qt.Equals, r.AssumptionCount())
	c.Assert(decoded.JournalBytes(), qt.DeepEquals, r.JournalBytes())
	c.Assert(decoded.ClaimedImageID(), qt.Equals, r.ClaimedImageID())
	c.Assert(decoded.Exit(), qt.Equals, r.Exit())
}

func TestRoundTripPrunedReceipt(t *testing.T) {
	c := qt.New(t)
	r := receipt.New([]byte("opaque seal"), receipt.Succinct, nil, 0)

	data, err := r.MarshalBinary()
	c.Assert(err, qt.IsNil)

	var decoded receipt.Receipt
	c.Assert(decoded.UnmarshalBinary(data), qt.IsNil)

	_, err = decoded.Claim()
	c.Assert(err, qt.ErrorIs, receipt.ErrClaimPruned)
}

func TestClaimedImageIDIsUntrustedButReadable(t *testing.T) {
	c := qt.New(t)
	id := testImageID(c, 0x55)
	cl := claim.New(id, []byte("j"), claim.Halt(0))
	r := receipt.New(sealFor(cl), receipt.Succinct, &cl, 0)

	c.Assert(r.MatchesImageID(id), qt.IsTrue)
	c.Assert(r.MatchesImageID(testImageID(c, 0x56)), qt.IsFalse)
}
