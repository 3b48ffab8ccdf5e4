// Package receipt implements the Receipt envelope: an opaque seal plus a
// Claim, classified by Kind and unconditionality, with verification against
// a trusted image identity.
//
// A Receipt is immutable after construction; every method is read-only.
package receipt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/garyrob/pyr0/claim"
	"github.com/garyrob/pyr0/image"
)

// Sentinel errors, per the taxonomy in §7 of the specification.
var (
	ErrVerification  = errors.New("receipt: verification failed")
	ErrIntegrity     = errors.New("receipt: integrity check failed")
	ErrDeserialize   = errors.New("receipt: deserialize failed")
	ErrClaimPruned   = claim.ErrClaimPruned
)

// Verifier checks a Receipt's seal for internal consistency with its Claim.
// Concrete Prover backends register themselves as the DefaultVerifier (see
// the prover package's init, mirroring the teacher's types.DefaultProver
// indirection) so that package receipt never has to import package prover.
type Verifier interface {
	// VerifySeal reports whether seal is valid cryptographic material
	// attesting to c. It does not consider the expected image id or exit
	// code — those are checked by Receipt.Verify on top of VerifySeal.
	VerifySeal(seal []byte, c claim.Claim) error
}

// DefaultVerifier is set by the Prover backend that produced a Receipt.
// Receipts constructed purely from decoded bytes (UnmarshalBinary) rely on
// whatever DefaultVerifier is registered in the running process — exactly
// like risc0_zkvm's statically linked STARK verifier, which needs no network
// round-trip to the prover that generated a given seal.
var DefaultVerifier Verifier

// Receipt is the envelope a Composer ultimately produces: an opaque seal, the
// Claim it attests to (possibly pruned), its Kind, and how many unresolved
// assumptions it still carries.
type Receipt struct {
	seal            []byte
	claimValue      *claim.Claim // nil when pruned
	kind            Kind
	assumptionCount int
}

// New constructs a Receipt. c may be nil to represent a pruned (seal-only)
// receipt. This is the only non-deserialization constructor; package composer
// uses it to wrap a backend's raw result, and tests use it to build fixtures.
func New(seal []byte, kind Kind, c *claim.Claim, assumptionCount int) Receipt {
	return Receipt{seal: seal, claimValue: c, kind: kind, assumptionCount: assumptionCount}
}

// JournalBytes returns the raw journal bytes, or nil if the claim is pruned.
func (r Receipt) JournalBytes() []byte {
	if r.claimValue == nil {
		return nil
	}
	return r.claimValue.Journal
}

// JournalHex returns the journal as a hex string.
func (r Receipt) JournalHex() string {
	return fmt.Sprintf("%x", r.JournalBytes())
}

// JournalText returns the journal decoded as UTF-8, or ("", false) if the
// journal is pruned or not valid UTF-8.
func (r Receipt) JournalText() (string, bool) {
	b := r.JournalBytes()
	if b == nil || !utf8.Valid(b) {
		return "", false
	}
	return string(b), true
}

// Exit returns the claimed exit status. Zero value if the claim is pruned.
func (r Receipt) Exit() claim.ExitStatus {
	if r.claimValue == nil {
		return claim.ExitStatus{}
	}
	return r.claimValue.ExitCode
}

// Kind returns the receipt's proof-system classification.
func (r Receipt) Kind() Kind {
	return r.kind
}

// IsUnconditional reports whether this receipt carries no unresolved
// assumptions — always true for Succinct/Groth16/Fake, and true for a
// Composite receipt whose AssumptionCount is zero.
func (r Receipt) IsUnconditional() bool {
	if r.kind.IsUnconditional() {
		return true
	}
	return r.assumptionCount == 0
}

// AssumptionCount returns the number of unresolved assumptions carried by a
// composite receipt; always 0 for unconditional receipts.
func (r Receipt) AssumptionCount() int {
	return r.assumptionCount
}

// Claim returns the full claim value, failing ErrClaimPruned if this receipt
// was constructed (or decoded) without one.
func (r Receipt) Claim() (claim.Claim, error) {
	if r.claimValue == nil {
		return claim.Claim{}, ErrClaimPruned
	}
	return *r.claimValue, nil
}

// ClaimedImageID returns the image id read from the receipt itself. This
// value is UNTRUSTED — it is documentation-only, exactly as data read from
// any other party's claim. Using it to drive a trust decision is a caller
// bug; use Verify with a separately-obtained trusted Identity instead.
func (r Receipt) ClaimedImageID() image.Identity {
	if r.claimValue == nil {
		return image.Identity{}
	}
	return r.claimValue.ImageID
}

// MatchesImageID byte-compares the claimed id against a trusted expected id.
func (r Receipt) MatchesImageID(expected image.Identity) bool {
	return r.ClaimedImageID().Equal(expected)
}

// Verify performs full verification: seal integrity against the claim,
// claim/journal consistency, that expected matches the claimed image id, and
// that the execution was successful. expected MUST be a trusted Identity —
// see ClaimedImageID's warning.
func (r Receipt) Verify(expected image.Identity) error {
	c, err := r.Claim()
	if err != nil {
		return err
	}
	if claim.DigestOf(c.Journal) != c.JournalDigest {
		return fmt.Errorf("%w: journal digest does not match journal", ErrVerification)
	}
	if DefaultVerifier == nil {
		return fmt.Errorf("%w: no verifier backend registered", ErrVerification)
	}
	if err := DefaultVerifier.VerifySeal(r.seal, c); err != nil {
		return fmt.Errorf("%w: %v", ErrVerification, err)
	}
	if !c.ImageID.Equal(expected) {
		return fmt.Errorf("%w: image id mismatch: claimed %s, expected %s", ErrVerification, c.ImageID, expected)
	}
	if !c.ExitCode.OK() {
		return fmt.Errorf("%w: exit status not ok: %s", ErrVerification, c.ExitCode)
	}
	return nil
}

// VerifyIntegrity checks seal-to-claim consistency only: it does NOT enforce
// the image id or a successful exit code, which makes it suitable for
// inspecting failed or foreign executions.
//
// Open question carried from the original implementation: the legacy
// verify_integrity contract documents validating seal<->claim independent of
// exit code and image id, but when no backend Verifier is registered this
// method can only confirm the claim is structurally present (not pruned) —
// it cannot attest to the seal's cryptographic validity. Callers that need a
// cryptographic guarantee must ensure a Verifier backend (see DefaultVerifier)
// is registered in the process.
func (r Receipt) VerifyIntegrity() error {
	c, err := r.Claim()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	if DefaultVerifier != nil {
		if err := DefaultVerifier.VerifySeal(r.seal, c); err != nil {
			return fmt.Errorf("%w: %v", ErrIntegrity, err)
		}
	}
	return nil
}

// MarshalBinary implements the external serialization contract (to_bytes):
// a 4-byte LE total length, a 1-byte kind tag, a 1-byte pruned flag, 4-byte
// assumption count, then, only if not pruned, [image_id(32)]
// [journal_digest(32)][exit kind(1)][exit user code(4)][journal length(8)]
// [journal bytes], and finally [seal length(8)][seal bytes].
func (r Receipt) MarshalBinary() ([]byte, error) {
	var body []byte
	body = append(body, byte(r.kind))
	if r.claimValue == nil {
		body = append(body, 1)
	} else {
		body = append(body, 0)
	}
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(r.assumptionCount))
	body = append(body, countBuf[:]...)

	if r.claimValue != nil {
		c := r.claimValue
		body = append(body, c.ImageID[:]...)
		body = append(body, c.JournalDigest[:]...)
		body = append(body, byte(c.ExitCode.Kind))
		var codeBuf [4]byte
		binary.LittleEndian.PutUint32(codeBuf[:], c.ExitCode.UserCode)
		body = append(body, codeBuf[:]...)
		var jlenBuf [8]byte
		binary.LittleEndian.PutUint64(jlenBuf[:], uint64(len(c.Journal)))
		body = append(body, jlenBuf[:]...)
		body = append(body, c.Journal...)
	}

	var sealLenBuf [8]byte
	binary.LittleEndian.PutUint64(sealLenBuf[:], uint64(len(r.seal)))
	body = append(body, sealLenBuf[:]...)
	body = append(body, r.seal...)

	out := make([]byte, 4+len(body))
	binary.LittleEndian.PutUint32(out[:4], uint32(len(body)))
	copy(out[4:], body)
	return out, nil
}

// UnmarshalBinary is the inverse of MarshalBinary: from_bytes(to_bytes(r))
// yields a Receipt observationally equal to r.
func (r *Receipt) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("%w: buffer too short for length prefix", ErrDeserialize)
	}
	total := binary.LittleEndian.Uint32(data[:4])
	body := data[4:]
	if uint32(len(body)) != total {
		return fmt.Errorf("%w: length mismatch: header says %d, got %d", ErrDeserialize, total, len(body))
	}
	if len(body) < 1+1+4 {
		return fmt.Errorf("%w: buffer too short for header", ErrDeserialize)
	}
	kind := Kind(body[0])
	pruned := body[1] != 0
	assumptionCount := int(binary.LittleEndian.Uint32(body[2:6]))
	off := 6

	var cv *claim.Claim
	if !pruned {
		if len(body[off:]) < 32+32+1+4+8 {
			return fmt.Errorf("%w: buffer too short for claim", ErrDeserialize)
		}
		var imgID image.Identity
		copy(imgID[:], body[off:off+32])
		off += 32
		var jdigest claim.Digest
		copy(jdigest[:], body[off:off+32])
		off += 32
		exitKind := claim.ExitKind(body[off])
		off++
		userCode := binary.LittleEndian.Uint32(body[off : off+4])
		off += 4
		jlen := binary.LittleEndian.Uint64(body[off : off+8])
		off += 8
		if uint64(len(body[off:])) < jlen {
			return fmt.Errorf("%w: buffer too short for journal", ErrDeserialize)
		}
		journal := make([]byte, jlen)
		copy(journal, body[off:off+int(jlen)])
		off += int(jlen)

		c := claim.New(imgID, journal, claim.ExitStatus{Kind: exitKind, UserCode: userCode})
		if c.JournalDigest != jdigest {
			return fmt.Errorf("%w: journal digest mismatch", ErrDeserialize)
		}
		cv = &c
	}

	if len(body[off:]) < 8 {
		return fmt.Errorf("%w: buffer too short for seal length", ErrDeserialize)
	}
	sealLen := binary.LittleEndian.Uint64(body[off : off+8])
	off += 8
	if uint64(len(body[off:])) < sealLen {
		return fmt.Errorf("%w: buffer too short for seal", ErrDeserialize)
	}
	seal := make([]byte, sealLen)
	copy(seal, body[off:off+int(sealLen)])

	*r = Receipt{seal: seal, claimValue: cv, kind: kind, assumptionCount: assumptionCount}
	return nil
}

// String implements fmt.Stringer, mirroring the original crate's __repr__.
func (r Receipt) String() string {
	if r.claimValue == nil {
		return fmt.Sprintf("Receipt(kind=%s, pruned=true, assumptions=%d)", r.kind, r.assumptionCount)
	}
	return fmt.Sprintf("Receipt(kind=%s, journal_len=%d, assumptions=%d)", r.kind, len(r.claimValue.Journal), r.assumptionCount)
}
