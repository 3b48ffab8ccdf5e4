// Package claim models the semantic content a Receipt proves: that a given
// program image executed to a given exit status, revealing a given journal.
package claim

import (
	"crypto/sha256"
	"errors"

	"github.com/garyrob/pyr0/image"
)

// ErrClaimPruned is returned whenever an operation needs the full claim value
// but only a seal-only (value-stripped) receipt is available.
var ErrClaimPruned = errors.New("claim: value pruned, only digests available")

// Digest is the SHA-256 digest of a journal's raw bytes.
type Digest [32]byte

// DigestOf computes the journal digest of the given bytes. It is always
// exactly sha256.Sum256(journal) — the relationship is an invariant of the
// Claim type, not a choice made by callers.
func DigestOf(journal []byte) Digest {
	return sha256.Sum256(journal)
}

// Hex returns the lowercase hex encoding of the digest.
func (d Digest) Hex() string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(d)*2)
	for i, b := range d {
		out[i*2] = hextable[b>>4]
		out[i*2+1] = hextable[b&0x0f]
	}
	return string(out)
}

// Key is the (image_id, journal_digest) pair used for both assumption
// deduplication (§4.5) and preflight matching (§4.5). It is a plain
// comparable struct so it can be used directly as a Go map key.
type Key struct {
	ImageID       image.Identity
	JournalDigest Digest
}

// Claim is the tuple a Receipt attests to: the program that ran, the journal
// it committed, that journal's digest, and how execution ended.
//
// Invariant: JournalDigest == DigestOf(Journal). Callers should never
// construct a Claim by hand with mismatched fields; use New.
type Claim struct {
	ImageID       image.Identity
	Journal       []byte
	JournalDigest Digest
	ExitCode      ExitStatus
}

// New builds a Claim from its constituent parts, computing JournalDigest
// itself so the invariant always holds.
func New(imageID image.Identity, journal []byte, exitCode ExitStatus) Claim {
	return Claim{
		ImageID:       imageID,
		Journal:       journal,
		JournalDigest: DigestOf(journal),
		ExitCode:      exitCode,
	}
}

// Key returns the claim key used for dedup and preflight matching.
func (c Claim) Key() Key {
	return Key{ImageID: c.ImageID, JournalDigest: c.JournalDigest}
}

// IsSuccess reports whether the claimed execution halted successfully.
func (c Claim) IsSuccess() bool {
	return c.ExitCode.OK()
}
