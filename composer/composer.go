// Package composer implements the Composer state machine: the host-side
// orchestrator that accumulates assumptions and typed guest input, checks
// them against declared expectations, invokes a Prover, and produces a
// Receipt. This is the hard part the rest of the module exists to support.
package composer

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/garyrob/pyr0/claim"
	"github.com/garyrob/pyr0/image"
	"github.com/garyrob/pyr0/inputbuilder"
	"github.com/garyrob/pyr0/log"
	"github.com/garyrob/pyr0/metrics"
	"github.com/garyrob/pyr0/prover"
	"github.com/garyrob/pyr0/receipt"
)

type state int

const (
	stateOpen state = iota
	stateProving
	stateDone
)

// expectation is one registered expect_verification call.
type expectation struct {
	key     claim.Key
	imageID image.Identity
}

// Composer accumulates one prove cycle's worth of assumptions and input,
// then produces exactly one Receipt. It is not reusable after a successful
// Prove — see ErrComposerConsumed. A Prove that fails in the backend returns
// the Composer to its open state.
//
// Guarded by an internal mutex: per §5 a Composer is not safe for concurrent
// mutation, but every method still acquires the lock for its duration
// (released before blocking on the Prover during Prove)
// so that misuse fails with a clear error rather than a data race — grounded
// on the teacher's sequencer.Sequencer.workInProgressLock pattern of guarding
// a one-shot, serialized state machine with an explicit lock.
type Composer struct {
	mu sync.Mutex

	img    image.Image
	backend prover.Prover
	rec    *metrics.Recorder

	state state

	assumptions    []receipt.Receipt
	assumptionKeys map[claim.Key]struct{}

	input *inputbuilder.Builder

	expectations []expectation
}

// New creates a Composer for one prove cycle against img, using backend as
// its Prover collaborator. rec may be nil, in which case no metrics are
// recorded.
func New(img image.Image, backend prover.Prover, rec *metrics.Recorder) *Composer {
	return &Composer{
		img:            img,
		backend:        backend,
		rec:            rec,
		state:          stateOpen,
		assumptionKeys: make(map[claim.Key]struct{}),
		input:          inputbuilder.New(),
	}
}

func (c *Composer) checkOpen() error {
	if c.state != stateOpen {
		return ErrComposerConsumed
	}
	return nil
}

// Assume registers r as a resolved assumption, deduplicating by claim key.
// Rejects composite, fake, or failed-exit receipts; see the error taxonomy.
func (c *Composer) Assume(r receipt.Receipt) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.assumeLocked(r)
}

func (c *Composer) assumeLocked(r receipt.Receipt) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if r.Kind() == receipt.Fake {
		c.countAssume("rejected")
		return ErrIsFake
	}
	if !r.IsUnconditional() {
		c.countAssume("rejected")
		return ErrIsComposite
	}
	if !r.Exit().OK() {
		c.countAssume("rejected")
		return ErrFailedExit
	}
	cl, err := r.Claim()
	if err != nil {
		c.countAssume("rejected")
		return err
	}
	key := cl.Key()
	if _, ok := c.assumptionKeys[key]; ok {
		c.countAssume("deduped")
		return nil
	}
	c.assumptionKeys[key] = struct{}{}
	c.assumptions = append(c.assumptions, r)
	c.countAssume("added")
	return nil
}

func (c *Composer) countAssume(outcome string) {
	if c.rec != nil {
		c.rec.AssumeOutcome(outcome)
	}
}

// AssumeMany calls Assume for each receipt in order, stopping at the first
// error; all prior successful inserts are retained.
func (c *Composer) AssumeMany(rs []receipt.Receipt) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range rs {
		if err := c.assumeLocked(r); err != nil {
			return err
		}
	}
	return nil
}

// AssumptionCount returns the number of distinct assumptions accumulated so
// far.
func (c *Composer) AssumptionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.assumptions)
}

// InputSize returns the current size of the serialized input buffer.
func (c *Composer) InputSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input.Size()
}

// WriteU32 appends a little-endian uint32 to the input buffer.
func (c *Composer) WriteU32(v uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	c.input.WriteU32(v)
	return nil
}

// WriteU64 appends a little-endian uint64 to the input buffer.
func (c *Composer) WriteU64(v uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	c.input.WriteU64(v)
	return nil
}

// WriteBytes32 appends exactly 32 bytes to the input buffer.
func (c *Composer) WriteBytes32(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	_, err := c.input.WriteBytes32(data)
	return err
}

// WriteImageID appends a 32-byte image identity to the input buffer.
func (c *Composer) WriteImageID(id image.Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	_, err := c.input.WriteImageID(id.Bytes())
	return err
}

// WriteRawBytes appends data with no framing.
func (c *Composer) WriteRawBytes(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	c.input.WriteRawBytes(data)
	return nil
}

// WriteFrame appends a length-framed blob.
func (c *Composer) WriteFrame(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	c.input.WriteFrame(data)
	return nil
}

// WriteCBOR appends pre-encoded, unframed CBOR bytes (pattern A only).
func (c *Composer) WriteCBOR(cborBytes []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	c.input.WriteCBOR(cborBytes)
	return nil
}

// WriteCBORFrame appends length-framed, pre-encoded CBOR bytes.
func (c *Composer) WriteCBORFrame(cborBytes []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	c.input.WriteCBORFrame(cborBytes)
	return nil
}

// WriteVecBytes appends a length-prefixed byte vector.
func (c *Composer) WriteVecBytes(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	c.input.WriteVecBytes(data)
	return nil
}

// WriteString appends a length-prefixed UTF-8 string.
func (c *Composer) WriteString(s string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	c.input.WriteString(s)
	return nil
}

// WriteJournalFrom appends r's raw journal bytes with no framing — the
// common "outer guest re-reads the inner journal verbatim" pattern, present
// in the original implementation as write_journal_from and restored here
// (the distilled spec's operation table omitted it, but no Non-goal
// excludes it).
func (c *Composer) WriteJournalFrom(r receipt.Receipt) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	c.input.WriteRawBytes(r.JournalBytes())
	return nil
}

// ExpectVerification registers that the guest is expected to verify imageID
// against a receipt whose journal is journal. Used by PreflightCheck to
// detect mismatches between declared expectations and supplied assumptions.
func (c *Composer) ExpectVerification(imageID image.Identity, journal []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return err
	}
	if imageID.IsZero() {
		c.expectations = append(c.expectations, expectation{})
		return nil
	}
	digest := sha256.Sum256(journal)
	c.expectations = append(c.expectations, expectation{
		key:     claim.Key{ImageID: imageID, JournalDigest: claim.Digest(digest)},
		imageID: imageID,
	})
	return nil
}

// PreflightCheck compares the multiset of declared expectations against the
// multiset of supplied assumptions. If raiseOnError and any issues were
// found, it fails with a *PreflightError wrapping ErrPreflightFailed;
// otherwise the issues are returned (and logged as warnings) without error.
func (c *Composer) PreflightCheck(raiseOnError bool) ([]Issue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	issues := c.preflightLocked()
	if len(issues) > 0 {
		for _, iss := range issues {
			log.Warnw("preflight issue", "kind", iss.Kind.String(), "detail", iss.Detail)
		}
		if raiseOnError {
			return issues, &PreflightError{Issues: issues}
		}
	}
	return issues, nil
}

func (c *Composer) preflightLocked() []Issue {
	assumptionCounts := make(map[claim.Key]int, len(c.assumptions))
	for _, r := range c.assumptions {
		cl, err := r.Claim()
		if err != nil {
			continue
		}
		assumptionCounts[cl.Key()]++
	}

	expectationCounts := make(map[claim.Key]int, len(c.expectations))
	var issues []Issue
	for _, e := range c.expectations {
		if e.imageID.IsZero() {
			issues = append(issues, Issue{Kind: InvalidImageIdInExpectation, Detail: "expectation has an empty image id"})
			continue
		}
		expectationCounts[e.key]++
	}

	for k, want := range expectationCounts {
		if want > assumptionCounts[k] {
			issues = append(issues, Issue{
				Kind:   MissingAssumption,
				Detail: fmt.Sprintf("image_id=%s journal_digest=%s", k.ImageID, k.JournalDigest.Hex()),
			})
		}
	}
	for k := range assumptionCounts {
		if expectationCounts[k] == 0 {
			issues = append(issues, Issue{
				Kind:   UnusedAssumption,
				Detail: fmt.Sprintf("image_id=%s journal_digest=%s", k.ImageID, k.JournalDigest.Hex()),
			})
		}
	}
	return issues
}

// Prove builds the execution environment from the accumulated assumptions
// and input buffer, invokes the Prover backend, and returns the resulting
// Receipt. kind defaults to receipt.Succinct if nil; receipt.Fake is
// rejected with ErrFakeNotProvable. On success the Composer transitions to
// Done and all further mutation fails with ErrComposerConsumed.
func (c *Composer) Prove(ctx context.Context, kind *receipt.Kind, preflight bool) (receipt.Receipt, error) {
	c.mu.Lock()
	if err := c.checkOpen(); err != nil {
		c.mu.Unlock()
		return receipt.Receipt{}, err
	}
	if preflight {
		issues := c.preflightLocked()
		if len(issues) > 0 {
			c.mu.Unlock()
			return receipt.Receipt{}, &PreflightError{Issues: issues}
		}
	}

	mode := receipt.Succinct
	if kind != nil {
		mode = *kind
	}
	if mode == receipt.Fake {
		c.mu.Unlock()
		return receipt.Receipt{}, ErrFakeNotProvable
	}

	env := prover.Environment{
		Input:       c.input.Build(),
		Assumptions: make([]prover.RawReceipt, 0, len(c.assumptions)),
	}
	for _, r := range c.assumptions {
		cl, err := r.Claim()
		if err != nil {
			c.mu.Unlock()
			return receipt.Receipt{}, err
		}
		env.Assumptions = append(env.Assumptions, prover.RawReceipt{Kind: r.Kind(), Claim: &cl, AssumptionCount: r.AssumptionCount()})
	}

	c.state = stateProving
	img := c.img
	backend := c.backend
	c.mu.Unlock()

	start := time.Now()
	raw, err := backend.ProveWithOpts(ctx, img, env, mode)
	c.recordProveDuration(mode, time.Since(start))
	if err != nil {
		c.mu.Lock()
		c.state = stateOpen
		c.mu.Unlock()
		if looksLikeAssumptionMismatch(err) {
			return receipt.Receipt{}, fmt.Errorf("%w: %v", ErrClaimMismatchLikely, err)
		}
		return receipt.Receipt{}, fmt.Errorf("%w: %v", ErrProverError, err)
	}

	c.mu.Lock()
	c.state = stateDone
	c.mu.Unlock()

	return receipt.New(raw.Seal, raw.Kind, raw.Claim, raw.AssumptionCount), nil
}

func (c *Composer) recordProveDuration(kind receipt.Kind, d time.Duration) {
	if c.rec != nil {
		c.rec.ProveDuration(kind.String(), d)
	}
}

// String implements fmt.Stringer, mirroring the original crate's __repr__.
func (c *Composer) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("Composer(assumptions=%d, input_size=%d bytes)", len(c.assumptions), c.input.Size())
}
