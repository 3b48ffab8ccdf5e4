// Package prover defines the Prover collaborator interface the Composer
// depends on (never a concrete backend, mirroring how the teacher's
// sequencer depends on groth16.ProvingKey/constraint.ConstraintSystem
// interfaces instead of a concrete prover), plus two in-repo backends —
// Fake and CPU — so the Composer can be built, tested, and demoed without a
// real RISC-V zkVM. Neither backend is cryptographically sound; see their
// doc comments.
package prover

import (
	"context"

	"github.com/garyrob/pyr0/claim"
	"github.com/garyrob/pyr0/image"
	"github.com/garyrob/pyr0/receipt"
)

// RawReceipt is the backend-specific result of Prove/ProveWithOpts/Compress,
// from which claim.FromRawReceipt-equivalent logic (here, simply reading
// Claim) extracts a Claim. Composer converts a RawReceipt into a
// receipt.Receipt via receipt.New once it has finished any bookkeeping
// (preflight, dedup) that needs the raw form.
type RawReceipt struct {
	// Seal is the opaque cryptographic (or, for Fake/CPU, stand-in) proof
	// material. The core never interprets its contents.
	Seal []byte
	// Claim is nil for a pruned (seal-only) raw receipt.
	Claim           *claim.Claim
	Kind            receipt.Kind
	AssumptionCount int
}

// Environment is the input bundle a Prove call consumes: the serialized
// input buffer built by a Composer, plus the assumption receipts it may read
// during execution.
type Environment struct {
	Input       []byte
	Assumptions []RawReceipt
}

// Prover is the abstract backend collaborator. Composer depends only on this
// interface; Fake and CPU are the two concrete implementations this
// expansion supplies.
type Prover interface {
	// LoadImage parses elf into a backend-specific Image, deriving its
	// trusted Identity locally (never from a receipt).
	LoadImage(ctx context.Context, elf []byte) (image.Image, error)

	// Prove executes img against env using the backend's default receipt
	// kind.
	Prove(ctx context.Context, img image.Image, env Environment) (RawReceipt, error)

	// ProveWithOpts executes img against env, requesting a specific
	// receipt Kind. Backends that cannot produce the requested kind
	// return an error.
	ProveWithOpts(ctx context.Context, img image.Image, env Environment, mode receipt.Kind) (RawReceipt, error)

	// Compress takes a raw receipt (ordinarily Composite) and rewrites it
	// to an unconditional kind, discharging any remaining assumptions.
	Compress(ctx context.Context, raw RawReceipt, mode receipt.Kind) (RawReceipt, error)

	// Verify checks raw's seal against the given trusted image Identity.
	Verify(ctx context.Context, raw RawReceipt, id image.Identity) error
}

// DefaultProver is the process-wide Prover used by callers that do not want
// to thread a backend through explicitly, set by whichever backend package's
// init runs (mirrors the teacher's types.DefaultProver indirection used to
// let circuit packages reach a prover without importing it directly).
var DefaultProver Prover
