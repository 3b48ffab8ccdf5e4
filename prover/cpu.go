package prover

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"

	"github.com/garyrob/pyr0/claim"
	"github.com/garyrob/pyr0/image"
	"github.com/garyrob/pyr0/receipt"
)

// ErrProgramNotRegistered is returned by CPU.LoadImage when no Program has
// been registered for the ELF's derived image id.
var ErrProgramNotRegistered = errors.New("prover: no program registered for image")

// ErrCPUSealMismatch is returned by CPU's seal verification on tamper.
var ErrCPUSealMismatch = errors.New("prover: cpu seal does not match claim")

// Program stands in for RISC-V guest code: a Go function executed in-process
// against the input buffer and the journals of any resolved assumptions.
// Embedding a real RISC-V interpreter is out of scope; Program lets the CPU
// backend exercise the Composer's orchestration logic end to end without
// one.
type Program func(input []byte, assumptionJournals [][]byte) (journal []byte, exit claim.ExitStatus, err error)

// CPU is a software Prover backend that actually executes a registered
// Program. Like Fake, its seals are a hash fingerprint, not a cryptographic
// proof — CPU exists to exercise Composer's orchestration logic, not to
// demonstrate STARK/SNARK security (§1 explicitly scopes the real backend
// out). Dispatch to CPU (versus any future GPU/accelerated backend) is meant
// to happen through the single DefaultProver variable, mirroring the
// teacher's CPUProver/GPUProver split behind one dispatch point.
type CPU struct {
	mu       sync.RWMutex
	programs map[image.Identity]Program
}

// NewCPU returns a ready-to-use CPU backend with no programs registered.
func NewCPU() *CPU {
	return &CPU{programs: make(map[image.Identity]Program)}
}

// RegisterProgram derives elf's Identity and associates prog with it, so a
// later LoadImage(ctx, elf) call can find the program to execute.
func (c *CPU) RegisterProgram(elf []byte, prog Program) (image.Identity, error) {
	sum := sha256.Sum256(elf)
	id, err := image.FromTrustedBytes(sum[:])
	if err != nil {
		return image.Identity{}, err
	}
	c.mu.Lock()
	c.programs[id] = prog
	c.mu.Unlock()
	return id, nil
}

func (c *CPU) LoadImage(_ context.Context, elf []byte) (image.Image, error) {
	sum := sha256.Sum256(elf)
	id, err := image.FromTrustedBytes(sum[:])
	if err != nil {
		return image.Image{}, err
	}
	c.mu.RLock()
	prog, ok := c.programs[id]
	c.mu.RUnlock()
	if !ok {
		return image.Image{}, fmt.Errorf("%w: %s", ErrProgramNotRegistered, id)
	}
	return image.Image{ID: id, Backend: prog}, nil
}

func (c *CPU) Prove(ctx context.Context, img image.Image, env Environment) (RawReceipt, error) {
	return c.ProveWithOpts(ctx, img, env, receipt.Composite)
}

func (c *CPU) ProveWithOpts(ctx context.Context, img image.Image, env Environment, mode receipt.Kind) (RawReceipt, error) {
	if mode == receipt.Fake {
		return RawReceipt{}, fmt.Errorf("prover: cpu backend cannot produce Fake receipts")
	}
	prog, ok := img.Backend.(Program)
	if !ok {
		return RawReceipt{}, fmt.Errorf("%w: %s", ErrProgramNotRegistered, img.ID)
	}

	select {
	case <-ctx.Done():
		return RawReceipt{}, ctx.Err()
	default:
	}

	journals := make([][]byte, 0, len(env.Assumptions))
	for _, a := range env.Assumptions {
		if a.Claim != nil {
			journals = append(journals, a.Claim.Journal)
		}
	}

	journal, exit, err := prog(env.Input, journals)
	if err != nil {
		return RawReceipt{}, fmt.Errorf("prover: program execution failed: %w", err)
	}

	cl := claim.New(img.ID, journal, exit)
	assumptionCount := 0
	var bound []RawReceipt
	if mode == receipt.Composite {
		assumptionCount = len(env.Assumptions)
		bound = env.Assumptions
	}
	seal := claimSeal(cl, cpuDomain, bound)
	return RawReceipt{Seal: seal, Claim: &cl, Kind: mode, AssumptionCount: assumptionCount}, nil
}

func (c *CPU) Compress(_ context.Context, raw RawReceipt, mode receipt.Kind) (RawReceipt, error) {
	if raw.Claim == nil {
		return RawReceipt{}, claim.ErrClaimPruned
	}
	seal := claimSeal(*raw.Claim, cpuDomain, nil)
	return RawReceipt{Seal: seal, Claim: raw.Claim, Kind: mode, AssumptionCount: 0}, nil
}

func (c *CPU) Verify(_ context.Context, raw RawReceipt, id image.Identity) error {
	if raw.Claim == nil {
		return claim.ErrClaimPruned
	}
	if !raw.Claim.ImageID.Equal(id) {
		return fmt.Errorf("prover: image id mismatch: claimed %s, expected %s", raw.Claim.ImageID, id)
	}
	return c.VerifySeal(raw.Seal, *raw.Claim)
}

// VerifySeal implements receipt.Verifier.
func (c *CPU) VerifySeal(seal []byte, cl claim.Claim) error {
	want := claimSeal(cl, cpuDomain, nil)
	if len(seal) != len(want) {
		return ErrCPUSealMismatch
	}
	for i := range want {
		if seal[i] != want[i] {
			return ErrCPUSealMismatch
		}
	}
	return nil
}

const cpuDomain = "pyr0-cpu"

func claimSeal(cl claim.Claim, domain string, assumptions []RawReceipt) []byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write(cl.ImageID[:])
	h.Write(cl.JournalDigest[:])
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

func init() {
	cpu := NewCPU()
	DefaultProver = cpu
	// CPU satisfies receipt.Verifier via VerifySeal, registering itself as
	// the process-wide verifier exactly like risc0_zkvm's statically linked
	// verifier needs no live connection back to whichever prover produced a
	// given seal.
	receipt.DefaultVerifier = cpu
}
