package prover_test

import (
	"context"
	"encoding/binary"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/garyrob/pyr0/claim"
	"github.com/garyrob/pyr0/prover"
	"github.com/garyrob/pyr0/receipt"
)

func doubleProgram(input []byte, _ [][]byte) ([]byte, claim.ExitStatus, error) {
	v := binary.LittleEndian.Uint32(input)
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, v*2)
	return out, claim.Halt(0), nil
}

func TestCPUExecutesRegisteredProgram(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	cpu := prover.NewCPU()

	elf := []byte("double-elf")
	id, err := cpu.RegisterProgram(elf, doubleProgram)
	c.Assert(err, qt.IsNil)

	img, err := cpu.LoadImage(ctx, elf)
	c.Assert(err, qt.IsNil)
	c.Assert(img.ID, qt.Equals, id)

	in := make([]byte, 4)
	binary.LittleEndian.PutUint32(in, 21)
	raw, err := cpu.Prove(ctx, img, prover.Environment{Input: in})
	c.Assert(err, qt.IsNil)

	out := binary.LittleEndian.Uint32(raw.Claim.Journal)
	c.Assert(out, qt.Equals, uint32(42))
	c.Assert(raw.Kind, qt.Equals, receipt.Composite)

	c.Assert(cpu.Verify(ctx, raw, id), qt.IsNil)
}

func TestCPULoadImageUnregistered(t *testing.T) {
	c := qt.New(t)
	cpu := prover.NewCPU()
	_, err := cpu.LoadImage(context.Background(), []byte("never-registered"))
	c.Assert(err, qt.ErrorIs, prover.ErrProgramNotRegistered)
}

func TestCPUCannotProduceFake(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	cpu := prover.NewCPU()
	elf := []byte("elf")
	_, err := cpu.RegisterProgram(elf, doubleProgram)
	c.Assert(err, qt.IsNil)
	img, err := cpu.LoadImage(ctx, elf)
	c.Assert(err, qt.IsNil)

	in := make([]byte, 4)
	_, err = cpu.ProveWithOpts(ctx, img, prover.Environment{Input: in}, receipt.Fake)
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestCPUCompressDischargesAssumptions(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	cpu := prover.NewCPU()
	elf := []byte("elf")
	id, err := cpu.RegisterProgram(elf, doubleProgram)
	c.Assert(err, qt.IsNil)
	img, err := cpu.LoadImage(ctx, elf)
	c.Assert(err, qt.IsNil)

	in := make([]byte, 4)
	binary.LittleEndian.PutUint32(in, 5)
	raw, err := cpu.ProveWithOpts(ctx, img, prover.Environment{Input: in}, receipt.Composite)
	c.Assert(err, qt.IsNil)
	c.Assert(raw.Kind, qt.Equals, receipt.Composite)

	compressed, err := cpu.Compress(ctx, raw, receipt.Succinct)
	c.Assert(err, qt.IsNil)
	c.Assert(compressed.Kind, qt.Equals, receipt.Succinct)
	c.Assert(compressed.AssumptionCount, qt.Equals, 0)

	c.Assert(cpu.Verify(ctx, compressed, id), qt.IsNil)
}
