package composer_test

import (
	"context"
	"encoding/binary"
	"fmt"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/garyrob/pyr0/claim"
	"github.com/garyrob/pyr0/composer"
	"github.com/garyrob/pyr0/image"
	"github.com/garyrob/pyr0/prover"
	"github.com/garyrob/pyr0/receipt"
)

func testImageID(c *qt.C, seed byte) image.Identity {
	b := make([]byte, 32)
	for i := range b {
		b[i] = seed
	}
	id, err := image.FromTrustedBytes(b)
	c.Assert(err, qt.IsNil)
	return id
}

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// innerProgram commits the sum of two fixed-width u32 inputs.
func innerProgram(input []byte, _ [][]byte) ([]byte, claim.ExitStatus, error) {
	if len(input) < 8 {
		return nil, claim.ExitStatus{}, fmt.Errorf("short input")
	}
	a := binary.LittleEndian.Uint32(input[0:4])
	b := binary.LittleEndian.Uint32(input[4:8])
	return le32(a + b), claim.Halt(0), nil
}

// outerProgram reads an expected sum and an image id, "verifies" the
// expected sum against the assumption's journal, then commits double it.
func outerProgram(input []byte, assumptionJournals [][]byte) ([]byte, claim.ExitStatus, error) {
	if len(input) < 36 {
		return nil, claim.ExitStatus{}, fmt.Errorf("short input")
	}
	expectedSum := binary.LittleEndian.Uint32(input[0:4])
	if len(assumptionJournals) == 0 {
		return nil, claim.ExitStatus{}, fmt.Errorf("no assumption to verify")
	}
	assumedSum := binary.LittleEndian.Uint32(assumptionJournals[0][0:4])
	if expectedSum != assumedSum {
		return nil, claim.ExitStatus{}, fmt.Errorf("guest verify: assumption mismatch, expected %d got %d", expectedSum, assumedSum)
	}
	return le32(expectedSum * 2), claim.Halt(0), nil
}

func setupSumAndDouble(c *qt.C) (cpu *prover.CPU, innerImg, outerImg image.Image) {
	cpu = prover.NewCPU()
	innerID, err := cpu.RegisterProgram([]byte("inner-elf"), innerProgram)
	c.Assert(err, qt.IsNil)
	outerID, err := cpu.RegisterProgram([]byte("outer-elf"), outerProgram)
	c.Assert(err, qt.IsNil)

	innerImg, err = cpu.LoadImage(context.Background(), []byte("inner-elf"))
	c.Assert(err, qt.IsNil)
	c.Assert(innerImg.ID, qt.Equals, innerID)

	outerImg, err = cpu.LoadImage(context.Background(), []byte("outer-elf"))
	c.Assert(err, qt.IsNil)
	c.Assert(outerImg.ID, qt.Equals, outerID)
	return cpu, innerImg, outerImg
}

// S1. Composed sum-and-double.
func TestS1ComposedSumAndDouble(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	cpu, innerImg, outerImg := setupSumAndDouble(c)

	innerComposer := composer.New(innerImg, cpu, nil)
	c.Assert(innerComposer.WriteU32(3), qt.IsNil)
	c.Assert(innerComposer.WriteU32(4), qt.IsNil)

	succinct := receipt.Succinct
	innerReceipt, err := innerComposer.Prove(ctx, &succinct, false)
	c.Assert(err, qt.IsNil)
	c.Assert(innerReceipt.JournalBytes(), qt.DeepEquals, le32(7))

	outerComposer := composer.New(outerImg, cpu, nil)
	c.Assert(outerComposer.Assume(innerReceipt), qt.IsNil)
	c.Assert(outerComposer.WriteU32(7), qt.IsNil)
	c.Assert(outerComposer.WriteImageID(innerImg.ID), qt.IsNil)
	c.Assert(outerComposer.ExpectVerification(innerImg.ID, innerReceipt.JournalBytes()), qt.IsNil)

	outerReceipt, err := outerComposer.Prove(ctx, &succinct, true)
	c.Assert(err, qt.IsNil)
	c.Assert(outerReceipt.JournalBytes(), qt.DeepEquals, le32(14))
	c.Assert(outerReceipt.Verify(outerImg.ID), qt.IsNil)
}

// S2. Wrong expected sum.
func TestS2WrongExpectedSum(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	cpu, innerImg, outerImg := setupSumAndDouble(c)

	innerComposer := composer.New(innerImg, cpu, nil)
	c.Assert(innerComposer.WriteU32(3), qt.IsNil)
	c.Assert(innerComposer.WriteU32(4), qt.IsNil)
	succinct := receipt.Succinct
	innerReceipt, err := innerComposer.Prove(ctx, &succinct, false)
	c.Assert(err, qt.IsNil)

	outerComposer := composer.New(outerImg, cpu, nil)
	c.Assert(outerComposer.Assume(innerReceipt), qt.IsNil)
	c.Assert(outerComposer.WriteU32(8), qt.IsNil) // wrong
	c.Assert(outerComposer.WriteImageID(innerImg.ID), qt.IsNil)
	c.Assert(outerComposer.ExpectVerification(innerImg.ID, innerReceipt.JournalBytes()), qt.IsNil)

	_, err = outerComposer.Prove(ctx, &succinct, true)
	c.Assert(err, qt.ErrorIs, composer.ErrClaimMismatchLikely)
}

// S3. Preflight missing assumption.
func TestS3PreflightMissingAssumption(t *testing.T) {
	c := qt.New(t)
	cpu, _, outerImg := setupSumAndDouble(c)
	idA := testImageID(c, 0x10)
	jA := []byte("journal A")

	comp := composer.New(outerImg, cpu, nil)
	c.Assert(comp.ExpectVerification(idA, jA), qt.IsNil)

	issues, err := comp.PreflightCheck(true)
	var preflightErr *composer.PreflightError
	c.Assert(err, qt.ErrorAs, &preflightErr)
	c.Assert(len(issues), qt.Equals, 1)
	c.Assert(issues[0].Kind, qt.Equals, composer.MissingAssumption)
}

// S4. Preflight unused assumption.
func TestS4PreflightUnusedAssumption(t *testing.T) {
	c := qt.New(t)
	cpu, _, outerImg := setupSumAndDouble(c)
	idA := testImageID(c, 0x11)
	jA := []byte("journal A")
	clA := claim.New(idA, jA, claim.Halt(0))
	rA := receipt.New([]byte("seal-a"), receipt.Succinct, &clA, 0)

	comp := composer.New(outerImg, cpu, nil)
	c.Assert(comp.Assume(rA), qt.IsNil)

	issues, err := comp.PreflightCheck(true)
	c.Assert(err, qt.Not(qt.IsNil))
	c.Assert(len(issues), qt.Equals, 1)
	c.Assert(issues[0].Kind, qt.Equals, composer.UnusedAssumption)
}

// S5. Dedup.
func TestS5Dedup(t *testing.T) {
	c := qt.New(t)
	cpu, _, outerImg := setupSumAndDouble(c)
	idA := testImageID(c, 0x12)
	jA := []byte("journal A")
	clA := claim.New(idA, jA, claim.Halt(0))
	rA := receipt.New([]byte("seal-a"), receipt.Succinct, &clA, 0)

	comp := composer.New(outerImg, cpu, nil)
	c.Assert(comp.Assume(rA), qt.IsNil)
	c.Assert(comp.Assume(rA), qt.IsNil)
	c.Assert(comp.AssumptionCount(), qt.Equals, 1)

	c.Assert(comp.ExpectVerification(idA, jA), qt.IsNil)
	_, err := comp.PreflightCheck(true)
	c.Assert(err, qt.IsNil)
}

// S6. Reject composite as assumption.
func TestS6RejectCompositeAssumption(t *testing.T) {
	c := qt.New(t)
	cpu, _, outerImg := setupSumAndDouble(c)
	idA := testImageID(c, 0x13)
	clA := claim.New(idA, []byte("journal"), claim.Halt(0))
	composite := receipt.New([]byte("seal"), receipt.Composite, &clA, 1)

	comp := composer.New(outerImg, cpu, nil)
	err := comp.Assume(composite)
	c.Assert(err, qt.ErrorIs, composer.ErrIsComposite)
	c.Assert(comp.AssumptionCount(), qt.Equals, 0)
}

func TestAssumeRejectsFakeAndFailedExit(t *testing.T) {
	c := qt.New(t)
	cpu, _, outerImg := setupSumAndDouble(c)
	id := testImageID(c, 0x14)

	fakeClaim := claim.New(id, []byte("j"), claim.Halt(0))
	fake := receipt.New([]byte("seal"), receipt.Fake, &fakeClaim, 0)

	failedClaim := claim.New(id, []byte("j2"), claim.Halt(1))
	failed := receipt.New([]byte("seal2"), receipt.Succinct, &failedClaim, 0)

	comp := composer.New(outerImg, cpu, nil)
	c.Assert(comp.Assume(fake), qt.ErrorIs, composer.ErrIsFake)
	c.Assert(comp.Assume(failed), qt.ErrorIs, composer.ErrFailedExit)
}

func TestProveRejectsFakeMode(t *testing.T) {
	c := qt.New(t)
	cpu, _, outerImg := setupSumAndDouble(c)
	comp := composer.New(outerImg, cpu, nil)

	fakeMode := receipt.Fake
	_, err := comp.Prove(context.Background(), &fakeMode, false)
	c.Assert(err, qt.ErrorIs, composer.ErrFakeNotProvable)
}

func TestComposerConsumedAfterProve(t *testing.T) {
	c := qt.New(t)
	cpu, innerImg, _ := setupSumAndDouble(c)
	comp := composer.New(innerImg, cpu, nil)
	c.Assert(comp.WriteU32(1), qt.IsNil)
	c.Assert(comp.WriteU32(2), qt.IsNil)

	succinct := receipt.Succinct
	_, err := comp.Prove(context.Background(), &succinct, false)
	c.Assert(err, qt.IsNil)

	c.Assert(comp.WriteU32(3), qt.ErrorIs, composer.ErrComposerConsumed)
}
