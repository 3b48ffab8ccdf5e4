package composer

import (
	"context"
	"fmt"
	"time"

	"github.com/garyrob/pyr0/metrics"
	"github.com/garyrob/pyr0/prover"
	"github.com/garyrob/pyr0/receipt"
)

// CompressToSuccinct asks backend to rewrite r into a Succinct, unconditional
// receipt. If r is already unconditional, fails ErrAlreadySuccinct. If r is
// Composite with unresolved assumptions, the caller must supply at least one
// assumption receipt, or the call fails ErrUnresolvedAssumptions; any
// supplied assumption that is itself conditional fails
// ErrConditionalAssumption. The number of supplied assumptions is not
// compared with r.AssumptionCount(), and the supplied receipts are not
// passed to the backend.
//
// This is a standalone operation: it operates on an already-produced Receipt
// and does not require (or mutate) a Composer instance.
func CompressToSuccinct(ctx context.Context, backend prover.Prover, rec *metrics.Recorder, r receipt.Receipt, assumptions ...receipt.Receipt) (receipt.Receipt, error) {
	if r.IsUnconditional() {
		return receipt.Receipt{}, ErrAlreadySuccinct
	}

	if r.Kind() == receipt.Composite && r.AssumptionCount() > 0 {
		if len(assumptions) == 0 {
			return receipt.Receipt{}, ErrUnresolvedAssumptions
		}
		for _, a := range assumptions {
			if !a.IsUnconditional() {
				return receipt.Receipt{}, ErrConditionalAssumption
			}
		}
	}

	cl, err := r.Claim()
	if err != nil {
		return receipt.Receipt{}, err
	}
	raw := prover.RawReceipt{Kind: r.Kind(), Claim: &cl, AssumptionCount: r.AssumptionCount()}

	start := time.Now()
	compressed, err := backend.Compress(ctx, raw, receipt.Succinct)
	if rec != nil {
		rec.ProveDuration("compress", time.Since(start))
	}
	if err != nil {
		if looksLikeAssumptionMismatch(err) {
			return receipt.Receipt{}, fmt.Errorf("%w: %v", ErrUnresolvedAssumptions, err)
		}
		return receipt.Receipt{}, fmt.Errorf("%w: %v", ErrCompressFailed, err)
	}

	return receipt.New(compressed.Seal, compressed.Kind, compressed.Claim, compressed.AssumptionCount), nil
}
