package receipt

import "fmt"

// Kind classifies a Receipt by the proof system used to produce it, and
// doubles as the proof-mode selector passed to Composer.Prove.
type Kind int

const (
	// Composite receipts may carry a list of unresolved assumption claims.
	Composite Kind = iota
	// Succinct receipts are compressed, constant-size to verify, and
	// unconditional: all assumptions have been resolved.
	Succinct
	// Groth16 receipts are the final, on-chain-verifiable wrapping.
	Groth16
	// Fake receipts are non-cryptographic, construction-only fixtures for
	// tests; never produced by a real prover, and always rejected as an
	// assumption or as a Composer.Prove mode.
	Fake
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Composite:
		return "Composite"
	case Succinct:
		return "Succinct"
	case Groth16:
		return "Groth16"
	case Fake:
		return "Fake"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsUnconditional reports whether a receipt of this kind can never carry
// unresolved assumptions. Succinct, Groth16, and Fake are unconditional;
// Composite receipts may or may not be, depending on their assumption count.
func (k Kind) IsUnconditional() bool {
	switch k {
	case Succinct, Groth16, Fake:
		return true
	default:
		return false
	}
}
