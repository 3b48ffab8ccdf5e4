package receipt

import "github.com/garyrob/pyr0/image"

// VerifierContext is a placeholder for batch verification state. The
// upstream zkVM this driver models did not, at the time of writing, expose a
// reusable verification context capable of amortizing setup across multiple
// calls — so today VerifyWithContext and VerifyIntegrityWithContext simply
// delegate to their context-free counterparts. The type exists so callers
// can write forward-compatible code now and benefit automatically if a
// future backend adds real context reuse.
type VerifierContext struct{}

// NewVerifierContext returns an empty VerifierContext.
func NewVerifierContext() *VerifierContext {
	return &VerifierContext{}
}

// VerifyWithContext currently just calls Verify; ctx is accepted for API
// stability and is not yet consulted.
func (r Receipt) VerifyWithContext(ctx *VerifierContext, expected image.Identity) error {
	_ = ctx
	return r.Verify(expected)
}

// VerifyIntegrityWithContext currently just calls VerifyIntegrity; ctx is
// accepted for API stability and is not yet consulted.
func (r Receipt) VerifyIntegrityWithContext(ctx *VerifierContext) error {
	_ = ctx
	return r.VerifyIntegrity()
}
