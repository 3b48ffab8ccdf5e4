package image

import "context"

// Image is the loaded, backend-specific memory image of a guest ELF. Its
// internal layout is owned entirely by the Prover backend that produced it;
// this core never interprets the contents, only passes the value back to the
// same backend when proving.
type Image struct {
	// ID is the Identity derived from the ELF at load time.
	ID Identity
	// Backend is an opaque handle the originating Prover backend can type-assert
	// back to its own concrete representation (e.g. a compiled memory page table).
	Backend any
}

// Loader is the narrow slice of the Prover collaborator (see package prover)
// that Image needs to load an ELF. Defined locally to avoid an import cycle
// between image and prover.
type Loader interface {
	LoadImage(ctx context.Context, elf []byte) (Image, error)
}

// FromELF loads elf via the given backend, returning the resulting Image
// (which carries its own trusted Identity, derived locally rather than read
// from any receipt).
func FromELF(ctx context.Context, backend Loader, elf []byte) (Image, error) {
	return backend.LoadImage(ctx, elf)
}
