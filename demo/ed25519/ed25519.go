// Package ed25519demo is a non-core example guest, standing in for the
// original Rust guest that verified an Ed25519 signature and committed the
// result. It is not part of the composition/verification core — just an
// illustration of a CPU-backed Program a real caller could register.
package ed25519demo

import (
	"crypto/ed25519"
	"encoding/binary"
	"fmt"

	"github.com/garyrob/pyr0/claim"
)

// Program reads a public key, a signature, and a message from the input
// buffer — each written with Composer.WriteFrame (pattern C) — verifies the
// signature, and commits a single status byte (1 valid, 0 invalid) followed
// by the public key on success, mirroring the original guest's commit
// sequence.
func Program(input []byte, _ [][]byte) ([]byte, claim.ExitStatus, error) {
	pub, rest, err := readFrame(input)
	if err != nil {
		return nil, claim.ExitStatus{}, err
	}
	sig, rest, err := readFrame(rest)
	if err != nil {
		return nil, claim.ExitStatus{}, err
	}
	msg, _, err := readFrame(rest)
	if err != nil {
		return nil, claim.ExitStatus{}, err
	}

	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return []byte{0}, claim.Halt(0), nil
	}

	if ed25519.Verify(ed25519.PublicKey(pub), msg, sig) {
		journal := append([]byte{1}, pub...)
		return journal, claim.Halt(0), nil
	}
	return []byte{0}, claim.Halt(0), nil
}

func readFrame(b []byte) (frame []byte, rest []byte, err error) {
	if len(b) < 8 {
		return nil, nil, fmt.Errorf("demo/ed25519: truncated frame length")
	}
	n := binary.LittleEndian.Uint64(b[:8])
	if uint64(len(b[8:])) < n {
		return nil, nil, fmt.Errorf("demo/ed25519: truncated frame body")
	}
	return b[8 : 8+n], b[8+n:], nil
}
