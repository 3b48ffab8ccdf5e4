// Command pyr0demo is an end-to-end demonstration of the composition core:
// it wires config -> log -> a Prover backend -> Composer -> receiptstore and
// runs two sample compositions (an Ed25519 signature check and a sparse
// Merkle membership check) through the CPU backend, logging each composed
// receipt's image id and journal length and putting it in the receiptstore.
// It is the Go analogue of the original crate's Python bindings,
// which existed only to let a host process drive the same life cycle.
package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"os"

	"github.com/garyrob/pyr0/composer"
	"github.com/garyrob/pyr0/config"
	ed25519demo "github.com/garyrob/pyr0/demo/ed25519"
	merkledemo "github.com/garyrob/pyr0/demo/merkle"
	"github.com/garyrob/pyr0/log"
	"github.com/garyrob/pyr0/metrics"
	"github.com/garyrob/pyr0/prover"
	"github.com/garyrob/pyr0/receiptstore"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log.Level, cfg.Log.Output, nil)
	log.Infow("starting pyr0demo", "backend", cfg.Prover.Backend)

	rec, err := metrics.NewRecorder(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to create metrics recorder: %v", err)
	}

	store, err := setupStore(cfg.Store)
	if err != nil {
		log.Fatalf("failed to set up receipt store: %v", err)
	}

	backend, err := setupBackend(cfg.Prover.Backend)
	if err != nil {
		log.Fatalf("failed to set up prover backend: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Prover.ProveLimit)
	err = runEd25519Demo(ctx, backend, rec, store)
	cancel()
	if err != nil {
		log.Fatalf("ed25519 demo failed: %v", err)
	}
	ctx, cancel = context.WithTimeout(context.Background(), cfg.Prover.ProveLimit)
	err = runMerkleDemo(ctx, backend, rec, store)
	cancel()
	if err != nil {
		log.Fatalf("merkle demo failed: %v", err)
	}

	log.Infow("pyr0demo finished", "stored", store.Len())
}

func setupStore(cfg config.StoreConfig) (*receiptstore.Store, error) {
	store, err := receiptstore.NewWithCapacity(cfg.Capacity)
	if err != nil {
		return nil, fmt.Errorf("new store: %w", err)
	}
	if cfg.DiskPath == "" {
		return store, nil
	}
	disk, err := receiptstore.OpenDiskStore(cfg.DiskPath)
	if err != nil {
		return nil, fmt.Errorf("open disk store: %w", err)
	}
	return store.WithDisk(disk), nil
}

func setupBackend(name string) (prover.Prover, error) {
	switch name {
	case "cpu", "":
		return prover.NewCPU(), nil
	case "fake":
		return prover.NewFake(), nil
	default:
		return nil, fmt.Errorf("unknown prover backend %q", name)
	}
}

// runEd25519Demo proves a guest that verifies an Ed25519 signature over a
// fixed message, input framed via Composer.WriteFrame (pattern C).
func runEd25519Demo(ctx context.Context, backend prover.Prover, rec *metrics.Recorder, store *receiptstore.Store) error {
	cpu, ok := backend.(*prover.CPU)
	if !ok {
		log.Infow("skipping ed25519 demo", "reason", "backend does not support guest registration")
		return nil
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}
	msg := []byte("pyr0 ed25519 demo message")
	sig := ed25519.Sign(priv, msg)

	elf := []byte("demo/ed25519")
	id, err := cpu.RegisterProgram(elf, ed25519demo.Program)
	if err != nil {
		return fmt.Errorf("register ed25519 program: %w", err)
	}
	img, err := cpu.LoadImage(ctx, elf)
	if err != nil {
		return fmt.Errorf("load ed25519 image: %w", err)
	}

	c := composer.New(img, cpu, rec)
	if err := c.WriteFrame(pub); err != nil {
		return fmt.Errorf("write pubkey: %w", err)
	}
	if err := c.WriteFrame(sig); err != nil {
		return fmt.Errorf("write signature: %w", err)
	}
	if err := c.WriteFrame(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}

	r, err := c.Prove(ctx, nil, true)
	if err != nil {
		return fmt.Errorf("prove ed25519 composition: %w", err)
	}
	log.Infow("ed25519 demo composed", "imageID", id.String(), "journalLen", len(r.JournalBytes()))
	return store.Put(r)
}

// runMerkleDemo proves a guest that recomputes a fixed-depth Merkle root,
// input written as a single raw fixed-width buffer (pattern B).
func runMerkleDemo(ctx context.Context, backend prover.Prover, rec *metrics.Recorder, store *receiptstore.Store) error {
	cpu, ok := backend.(*prover.CPU)
	if !ok {
		log.Infow("skipping merkle demo", "reason", "backend does not support guest registration")
		return nil
	}

	elf := []byte("demo/merkle")
	id, err := cpu.RegisterProgram(elf, merkledemo.Program)
	if err != nil {
		return fmt.Errorf("register merkle program: %w", err)
	}
	img, err := cpu.LoadImage(ctx, elf)
	if err != nil {
		return fmt.Errorf("load merkle image: %w", err)
	}

	input := make([]byte, merkledemo.InputLen)
	if _, err := rand.Read(input); err != nil {
		return fmt.Errorf("generate merkle input: %w", err)
	}

	c := composer.New(img, cpu, rec)
	if err := c.WriteRawBytes(input); err != nil {
		return fmt.Errorf("write merkle input: %w", err)
	}

	r, err := c.Prove(ctx, nil, true)
	if err != nil {
		return fmt.Errorf("prove merkle composition: %w", err)
	}
	log.Infow("merkle demo composed", "imageID", id.String(), "journalLen", len(r.JournalBytes()))
	return store.Put(r)
}
