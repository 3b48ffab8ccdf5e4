// Package receiptstore caches composed receipts for the demo CLI, keyed by
// claim key. The demo stores each receipt after proving it; it does not look
// the store up before proving. This is CLI
// plumbing, not part of the verification core: Receipts are immutable values
// regardless of which store holds a copy (§5 of the specification).
package receiptstore

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/garyrob/pyr0/claim"
	"github.com/garyrob/pyr0/receipt"
)

// defaultCapacity mirrors the teacher's fixed-size artifact cache.
const defaultCapacity = 1000

// Store is an in-memory LRU cache of receipts keyed by claim.Key, optionally
// backed by an on-disk DiskStore for write-through persistence.
type Store struct {
	cache *lru.Cache[claim.Key, receipt.Receipt]
	disk  *DiskStore
}

// New returns a Store with the default in-memory capacity and no disk
// backing.
func New() (*Store, error) {
	return NewWithCapacity(defaultCapacity)
}

// NewWithCapacity returns a Store with the given in-memory capacity.
func NewWithCapacity(capacity int) (*Store, error) {
	cache, err := lru.New[claim.Key, receipt.Receipt](capacity)
	if err != nil {
		return nil, fmt.Errorf("receiptstore: %w", err)
	}
	return &Store{cache: cache}, nil
}

// WithDisk attaches a DiskStore for write-through persistence; Put writes to
// both the in-memory cache and disk, Get checks memory first then disk.
func (s *Store) WithDisk(d *DiskStore) *Store {
	s.disk = d
	return s
}

// Put caches r under its claim key. Fails ClaimPruned if r's claim cannot be
// read.
func (s *Store) Put(r receipt.Receipt) error {
	cl, err := r.Claim()
	if err != nil {
		return err
	}
	key := cl.Key()
	s.cache.Add(key, r)
	if s.disk != nil {
		return s.disk.Put(key, r)
	}
	return nil
}

// Get looks up a cached receipt by claim key, checking the in-memory cache
// first and falling back to disk (populating the in-memory cache on a disk
// hit) if one is attached.
func (s *Store) Get(key claim.Key) (receipt.Receipt, bool) {
	if r, ok := s.cache.Get(key); ok {
		return r, true
	}
	if s.disk != nil {
		if r, ok := s.disk.Get(key); ok {
			s.cache.Add(key, r)
			return r, true
		}
	}
	return receipt.Receipt{}, false
}

// Len returns the number of entries currently in the in-memory cache.
func (s *Store) Len() int {
	return s.cache.Len()
}
