package receiptstore

import (
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/garyrob/pyr0/claim"
	"github.com/garyrob/pyr0/receipt"
)

// DiskStore persists receipts to a pebble key-value store on disk, keyed by
// the 64-byte concatenation of (image_id, journal_digest). Used by the demo
// CLI when store.diskPath is set; not required for core Composer/Receipt
// semantics.
type DiskStore struct {
	db *pebble.DB
}

// OpenDiskStore opens (creating if necessary) a pebble store at dir.
func OpenDiskStore(dir string) (*DiskStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("receiptstore: open %s: %w", dir, err)
	}
	return &DiskStore{db: db}, nil
}

// Close releases the underlying pebble handle.
func (d *DiskStore) Close() error {
	return d.db.Close()
}

func diskKey(k claim.Key) []byte {
	out := make([]byte, 0, 64)
	out = append(out, k.ImageID[:]...)
	out = append(out, k.JournalDigest[:]...)
	return out
}

// Put writes r to disk under key, overwriting any existing entry.
func (d *DiskStore) Put(key claim.Key, r receipt.Receipt) error {
	data, err := r.MarshalBinary()
	if err != nil {
		return fmt.Errorf("receiptstore: marshal: %w", err)
	}
	if err := d.db.Set(diskKey(key), data, pebble.Sync); err != nil {
		return fmt.Errorf("receiptstore: set: %w", err)
	}
	return nil
}

// Get reads a receipt from disk by claim key.
func (d *DiskStore) Get(key claim.Key) (receipt.Receipt, bool) {
	data, closer, err := d.db.Get(diskKey(key))
	if err != nil {
		return receipt.Receipt{}, false
	}
	defer closer.Close()

	var r receipt.Receipt
	if err := r.UnmarshalBinary(data); err != nil {
		return receipt.Receipt{}, false
	}
	return r, true
}
