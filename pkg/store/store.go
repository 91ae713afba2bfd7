// Package store offers canonical-key prefix lookups over a built index.
// The CDXJ key exists so that sorted entries support range queries; loading
// them into an ordered key-value store makes those queries available
// without re-reading the serialized index.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/ssargent/warcpack/pkg/cdxj"
)

// keySep joins the canonical key and timestamp into one store key. A zero
// byte sorts before anything that can appear in a key, so entries for the
// same URL stay adjacent and ordered by capture time.
const keySep = byte(0)

// IndexStore is a pebble-backed lookup store over index entries.
type IndexStore struct {
	db *pebble.DB
}

// Open creates or opens a store at path.
func Open(path string) (*IndexStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open index store: %w", err)
	}
	return &IndexStore{db: db}, nil
}

// Load writes index entries into the store in one batch.
func (s *IndexStore) Load(entries []cdxj.Entry) error {
	batch := s.db.NewBatch()
	defer batch.Close()
	for _, entry := range entries {
		value, err := json.Marshal(entry.Payload)
		if err != nil {
			return fmt.Errorf("encode entry %q: %w", entry.Payload.URL, err)
		}
		key := storeKey(entry.Key, entry.Timestamp)
		if err := batch.Set(key, value, nil); err != nil {
			return fmt.Errorf("stage entry %q: %w", entry.Payload.URL, err)
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("commit index batch: %w", err)
	}
	return nil
}

// Scan returns all entries whose canonical key starts with prefix, in key
// order. An empty prefix returns every entry.
func (s *IndexStore) Scan(prefix string) ([]cdxj.Entry, error) {
	opts := &pebble.IterOptions{LowerBound: []byte(prefix)}
	if upper := prefixUpperBound([]byte(prefix)); upper != nil {
		opts.UpperBound = upper
	}
	iter, err := s.db.NewIter(opts)
	if err != nil {
		return nil, fmt.Errorf("open index iterator: %w", err)
	}

	var entries []cdxj.Entry
	for iter.First(); iter.Valid(); iter.Next() {
		key, ts, ok := bytes.Cut(iter.Key(), []byte{keySep})
		if !ok {
			iter.Close()
			return nil, fmt.Errorf("corrupt store key %q", iter.Key())
		}
		var payload cdxj.Payload
		if err := json.Unmarshal(iter.Value(), &payload); err != nil {
			iter.Close()
			return nil, fmt.Errorf("decode entry %q: %w", key, err)
		}
		entries = append(entries, cdxj.Entry{
			Key:       string(key),
			Timestamp: string(ts),
			Payload:   payload,
		})
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("close index iterator: %w", err)
	}
	return entries, nil
}

// Close closes the underlying database.
func (s *IndexStore) Close() error {
	return s.db.Close()
}

func storeKey(key, timestamp string) []byte {
	b := make([]byte, 0, len(key)+1+len(timestamp))
	b = append(b, key...)
	b = append(b, keySep)
	b = append(b, timestamp...)
	return b
}

// prefixUpperBound is the smallest key greater than every key with the
// given prefix, or nil if no such bound exists.
func prefixUpperBound(prefix []byte) []byte {
	upper := append([]byte{}, prefix...)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xff {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil
}
