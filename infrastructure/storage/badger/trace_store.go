// Package badger provides a BadgerDB-backed run trace store for
// durable journals that outlive the process.
package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/felixgeelhaar/plansearch-go/domain/event"
	"github.com/felixgeelhaar/plansearch-go/trace"
)

// TraceStore is a BadgerDB-backed implementation of trace.Store.
type TraceStore struct {
	db        *badger.DB
	keyPrefix string
}

// Config configures the badger trace store.
type Config struct {
	// Dir is the database directory. Ignored when InMemory is set.
	Dir string

	// InMemory runs badger without touching disk; useful for tests.
	InMemory bool

	// KeyPrefix namespaces all keys written by this store.
	KeyPrefix string
}

// NewTraceStore opens (or creates) a badger-backed trace store.
func NewTraceStore(cfg Config) (*TraceStore, error) {
	opts := badger.DefaultOptions(cfg.Dir).
		WithInMemory(cfg.InMemory).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", cfg.Dir, err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "plansearch:"
	}

	return &TraceStore{db: db, keyPrefix: prefix}, nil
}

// Key format: prefix + "trace:" + runID + ":" + sequence (8 bytes, big-endian).
func (s *TraceStore) entryKey(runID string, seq uint64) []byte {
	seqBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(seqBytes, seq)
	return append([]byte(s.keyPrefix+"trace:"+runID+":"), seqBytes...)
}

// Key format: prefix + "seq:" + runID.
func (s *TraceStore) seqKey(runID string) []byte {
	return []byte(s.keyPrefix + "seq:" + runID)
}

// Append journals an event for a run, assigning the next sequence
// number inside one transaction.
func (s *TraceStore) Append(ctx context.Context, runID string, e event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if runID == "" {
		return fmt.Errorf("append: empty run ID")
	}

	return s.db.Update(func(txn *badger.Txn) error {
		var seq uint64
		item, err := txn.Get(s.seqKey(runID))
		if err == nil {
			if err := item.Value(func(val []byte) error {
				if len(val) == 8 {
					seq = binary.BigEndian.Uint64(val)
				}
				return nil
			}); err != nil {
				return err
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		seq++

		entry := trace.Entry{
			RunID: runID,
			Seq:   seq,
			Time:  time.Now(),
			Event: e,
		}
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshal entry: %w", err)
		}

		if err := txn.Set(s.entryKey(runID, seq), data); err != nil {
			return err
		}

		seqBytes := make([]byte, 8)
		binary.BigEndian.PutUint64(seqBytes, seq)
		return txn.Set(s.seqKey(runID), seqBytes)
	})
}

// Load returns a run's entries in sequence order.
func (s *TraceStore) Load(ctx context.Context, runID string) ([]trace.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entries []trace.Entry
	prefix := []byte(s.keyPrefix + "trace:" + runID + ":")

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var entry trace.Entry
				if err := json.Unmarshal(val, &entry); err != nil {
					return fmt.Errorf("unmarshal entry: %w", err)
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", trace.ErrRunNotFound, runID)
	}
	return entries, nil
}

// Runs lists all run IDs present in the store.
func (s *TraceStore) Runs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	prefix := []byte(s.keyPrefix + "seq:")

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			runID := strings.TrimPrefix(key, s.keyPrefix+"seq:")
			seen[runID] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// Close closes the underlying database.
func (s *TraceStore) Close() error {
	return s.db.Close()
}
