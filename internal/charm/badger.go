// ABOUTME: Local badger database adapted to the KV interface.
// ABOUTME: An empty directory opens an in-memory database, used by tests.
package charm

import (
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v3"
)

type badgerKV struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a badger database in dir. An empty dir
// keeps everything in memory.
func OpenBadger(dir string) (KV, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	} else if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &badgerKV{db: db}, nil
}

// OpenLocal returns a record service over a badger database in dir.
func OpenLocal(dir string, opts ...Option) (*Client, error) {
	store, err := OpenBadger(dir)
	if err != nil {
		return nil, err
	}
	return New(store, opts...), nil
}

func (b *badgerKV) Set(key, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (b *badgerKV) Get(key []byte) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return out, err
}

func (b *badgerKV) Delete(key []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (b *badgerKV) Keys() ([][]byte, error) {
	var keys [][]byte
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	return keys, err
}

// Sync is a no-op; there is no remote to sync with.
func (b *badgerKV) Sync() error { return nil }

func (b *badgerKV) IsReadOnly() bool { return false }

func (b *badgerKV) Close() error { return b.db.Close() }
