package kv

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

var ErrLayoutNotFound = errors.New("layout not found")

// KVDB caches computed layouts keyed by the digest of the input graph and
// the engine configuration, so repeated requests skip the embedding.
type KVDB struct {
	db *badger.DB
}

func NewKVDB(db *badger.DB) *KVDB {
	return &KVDB{db}
}

func (k *KVDB) Close() error {
	return k.db.Close()
}

// Digest computes the cache key of a request payload.
func Digest(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (k *KVDB) PutLayout(ctx context.Context, digest string, layout *CachedLayout) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled")
	default:
	}

	val, err := compress(encode(layout))
	if err != nil {
		return err
	}
	return k.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(digest), val)
	})
}

func (k *KVDB) GetLayout(ctx context.Context, digest string) (*CachedLayout, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled")
	default:
	}

	var out *CachedLayout
	err := k.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(digest))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrLayoutNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			raw, err := decompress(val)
			if err != nil {
				return err
			}
			out, err = decode(raw)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
