package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"

	"github.com/petlog/healthrag/storage"
)

// OffsetStore implements storage.OffsetStore for BadgerDB.
type OffsetStore struct {
	backend *Backend
}

var _ storage.OffsetStore = (*OffsetStore)(nil)

// NewOffsetStore creates a new OffsetStore on the given backend.
func NewOffsetStore(backend *Backend) *OffsetStore {
	return &OffsetStore{
		backend: backend,
	}
}

// Commit durably records that group has processed up to offset.
// Commits must never move backwards.
func (s *OffsetStore) Commit(ctx context.Context, group string, offset uint64) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeGroupOffsetKey(group)

		item, err := tx.Get(key)
		if err != nil && err != badger.ErrKeyNotFound {
			return err
		}
		if err == nil {
			var last uint64
			valErr := item.Value(func(val []byte) error {
				var e error
				last, e = storage.UnmarshalOffset(val)
				return e
			})
			if valErr != nil {
				return valErr
			}
			if offset < last {
				return storage.ErrOffsetRegression
			}
		}

		if err := tx.Set(key, storage.MarshalOffset(offset)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Last returns the last committed offset for group.
func (s *OffsetStore) Last(ctx context.Context, group string) (uint64, bool, error) {
	var (
		offset uint64
		found  bool
	)
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeGroupOffsetKey(group))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}

		found = true
		return item.Value(func(val []byte) error {
			var e error
			offset, e = storage.UnmarshalOffset(val)
			return e
		})
	}, false)
	if err != nil {
		return 0, false, err
	}

	return offset, found, nil
}
