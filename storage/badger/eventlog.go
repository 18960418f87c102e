package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"

	"github.com/petlog/healthrag/core"
	"github.com/petlog/healthrag/storage"
)

// EventLog implements storage.EventLog for BadgerDB.
type EventLog struct {
	backend   *Backend
	offsetSeq *badger.Sequence
}

var _ storage.EventLog = (*EventLog)(nil)

// NewEventLog creates a new EventLog on the given backend.
func NewEventLog(backend *Backend) (*EventLog, error) {
	offsetSeq, err := backend.GetSequence(eventOffsetSeq)
	if err != nil {
		return nil, err
	}

	return &EventLog{
		backend:   backend,
		offsetSeq: offsetSeq,
	}, nil
}

// Close releases the offset sequence.
func (l *EventLog) Close() error {
	return l.offsetSeq.Release()
}

// Append adds an event to the log and returns its assigned offset.
func (l *EventLog) Append(ctx context.Context, event *core.ChangeEvent) (uint64, error) {
	value, err := storage.MarshalChangeEvent(event)
	if err != nil {
		return 0, err
	}

	var offset uint64
	err = l.backend.WithTx(func(tx *badger.Txn) error {
		next, err := l.offsetSeq.Next()
		if err != nil {
			return err
		}
		// BadgerDB sequences can return 0 on first call, so we skip it.
		// Offset 0 stays reserved for "nothing committed".
		if next == 0 {
			next, err = l.offsetSeq.Next()
			if err != nil {
				return err
			}
		}
		offset = next

		if err := tx.Set(makeEventKey(offset), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}

	return offset, nil
}

// Read returns up to max records with offset > after, in offset order.
func (l *EventLog) Read(ctx context.Context, after uint64, max int) ([]storage.Record, error) {
	if max <= 0 {
		return nil, nil
	}

	var records []storage.Record
	err := l.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(eventRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(makeEventKey(after + 1)); iter.Valid(); iter.Next() {
			item := iter.Item()
			offset, ok := eventKeyOffset(item.Key())
			if !ok {
				continue
			}

			var event *core.ChangeEvent
			err := item.Value(func(val []byte) error {
				var err error
				event, err = storage.UnmarshalChangeEvent(val)
				return err
			})
			if err != nil {
				return err
			}

			records = append(records, storage.Record{Offset: offset, Event: event})
			if len(records) >= max {
				break
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return records, nil
}

// LastOffset returns the highest offset in the log, 0 when empty.
func (l *EventLog) LastOffset(ctx context.Context) (uint64, error) {
	var last uint64
	err := l.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(eventRecordPrefix + ":")
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek past the prefix range, then step back to the last record.
		seek := append([]byte(eventRecordPrefix+":"), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
		for iter.Seek(seek); iter.Valid(); iter.Next() {
			if offset, ok := eventKeyOffset(iter.Item().Key()); ok {
				last = offset
				return nil
			}
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}

	return last, nil
}
