// SPDX-License-Identifier: MIT
// Package: laso/store
//
// badger.go — persistent VectorStore over BadgerDB.
//
// Contract:
//   • Key: prefix 'v' followed by the basis position as a big-endian uint64,
//     so positions iterate in order.
//   • Value: one codec record (see codec.go).
//   • One Store is one read-write transaction; one Retrieve one read-only
//     transaction.
//   • An in-memory database (BadgerConfig.InMemory) needs no path.

package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/katalvlaran/laso/block"
)

const (
	keyPrefix = 'v'
	keySize   = 9
	dirPerm   = 0o750
)

// BadgerConfig configures OpenBadger.
type BadgerConfig struct {
	Path       string       // database directory; ignored when InMemory
	InMemory   bool         // keep everything in memory (tests, scratch solves)
	SyncWrites bool         // fsync every Store
	Codec      Codec        // value compression
	Logger     *slog.Logger // receives BadgerDB's own log lines; nil silences them
}

// Badger is a VectorStore backed by BadgerDB.
type Badger struct {
	db    *badger.DB
	codec Codec

	mu      sync.Mutex // guards the buffers below
	rec     []byte
	scratch []byte
}

// OpenBadger opens (or creates) the database described by cfg.
func OpenBadger(cfg BadgerConfig) (*Badger, error) {
	var opts badger.Options
	if cfg.Codec > CodecZstd {
		return nil, fmt.Errorf("store.OpenBadger: %v: %w", cfg.Codec, ErrUnknownCodec)
	}
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("store.OpenBadger: path is required for a persistent database")
		}
		if err := os.MkdirAll(cfg.Path, dirPerm); err != nil {
			return nil, fmt.Errorf("store.OpenBadger: create %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store.OpenBadger: %w", err)
	}

	return &Badger{db: db, codec: cfg.Codec}, nil
}

// positionKey returns the key of basis position p.
func positionKey(p int) []byte {
	var k [keySize]byte
	k[0] = keyPrefix
	binary.BigEndian.PutUint64(k[1:], uint64(p))

	return k[:]
}

// Store writes the columns of b as positions first, first+1, ... in one
// transaction.
func (s *Badger) Store(ctx context.Context, first int, b *block.Block) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		var (
			c   int
			val []byte
			err error
		)
		for c = 0; c < b.Cols(); c++ {
			if s.rec, s.scratch, err = encodeRecord(s.rec[:0], s.scratch, b.Col(c), s.codec); err != nil {
				return err
			}
			// Badger keeps the slice until commit: hand it a copy.
			val = append([]byte(nil), s.rec...)
			if err = txn.Set(positionKey(first+c), val); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("Badger.Store(%d): %w", first, mapBadgerErr(err))
	}

	return nil
}

// Retrieve reads positions first, first+1, ... into the columns of dst.
func (s *Badger) Retrieve(ctx context.Context, first int, dst *block.Block) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.View(func(txn *badger.Txn) error {
		var (
			c    int
			item *badger.Item
			err  error
		)
		for c = 0; c < dst.Cols(); c++ {
			if item, err = txn.Get(positionKey(first + c)); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("position %d: %w", first+c, ErrNotStored)
				}
				return err
			}
			col := dst.Col(c)
			if err = item.Value(func(val []byte) error {
				s.scratch, err = decodeRecord(col, val, s.scratch)
				return err
			}); err != nil {
				return fmt.Errorf("position %d: %w", first+c, err)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("Badger.Retrieve(%d): %w", first, mapBadgerErr(err))
	}

	return nil
}

// Len counts the stored positions.
func (s *Badger) Len() (int, error) {
	var n int
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte{keyPrefix}
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("Badger.Len: %w", mapBadgerErr(err))
	}

	return n, nil
}

// Reset deletes every stored position.
func (s *Badger) Reset() error {
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte{keyPrefix}
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("Badger.Reset: %w", mapBadgerErr(err))
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err = wb.Delete(k); err != nil {
			return fmt.Errorf("Badger.Reset: %w", mapBadgerErr(err))
		}
	}
	if err = wb.Flush(); err != nil {
		return fmt.Errorf("Badger.Reset: %w", mapBadgerErr(err))
	}

	return nil
}

// Close closes the database.
func (s *Badger) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("Badger.Close: %w", err)
	}

	return nil
}

// mapBadgerErr translates BadgerDB's closed-database error to ErrClosed.
func mapBadgerErr(err error) error {
	if errors.Is(err, badger.ErrDBClosed) {
		return fmt.Errorf("%v: %w", err, ErrClosed)
	}

	return err
}

// badgerLogger routes BadgerDB's printf-style logs to slog.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
