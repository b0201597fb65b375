// Package badgerstore keeps inventory snapshots in an embedded BadgerDB,
// one key per inventory.
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/vbonduro/propinv/internal/domain"
	"github.com/vbonduro/propinv/internal/store"
)

const keyPrefix = "inventory/"

// Config holds the BadgerDB options the store exposes.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path       string
	InMemory   bool
	SyncWrites bool
	// Logger receives badger's internal logs. Nil disables them.
	Logger *slog.Logger
}

type Store struct {
	db    *badger.DB
	codec *store.Codec
}

// Open opens or creates the database described by cfg.
func Open(cfg Config, codec *store.Codec) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger path is required for a persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("failed to create badger directory: %w", err)
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
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &Store{db: db, codec: codec}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func key(id string) []byte {
	return []byte(keyPrefix + id)
}

func (s *Store) Put(ctx context.Context, inv *domain.Inventory) error {
	payload, err := s.codec.Encode(inv)
	if err != nil {
		return err
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(inv.ID), payload)
	}); err != nil {
		return fmt.Errorf("failed to put inventory: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Inventory, error) {
	var payload []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(id))
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory: %w", err)
	}
	return s.codec.Decode(payload)
}

// List returns every snapshot in key order.
func (s *Store) List(ctx context.Context) ([]*domain.Inventory, error) {
	var payloads [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			payloads = append(payloads, v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list inventories: %w", err)
	}

	inventories := make([]*domain.Inventory, 0, len(payloads))
	for _, p := range payloads {
		inv, err := s.codec.Decode(p)
		if err != nil {
			return nil, err
		}
		inventories = append(inventories, inv)
	}
	return inventories, nil
}

// badgerLogger adapts slog to badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}
