// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

// Package store persists Data Connections, their layers and connection
// subscriber UIDs in BadgerDB. It implements datasync.Store.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/takbridge/internal/config"
	"github.com/tomtom215/takbridge/internal/datasync"
	"github.com/tomtom215/takbridge/internal/logging"
	"github.com/tomtom215/takbridge/internal/metrics"
	"github.com/tomtom215/takbridge/internal/validation"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("store: not found")

// Key prefixes. Ids are zero padded so iteration order is numeric.
const (
	dataKeyPrefix       = "data:"
	layerKeyPrefix      = "layer:"
	subscriberKeyPrefix = "subscriber:"
)

func dataKey(id int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", dataKeyPrefix, id))
}

func layerPrefix(dataID int64) []byte {
	return []byte(fmt.Sprintf("%s%020d:", layerKeyPrefix, dataID))
}

func layerKey(dataID, id int64) []byte {
	return append(layerPrefix(dataID), []byte(fmt.Sprintf("%020d", id))...)
}

func subscriberKey(connection int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", subscriberKeyPrefix, connection))
}

// Store is a BadgerDB-backed record store.
type Store struct {
	db *badger.DB
}

var _ datasync.Store = (*Store)(nil)

// Open opens (or creates) the database described by cfg. An empty path
// or InMemory opens a memory-only database.
func Open(cfg config.StoreConfig) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory || cfg.Path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", opts.InMemory).
		Msg("Store opened")
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func observe(op string, start time.Time) {
	metrics.RecordStoreOperation(op, time.Since(start))
}

func getJSON(txn *badger.Txn, key []byte, out any) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return txn.Set(key, data)
}

// PutDataConnection inserts or replaces a Data Connection.
func (s *Store) PutDataConnection(_ context.Context, d *datasync.DataConnection) error {
	defer observe("put_data", time.Now())
	if err := validation.ValidateStruct(d); err != nil {
		return fmt.Errorf("invalid data connection: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, dataKey(d.ID), d)
	})
}

// GetDataConnection loads one Data Connection.
func (s *Store) GetDataConnection(_ context.Context, id int64) (*datasync.DataConnection, error) {
	defer observe("get_data", time.Now())
	var d datasync.DataConnection
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, dataKey(id), &d)
	})
	if err != nil {
		return nil, fmt.Errorf("data connection %d: %w", id, err)
	}
	return &d, nil
}

// ListDataConnections returns every Data Connection ordered by id.
func (s *Store) ListDataConnections(_ context.Context) ([]*datasync.DataConnection, error) {
	defer observe("list_data", time.Now())
	out := []*datasync.DataConnection{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(dataKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var d datasync.DataConnection
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &d)
			}); err != nil {
				return err
			}
			out = append(out, &d)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list data connections: %w", err)
	}
	return out, nil
}

// DeleteDataConnection removes a Data Connection and its layers. Deleting
// a missing record is not an error.
func (s *Store) DeleteDataConnection(_ context.Context, id int64) error {
	defer observe("delete_data", time.Now())
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(dataKey(id)); err != nil {
			return err
		}
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := layerPrefix(id)
		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveMissionToken records the Mission token of a Data Connection.
func (s *Store) SaveMissionToken(_ context.Context, dataID int64, token string) error {
	defer observe("save_token", time.Now())
	return s.db.Update(func(txn *badger.Txn) error {
		var d datasync.DataConnection
		if err := getJSON(txn, dataKey(dataID), &d); err != nil {
			return fmt.Errorf("data connection %d: %w", dataID, err)
		}
		d.MissionToken = &token
		return setJSON(txn, dataKey(dataID), &d)
	})
}

// PutLayer inserts or replaces a layer. Its Data Connection must exist.
func (s *Store) PutLayer(_ context.Context, l datasync.Layer) error {
	defer observe("put_layer", time.Now())
	if l.ID <= 0 {
		return fmt.Errorf("invalid layer id %d", l.ID)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(dataKey(l.DataID)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("data connection %d: %w", l.DataID, ErrNotFound)
			}
			return err
		}
		return setJSON(txn, layerKey(l.DataID, l.ID), l)
	})
}

// DeleteLayer removes one layer.
func (s *Store) DeleteLayer(_ context.Context, dataID, id int64) error {
	defer observe("delete_layer", time.Now())
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(layerKey(dataID, id))
	})
}

// ListLayers returns up to limit layers of dataID ordered by id. A limit
// of zero or less means no limit.
func (s *Store) ListLayers(_ context.Context, dataID int64, limit int) ([]datasync.Layer, error) {
	defer observe("list_layers", time.Now())
	out := []datasync.Layer{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := layerPrefix(dataID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var l datasync.Layer
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &l)
			}); err != nil {
				return err
			}
			out = append(out, l)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list layers of data connection %d: %w", dataID, err)
	}
	return out, nil
}

// SetSubscriberUID records the client UID a connection streams under. An
// empty uid clears it.
func (s *Store) SetSubscriberUID(_ context.Context, connection int64, uid string) error {
	defer observe("set_subscriber", time.Now())
	return s.db.Update(func(txn *badger.Txn) error {
		if uid == "" {
			return txn.Delete(subscriberKey(connection))
		}
		return txn.Set(subscriberKey(connection), []byte(uid))
	})
}

// SubscriberUID returns the client UID of a connection or "".
func (s *Store) SubscriberUID(_ context.Context, connection int64) (string, error) {
	defer observe("get_subscriber", time.Now())
	var uid string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(subscriberKey(connection))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		v, err := item.ValueCopy(nil)
		uid = string(v)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("subscriber of connection %d: %w", connection, err)
	}
	return uid, nil
}
