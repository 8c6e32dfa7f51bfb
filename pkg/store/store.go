// Package store keeps generated commentary on disk so the same game is not
// sent to a provider twice.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const keyPrefix = "commentary/"

var ErrNotFound = errors.New("store: not found")

// Entry is one cached commentary.
type Entry struct {
	Provider string    `json:"provider"`
	Analysis string    `json:"analysis"`
	Created  time.Time `json:"created"`
}

// Store wraps BadgerDB.
type Store struct {
	db  *badger.DB
	ttl time.Duration
}

type Option func(*Store)

// WithTTL expires entries after d. Zero keeps them forever.
func WithTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

// Open opens or creates the database in dir. An empty dir keeps everything in
// memory.
func Open(dir string, opts ...Option) (*Store, error) {
	bopts := badger.DefaultOptions(dir)
	if dir == "" {
		bopts = bopts.WithInMemory(true)
	}
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Get(key string) (*Entry, error) {
	var entry Entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Store) Put(key string, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(keyPrefix+key), data)
		if s.ttl > 0 {
			e = e.WithTTL(s.ttl)
		}
		return txn.SetEntry(e)
	})
}

func (s *Store) Delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + key))
	})
}

// Count returns the number of live entries.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}
