// Package guestcart persists carts for unauthenticated visitors in a local
// bbolt file, one record per guest session. The record is a JSON-encoded item
// array under the guest's key; absence of the key means "no cart", which
// callers rely on as a signal distinct from an empty cart.
package guestcart

import (
	"fmt"
	"io"
	"log"
	"time"

	jsoniter "github.com/json-iterator/go"
	bolt "go.etcd.io/bbolt"

	"watchstore/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var bucketName = []byte("guest_cart")

// Store is a durable key-value store for guest carts.
type Store struct {
	db     *bolt.DB
	logger *log.Logger
}

// Open opens (or creates) the bbolt file and ensures the cart bucket exists.
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open guest cart db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init guest cart bucket: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the persisted items for the guest. A missing record and a
// corrupt record both degrade to an empty cart; corruption is logged, never
// surfaced.
func (s *Store) Load(guestID string) []domain.CartItem {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketName).Get([]byte(guestID)); v != nil {
			raw = append(raw, v...)
		}
		return nil
	})
	if err != nil {
		s.logger.Printf("guest cart: read guest=%s error=%v", guestID, err)
		return nil
	}
	if raw == nil {
		return nil
	}
	var items []domain.CartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		s.logger.Printf("guest cart: corrupt record guest=%s error=%v", guestID, err)
		return nil
	}
	return items
}

// Save overwrites the whole guest record with the given items.
func (s *Store) Save(guestID string, items []domain.CartItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode guest cart: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(guestID), raw)
	})
}

// Delete removes the guest record entirely. Clearing a cart deletes the key
// rather than writing an empty list.
func (s *Store) Delete(guestID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(guestID))
	})
}

// Exists reports whether a record is present for the guest.
func (s *Store) Exists(guestID string) bool {
	var found bool
	s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(bucketName).Get([]byte(guestID)) != nil
		return nil
	})
	return found
}
