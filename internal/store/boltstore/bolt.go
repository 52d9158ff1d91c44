// Package boltstore is a single-file card store for local runs and demos.
package boltstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "github.com/boltdb/bolt"
	"github.com/google/uuid"

	"github.com/alovak/securepay/internal/cardgen"
	"github.com/alovak/securepay/internal/store"
	"github.com/alovak/securepay/securepay/models"
)

var (
	cardsBucket = []byte("cards")
	pansBucket  = []byte("pan_hashes")
)

// Store keeps card records in BoltDB. Card keys are "<ref>\x00<id>" so a
// prefix scan finds every record sharing a reference.
type Store struct {
	db      *bolt.DB
	hashKey []byte
}

// Open opens (or creates) the database at path and ensures the buckets exist.
func Open(path string, hashKey []byte) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{cardsBucket, pansBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db, hashKey: hashKey}, nil
}

func (s *Store) CreateCard(_ context.Context, card models.CardRecord) error {
	card, err := store.Normalize(card)
	if err != nil {
		return err
	}
	value, err := json.Marshal(card)
	if err != nil {
		return err
	}
	panHash := cardgen.HashPANHMAC(card.Number, s.hashKey)

	return s.db.Update(func(tx *bolt.Tx) error {
		pans := tx.Bucket(pansBucket)
		if pans.Get(panHash) != nil {
			return fmt.Errorf("card number exists: %w", store.ErrConflict)
		}
		key := cardKey(card.Ref, uuid.New().String())
		if err := tx.Bucket(cardsBucket).Put(key, value); err != nil {
			return err
		}
		return pans.Put(panHash, key)
	})
}

func (s *Store) FindCard(_ context.Context, ref string) (*models.CardRecord, error) {
	var found []models.CardRecord
	prefix := append([]byte(ref), 0)

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(cardsBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var rec models.CardRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decoding card: %w", err)
			}
			found = append(found, rec)
			if len(found) > 1 {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch len(found) {
	case 0:
		return nil, store.ErrNotFound
	case 1:
		return &found[0], nil
	default:
		return nil, store.ErrAmbiguous
	}
}

func (s *Store) Ping(context.Context) error {
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(cardsBucket) == nil {
			return fmt.Errorf("cards bucket missing")
		}
		return nil
	})
}

// Close releases the database file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

func cardKey(ref, id string) []byte {
	k := make([]byte, 0, len(ref)+1+len(id))
	k = append(k, ref...)
	k = append(k, 0)
	return append(k, id...)
}
