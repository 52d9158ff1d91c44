// Package redisstore keeps card records in Redis.
package redisstore

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/alovak/securepay/internal/cardgen"
	"github.com/alovak/securepay/internal/store"
	"github.com/alovak/securepay/securepay/models"
)

// Store lists records per reference under "<prefix>ref:<ref>" and guards PAN
// uniqueness with "<prefix>pan:<hmac>".
type Store struct {
	client  *redis.Client
	prefix  string
	hashKey []byte
}

func New(client *redis.Client, prefix string, hashKey []byte) *Store {
	return &Store{client: client, prefix: prefix, hashKey: hashKey}
}

func (s *Store) refKey(ref string) string { return s.prefix + "ref:" + ref }

func (s *Store) panKey(pan string) string {
	return s.prefix + "pan:" + hex.EncodeToString(cardgen.HashPANHMAC(pan, s.hashKey))
}

func (s *Store) CreateCard(ctx context.Context, card models.CardRecord) error {
	card, err := store.Normalize(card)
	if err != nil {
		return err
	}
	value, err := json.Marshal(card)
	if err != nil {
		return err
	}

	panKey := s.panKey(card.Number)
	ok, err := s.client.SetNX(ctx, panKey, card.Ref, 0).Result()
	if err != nil {
		return fmt.Errorf("reserving pan: %w", err)
	}
	if !ok {
		return fmt.Errorf("card number exists: %w", store.ErrConflict)
	}
	if err := s.client.RPush(ctx, s.refKey(card.Ref), value).Err(); err != nil {
		err = fmt.Errorf("storing card: %w", err)
		if delErr := s.client.Del(ctx, panKey).Err(); delErr != nil {
			err = errors.Join(err, fmt.Errorf("releasing pan reservation: %w", delErr))
		}
		return err
	}
	return nil
}

func (s *Store) FindCard(ctx context.Context, ref string) (*models.CardRecord, error) {
	values, err := s.client.LRange(ctx, s.refKey(ref), 0, 1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading card: %w", err)
	}
	switch len(values) {
	case 0:
		return nil, store.ErrNotFound
	case 1:
	default:
		return nil, store.ErrAmbiguous
	}

	var rec models.CardRecord
	if err := json.Unmarshal([]byte(values[0]), &rec); err != nil {
		return nil, fmt.Errorf("decoding card: %w", err)
	}
	return &rec, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
