package securepay

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/lib/pq"

	"github.com/alovak/securepay/internal/cardgen"
	"github.com/alovak/securepay/internal/store"
	"github.com/alovak/securepay/securepay/models"
)

var (
	ErrNotFound  = store.ErrNotFound
	ErrConflict  = store.ErrConflict
	ErrAmbiguous = store.ErrAmbiguous
)

//go:embed schema.sql
var schemaSQL string

// CardStore is the card lookup collaborator. FindCard returns exactly one
// record, ErrNotFound, or ErrAmbiguous when the reference matches several.
type CardStore interface {
	FindCard(ctx context.Context, ref string) (*models.CardRecord, error)
	CreateCard(ctx context.Context, card models.CardRecord) error
	Ping(ctx context.Context) error
	Close() error
}

// Repository is a CardStore backed either by memory (tests) or Postgres.
type Repository struct {
	Cards []*models.CardRecord

	mu       sync.RWMutex
	panIndex map[string]struct{}
	db       *sql.DB
	hashKey  []byte
}

func NewRepository() *Repository {
	return &Repository{
		Cards:    make([]*models.CardRecord, 0),
		panIndex: make(map[string]struct{}),
	}
}

// NewPGRepository constructs a db-backed repository. hashKey peppers the PAN
// hash used for the uniqueness index.
func NewPGRepository(db *sql.DB, hashKey []byte) *Repository {
	return &Repository{db: db, hashKey: hashKey}
}

// Migrate creates the schema if it does not exist. No-op in memory.
func (r *Repository) Migrate(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

func (r *Repository) CreateCard(ctx context.Context, card models.CardRecord) error {
	card, err := store.Normalize(card)
	if err != nil {
		return err
	}
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.panIndex[card.Number]; ok {
			return fmt.Errorf("card number exists: %w", ErrConflict)
		}
		r.Cards = append(r.Cards, store.Clone(card))
		r.panIndex[card.Number] = struct{}{}
		return nil
	}

	var code sql.NullString
	if card.VerificationCode != nil {
		code = sql.NullString{String: *card.VerificationCode, Valid: true}
	}
	_, err = r.db.ExecContext(ctx, `
        INSERT INTO securepay.cards(card_id, card_ref, issuing_bank, pan, pan_hash, last4, expiry_yymm, verification_code, holder_name)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    `, uuid.New().String(), card.Ref, card.IssuingBank, card.Number,
		cardgen.HashPANHMAC(card.Number, r.hashKey), cardgen.LastN(card.Number, 4),
		card.ExpiryYYMM, code, card.HolderName)
	if isUniqueViolation(err) {
		return fmt.Errorf("card number exists: %w", ErrConflict)
	}
	return err
}

func (r *Repository) FindCard(ctx context.Context, ref string) (*models.CardRecord, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		var found *models.CardRecord
		for _, c := range r.Cards {
			if c.Ref != ref {
				continue
			}
			if found != nil {
				return nil, ErrAmbiguous
			}
			found = c
		}
		if found == nil {
			return nil, ErrNotFound
		}
		return store.Clone(*found), nil
	}

	rows, err := r.db.QueryContext(ctx, `
        SELECT card_ref, issuing_bank, pan, expiry_yymm, verification_code, holder_name
          FROM securepay.cards WHERE card_ref=$1 LIMIT 2
    `, ref)
	if err != nil {
		return nil, fmt.Errorf("querying card: %w", err)
	}
	defer rows.Close()

	var out []*models.CardRecord
	for rows.Next() {
		var c models.CardRecord
		var code sql.NullString
		if err := rows.Scan(&c.Ref, &c.IssuingBank, &c.Number, &c.ExpiryYYMM, &code, &c.HolderName); err != nil {
			return nil, fmt.Errorf("scanning card: %w", err)
		}
		if code.Valid {
			v := code.String
			c.VerificationCode = &v
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(out) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return out[0], nil
	default:
		return nil, ErrAmbiguous
	}
}

// Ping returns DB readiness
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func isUniqueViolation(err error) bool {
	var pe *pq.Error
	if errors.As(err, &pe) && pe.Code == "23505" {
		return true
	}
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == "23505" {
		return true
	}
	return false
}

var _ CardStore = (*Repository)(nil)
