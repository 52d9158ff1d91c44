package securepay

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/alovak/securepay/securepay/models"
)

func TestRepository_Memory(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	code := "123"

	require.NoError(t, repo.CreateCard(ctx, models.CardRecord{
		Ref: "c-1", Number: "4111111111111111", ExpiryYYMM: "2911", VerificationCode: &code,
	}))

	got, err := repo.FindCard(ctx, "c-1")
	require.NoError(t, err)
	*got.VerificationCode = "000"

	again, err := repo.FindCard(ctx, "c-1")
	require.NoError(t, err)
	require.Equal(t, "123", *again.VerificationCode, "callers must not mutate stored records")

	_, err = repo.FindCard(ctx, "c-2")
	require.ErrorIs(t, err, ErrNotFound)

	err = repo.CreateCard(ctx, models.CardRecord{Ref: "c-2", Number: "4111111111111111", ExpiryYYMM: "2911"})
	require.ErrorIs(t, err, ErrConflict)

	require.NoError(t, repo.CreateCard(ctx, models.CardRecord{Ref: "c-1", Number: "5555555555554444", ExpiryYYMM: "2911"}))
	_, err = repo.FindCard(ctx, "c-1")
	require.ErrorIs(t, err, ErrAmbiguous)

	require.NoError(t, repo.Ping(ctx))
	require.NoError(t, repo.Close())
}

func TestIsUniqueViolation(t *testing.T) {
	require.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	require.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	require.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	require.False(t, isUniqueViolation(errors.New("boom")))
	require.False(t, isUniqueViolation(nil))
}
