package issuerdev_test

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"github.com/alovak/securepay/internal/issuerdev"
	"github.com/alovak/securepay/internal/token"
	"github.com/alovak/securepay/securepay"
	"github.com/alovak/securepay/securepay/models"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	codec, err := token.NewCodec([]byte("issuerdev-test-secret-0123456789abcdef"))
	require.NoError(t, err)
	svc := securepay.NewService(codec, securepay.NewRepository(), securepay.DefaultConfig(),
		securepay.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	r := chi.NewRouter()
	api := securepay.NewAPI(svc)
	api.AppendRoutes(r)
	api.AppendDevRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_RoundTrip(t *testing.T) {
	srv := newServer(t)
	cli := issuerdev.New(srv.URL+"/", nil)
	ctx := context.Background()

	code := "777"
	created, err := cli.CreateCard(ctx, models.CreateCard{
		IssuingBank: "Banamex", Number: "4111111111111111", Expiry: "12/30",
		VerificationCode: &code, HolderName: "Rosa Ruiz",
	})
	require.NoError(t, err)
	require.Equal(t, "411111******1111", created.MaskedNumber)

	issued, err := cli.IssueToken(ctx, models.IssueToken{
		ReservationCode: "RSV-5", Amount: token.MustAmount("12.34"), CardRef: created.Ref,
		RevealVerificationCode: true,
	})
	require.NoError(t, err)
	require.True(t, issued.ExpiresAt.After(time.Now()))

	res, err := cli.Resolve(ctx, issued.Token)
	require.NoError(t, err)
	require.Equal(t, "12.34", res.Payment.Amount.String())
	require.Equal(t, "777", *res.Card.VerificationCode)
	require.Equal(t, "12/30", res.Card.Expiry)
}

func TestClient_Errors(t *testing.T) {
	srv := newServer(t)
	cli := issuerdev.New(srv.URL, nil)
	ctx := context.Background()

	_, err := cli.Resolve(ctx, "not-a-token")
	require.ErrorIs(t, err, issuerdev.ErrAccessDenied)

	_, err = cli.CreateCard(ctx, models.CreateCard{Number: "1"})
	require.ErrorContains(t, err, "status=400")
}
