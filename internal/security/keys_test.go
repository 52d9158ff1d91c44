package security

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveKey(t *testing.T) {
	master := []byte("a master secret long enough for tests")

	a, err := DeriveKey(master, LabelTokenSigning)
	require.NoError(t, err)
	require.Len(t, a, 32)

	again, err := DeriveKey(master, LabelTokenSigning)
	require.NoError(t, err)
	require.Equal(t, a, again)

	b, err := DeriveKey(master, LabelPANHash)
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	_, err = DeriveKey(nil, LabelPANHash)
	require.Error(t, err)
}

func TestWipe(t *testing.T) {
	b := []byte("secret")
	Wipe(b)
	require.Equal(t, make([]byte, 6), b)
}

func TestEnvSecret(t *testing.T) {
	t.Setenv("SECUREPAY_TEST_SECRET", "from-env")
	got, err := EnvSecret{Name: "SECUREPAY_TEST_SECRET"}.Secret(context.Background())
	require.NoError(t, err)
	require.Equal(t, []byte("from-env"), got)

	_, err = EnvSecret{Name: "SECUREPAY_TEST_SECRET_UNSET"}.Secret(context.Background())
	require.Error(t, err)
}

func TestStaticSecret_ReturnsCopy(t *testing.T) {
	s := StaticSecret("fixed")
	got, err := s.Secret(context.Background())
	require.NoError(t, err)
	got[0] = 'X'
	require.Equal(t, StaticSecret("fixed"), s)

	_, err = StaticSecret(nil).Secret(context.Background())
	require.Error(t, err)
}
