//go:build !softhsm

package hsm

import (
	"context"
	"fmt"

	"github.com/alovak/securepay/internal/security"
)

type unavailable struct{}

// New returns a provider that always fails; build with -tags softhsm to
// read the secret from a PKCS#11 token.
func New(Config) security.SecretProvider {
	return unavailable{}
}

func (unavailable) Secret(context.Context) ([]byte, error) {
	return nil, fmt.Errorf("hsm secret source requires a build with -tags softhsm")
}
