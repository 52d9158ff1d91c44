package security

import (
	"context"
	"fmt"
	"os"
)

// SecretProvider yields the master secret once at process start. The caller
// owns the returned slice.
type SecretProvider interface {
	Secret(ctx context.Context) ([]byte, error)
}

// EnvSecret reads the master secret from an environment variable.
type EnvSecret struct {
	Name string
}

func (e EnvSecret) Secret(context.Context) ([]byte, error) {
	v := os.Getenv(e.Name)
	if v == "" {
		return nil, fmt.Errorf("%s not set", e.Name)
	}
	return []byte(v), nil
}

// StaticSecret is a fixed secret, for tests and local tools.
type StaticSecret []byte

func (s StaticSecret) Secret(context.Context) ([]byte, error) {
	if len(s) == 0 {
		return nil, fmt.Errorf("static secret is empty")
	}
	out := make([]byte, len(s))
	copy(out, s)
	return out, nil
}
