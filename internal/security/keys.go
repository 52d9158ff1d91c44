package security

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Key labels. A label change invalidates every key derived under it.
const (
	LabelTokenSigning = "securepay/token-signing/v1"
	LabelPANHash      = "securepay/pan-hash/v1"
)

// DeriveKey expands master into a 32-byte key bound to label, so one
// configured secret can serve unrelated purposes without key reuse.
func DeriveKey(master []byte, label string) ([]byte, error) {
	if len(master) == 0 {
		return nil, fmt.Errorf("master secret is empty")
	}
	out := make([]byte, 32)
	r := hkdf.New(sha256.New, master, nil, []byte(label))
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("derive %s: %w", label, err)
	}
	return out, nil
}

// Wipe zeroes b. Go gives no guarantee that no other copy exists.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
