package cardgen

import (
	"crypto/hmac"
	"crypto/sha256"
)

// HashPANHMAC computes HMAC-SHA256 over a PAN using a secret key (pepper).
// Stores index cards by this value; never log the input PAN.
func HashPANHMAC(pan string, key []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(pan))
	return h.Sum(nil)
}
