// Package hash holds keyed hashing helpers.
package hash

import (
	"crypto/hmac"
	"crypto/sha256"

	"github.com/pkg/errors"
)

// Equal compares two secrets in constant time. Both are reduced to
// fixed-size HMAC digests first so their lengths do not leak.
func Equal(given, expected, key string) bool {
	a, err := sum256([]byte(given), []byte(key))
	if err != nil {
		return false
	}
	b, err := sum256([]byte(expected), []byte(key))
	if err != nil {
		return false
	}

	return hmac.Equal(a, b)
}

func sum256(message, key []byte) ([]byte, error) {
	h := hmac.New(sha256.New, key)
	if _, err := h.Write(message); err != nil {
		return nil, errors.Wrap(err, "hmac.Write")
	}
	return h.Sum(nil), nil
}
