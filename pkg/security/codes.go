// Package security holds the hashing used for secrets kept at rest.
package security

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/blake2b"
)

var errEmptySecret = errors.New("security: code hashing secret is required")

// CodeHasher stores one-time codes as keyed BLAKE2b-256 digests so a cache
// dump does not reveal pending codes. Every instance sharing a secret
// produces the same digests.
type CodeHasher struct {
	key []byte
}

func NewCodeHasher(secret []byte) (*CodeHasher, error) {
	if len(secret) == 0 {
		return nil, errEmptySecret
	}
	// blake2b caps keys at 64 bytes
	key := blake2b.Sum512(append([]byte("pawhaven/codes\x00"), secret...))
	return &CodeHasher{key: key[:]}, nil
}

// Digest binds code to scope, typically the cache key it is stored under.
func (h *CodeHasher) Digest(scope, code string) string {
	mac, err := blake2b.New256(h.key)
	if err != nil {
		panic(err)
	}
	mac.Write([]byte(scope))
	mac.Write([]byte{0})
	mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))
}

func (h *CodeHasher) Matches(digest, scope, code string) bool {
	return subtle.ConstantTimeCompare([]byte(digest), []byte(h.Digest(scope, code))) == 1
}
