package wire

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Hash computes a content-addressed identity for v.
// Format: hex(SHA256(domain + 0x00 + canonical JSON of v)).
//
// The null byte separates the domain from the data so that no domain/data
// split is ambiguous. Version the domain (e.g. "druidkit/query/v1") so the
// hashing scheme can change without colliding with old identities.
func Hash(domain string, v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", domain, err)
	}
	return HashBytes(domain, data), nil
}

// HashBytes hashes already canonical bytes under domain.
func HashBytes(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
