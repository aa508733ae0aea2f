package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Sum computes a domain-separated SHA-256 over canonical bytes:
// SHA256(domain || 0x00 || data), hex encoded. The null separator removes
// any ambiguity about where the domain ends and the payload begins.
//
// Domain strings carry a version suffix (for example "posy/catalog/v1") so
// the hash construction can migrate without colliding with old IDs.
func Sum(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ID canonically marshals v and returns its domain-separated hash.
func ID(domain string, v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", fmt.Errorf("canon: id for domain %s: %w", domain, err)
	}
	return Sum(domain, data), nil
}
