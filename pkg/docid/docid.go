// Package docid generates document keys. Two policies exist because the
// upstream feeds differ: sources that expose a stable identifier get a
// deterministic hash-derived key so re-ingestion overwrites the same row,
// while sources without one get a random short key per run.
package docid

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// keyLen is the number of characters kept from the full hash or UUID.
// 22 characters keep collisions negligible while staying URL friendly.
const keyLen = 22

// FromIdentifier derives a deterministic key from a source identifier.
// The identifier is lowercased before hashing so case-only variations of
// the same URI map to the same document. Returns "" for empty input.
func FromIdentifier(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(strings.ToLower(identifier)))
	return hex.EncodeToString(sum[:])[:keyLen]
}

// Random generates a URL-safe random key. Re-running a source that uses
// random keys produces new rows; callers relying on idempotent re-ingestion
// must use FromIdentifier instead.
func Random() string {
	uid := uuid.New()
	encoded := base64.RawURLEncoding.EncodeToString(uid[:])
	if len(encoded) > keyLen {
		encoded = encoded[:keyLen]
	}
	return encoded
}
