package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken hashes a token string. Cache keys and log lines carry the hash,
// never the token itself.
func HashToken(token string) string {
	hasher := sha256.New()
	hasher.Write([]byte(token))
	return hex.EncodeToString(hasher.Sum(nil))
}
