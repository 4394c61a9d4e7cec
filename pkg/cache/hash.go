package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash returns the SHA-256 content hash of data as a 64-character hex
// string. Document hashes key compiled graphs and layouts; layout hashes key
// rendered artifacts.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey builds a namespaced cache key: "prefix:" followed by the hash of
// the remaining parts. Parts are NUL-joined before hashing so ("a", "bc")
// and ("ab", "c") never collide.
func hashKey(prefix string, parts ...string) string {
	return prefix + ":" + Hash([]byte(strings.Join(parts, "\x00")))
}
