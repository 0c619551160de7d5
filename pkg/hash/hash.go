package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SHA256Hex returns the hex-encoded SHA256 hash of the input string.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// Key derives a fixed-length cache key from parts. Parts are joined with a
// separator that cannot appear in ids, so ("ab", "c") and ("a", "bc") differ.
func Key(parts ...string) string {
	return SHA256Hex(strings.Join(parts, "\x1f"))[:32]
}

// Short returns the first n characters of SHA256(input). Used to put stable
// but non-reversible identifiers in logs.
func Short(input string, n int) string {
	full := SHA256Hex(input)
	if n <= 0 || n > len(full) {
		return full
	}
	return full[:n]
}
