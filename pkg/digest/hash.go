package digest

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"
)

// Seed is the fixed XXH3 seed for every digest computed by this build.
const Seed uint64 = 12345678

// Size is the length in bytes of a raw digest.
const Size = 16

// MaxEncodedLen is the output cap handed to Encode by Hash.
const MaxEncodedLen = 2 * Size

// Sum returns the raw 128-bit digest of s.
// The low 64 bits come first; both halves are little-endian.
func Sum(s string) [Size]byte {
	h := xxh3.HashString128Seed(s, Seed)

	var out [Size]byte
	binary.LittleEndian.PutUint64(out[:8], h.Lo)
	binary.LittleEndian.PutUint64(out[8:], h.Hi)
	return out
}

// Hash returns the encoded digest of s. The result is always EncodedLen(Size)
// characters long, including for the empty string.
func Hash(s string) string {
	sum := Sum(s)
	return Encode(sum[:], MaxEncodedLen)
}
