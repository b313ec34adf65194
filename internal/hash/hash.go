// Package hash computes structural fingerprints used to intern types
// (internal/types) and to hash interned names (internal/symbol). It plays the same role as the
// teacher's gql/hash package, but uses murmur3 instead of a fixed-size
// SHA512-shaped value, since nothing here crosses process or machine
// boundaries and needs a cryptographic-strength digest.
package hash

import "github.com/spaolacci/murmur3"

// Hash is a 128-bit structural fingerprint.
type Hash struct {
	Lo, Hi uint64
}

// Empty is the zero hash, the identity element for Add. Merge is not
// neutral on Empty: h.Merge(Empty) still mixes and differs from h.
var Empty = Hash{}

// Merge combines h with other, order-sensitively. Used to fold a sequence of
// child hashes (e.g. a struct's field types in declaration order) into one.
func (h Hash) Merge(other Hash) Hash {
	lo, hi := mix(h.Lo, h.Hi, other.Lo)
	lo, hi = mix(lo, hi, other.Hi)
	return Hash{lo, hi}
}

// Add combines h with other, order-insensitively (commutative). Used where
// child order does not affect identity, such as a union's member set.
func (h Hash) Add(other Hash) Hash {
	return Hash{h.Lo + other.Lo, h.Hi ^ other.Hi}
}

func mix(lo, hi, v uint64) (uint64, uint64) {
	lo = lo*1099511628211 + v
	hi ^= lo
	hi = hi*6364136223846793005 + 1
	return lo, hi
}

// String hashes a string.
func String(s string) Hash {
	lo, hi := murmur3.Sum128([]byte(s))
	return Hash{lo, hi}
}

// Bytes hashes a byte slice.
func Bytes(b []byte) Hash {
	lo, hi := murmur3.Sum128(b)
	return Hash{lo, hi}
}

// Int hashes an int64, useful for mixing small integers (array bounds,
// enum values) into a structural hash without a string allocation.
func Int(v int64) Hash {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * uint(i)))
	}
	return Bytes(buf[:])
}
