package joincode

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// Alphabet excludes visually confusable characters (0/O, 1/I/L, 5/S, 8/B)
// so codes survive being read aloud or typed from another screen.
const Alphabet = "ACDEFGHJKMNPQRTUVWXYZ234679"

// Length of every generated join code.
const Length = 6

// Generate returns a random join code. Uniqueness among live rooms is the
// caller's responsibility (regenerate on collision).
func Generate() string {
	var b strings.Builder
	b.Grow(Length)
	max := big.NewInt(int64(len(Alphabet)))
	for i := 0; i < Length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken
			panic(err)
		}
		b.WriteByte(Alphabet[n.Int64()])
	}
	return b.String()
}

// Normalize upper-cases a user-typed code so lookups are case-insensitive.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Valid reports whether a normalized code has the right shape.
func Valid(code string) bool {
	if len(code) != Length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(Alphabet, rune(code[i])) {
			return false
		}
	}
	return true
}
