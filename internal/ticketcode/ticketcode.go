// Package ticketcode generates human-presentable ticket codes.
package ticketcode

import (
	"crypto/rand"
	"fmt"
)

// Alphabet is the 32-symbol character set used for ticket codes. I and O
// are excluded because they read like 1 and 0 on a printed ticket.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Length is the number of symbols per code: 10 symbols from a 32-symbol
// alphabet gives 50 bits of entropy. Collisions are negligible at that
// size, and the unique index on the tickets table backstops the generator
// regardless.
const Length = 10

// Generate returns a fresh random ticket code.
func Generate() (string, error) {
	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	// len(Alphabet) is 32, which divides 256, so the modulo is unbiased.
	for i := range buf {
		buf[i] = Alphabet[int(buf[i])%len(Alphabet)]
	}
	return string(buf), nil
}
