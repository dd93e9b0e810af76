// Package reference generates the human-facing booking codes printed on
// confirmations and quoted on support calls.
package reference

import (
	"crypto/rand"
	"fmt"
)

// alphabet avoids 0/O, 1/I and vowels so codes are unambiguous when read
// aloud and never spell anything.
const alphabet = "2345679BCDFGHJKLMNPQRSTVWXZ"

const codeLen = 6

// New returns a code like "TD-7F3K9Q".
func New() (string, error) {
	buf := make([]byte, codeLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reference generation failed: %w", err)
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return "TD-" + string(buf), nil
}
