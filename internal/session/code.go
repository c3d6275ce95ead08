package session

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	CodeLength   = 5
	codeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// NewCode returns a random short code of CodeLength lowercase alphanumerics.
func NewCode() (string, error) {
	var b strings.Builder
	b.Grow(CodeLength)
	limit := big.NewInt(int64(len(codeAlphabet)))
	for range CodeLength {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeCode lower-cases and trims user input.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// ValidCode reports whether code has the short-code shape.
func ValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(codeAlphabet, rune(code[i])) {
			return false
		}
	}
	return true
}
