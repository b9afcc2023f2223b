package utils

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	codeDigits  = "0123456789"
	codeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// RandomCode returns a registration code of three digits followed by one
// uppercase letter, e.g. "042K".
func RandomCode() (string, error) {
	out := make([]byte, 0, 4)
	for i := 0; i < 3; i++ {
		c, err := pick(codeDigits)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	c, err := pick(codeLetters)
	if err != nil {
		return "", err
	}
	return string(append(out, c)), nil
}

// NormalizeCode trims and upper-cases user supplied codes.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func pick(alphabet string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, err
	}
	return alphabet[n.Int64()], nil
}
