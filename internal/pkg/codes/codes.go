package codes

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Character sets for generated secrets.
const (
	Digits       = "0123456789"
	Alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// Random returns a random string of the given length drawn from chars.
// It uses crypto/rand; voucher numbers and PINs must not be guessable.
func Random(length int, chars string) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid code length: %d", length)
	}
	if chars == "" {
		return "", fmt.Errorf("empty character set")
	}

	max := big.NewInt(int64(len(chars)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to draw random index: %w", err)
		}
		out[i] = chars[n.Int64()]
	}
	return string(out), nil
}

// RandomDigits returns a random numeric string, e.g. a voucher number or PIN.
func RandomDigits(length int) (string, error) {
	return Random(length, Digits)
}

// TempPassword returns a random alphanumeric password for new student accounts.
func TempPassword(length int) (string, error) {
	return Random(length, Alphanumeric)
}
