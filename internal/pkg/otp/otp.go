package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const codeSpace = 1000000

// NewCode generates a uniformly random 6-digit one-time code,
// zero-padded to fixed width ("000000".."999999").
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
