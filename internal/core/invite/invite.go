package invite

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

const (
	alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

	// CodeLength base-36 characters give ~62 bits of entropy.
	CodeLength = 12

	maxDraws = 5
)

var ErrExhausted = errors.New("invite: no unused code after retries")

// Generate returns a random lowercase base-36 code.
func Generate() (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, CodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("invite: read random: %w", err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}

// GenerateUnique draws codes until taken reports one as unused.
func GenerateUnique(ctx context.Context, taken func(ctx context.Context, code string) (bool, error)) (string, error) {
	for i := 0; i < maxDraws; i++ {
		code, err := Generate()
		if err != nil {
			return "", err
		}
		used, err := taken(ctx, code)
		if err != nil {
			return "", fmt.Errorf("invite: check code: %w", err)
		}
		if !used {
			return code, nil
		}
	}
	return "", ErrExhausted
}
