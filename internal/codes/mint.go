package codes

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
)

// Codes are 10-digit decimal numerals with no leading zero, so the
// numeric range is exactly [1000000000, 9999999999].
const (
	codeMin  = 1000000000
	codeSpan = 9000000000
)

// MintCode draws a uniformly random 10-digit code.
func MintCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", fmt.Errorf("draw random code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+codeMin), nil
}

// MintUnique mints a code not already present in the store,
// regenerating on collision a bounded number of times.
func MintUnique(ctx context.Context, store Store) (string, error) {
	const attempts = 5
	for i := 0; i < attempts; i++ {
		code, err := MintCode()
		if err != nil {
			return "", err
		}
		exists, err := store.Contains(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("no unique code after %d attempts", attempts)
}
