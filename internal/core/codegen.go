package core

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// codeAlphabet is the character set for visitor codes. 0, O and I are left
// out so a guard typing a code read over a car window can't mistake them.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ123456789"

// generateCode produces a random visitor code of the given length. Uniqueness
// is not guaranteed here; the caller reserves the text in the code index and
// retries on collision.
func generateCode(length int) (string, error) {
	out := make([]byte, length)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate access code: %w", err)
		}
		out[i] = codeAlphabet[n.Int64()]
	}
	return string(out), nil
}

// generateToken produces a 64-character hex token for device approval links.
// 32 random bytes is far beyond guessable for a 30-minute window.
func generateToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate approval token: %w", err)
	}
	return hex.EncodeToString(raw), nil
}
