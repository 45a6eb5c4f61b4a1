package user

import (
	"crypto/rand"
	"math/big"
)

const (
	accessCodeChars     = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	accessCodeMinLength = 6
	accessCodeMaxLength = 8
)

// generateAccessCode returns a random 6-8 character alphanumeric code.
// Uniqueness is not checked here; the caller retries on conflict.
func generateAccessCode() (string, error) {
	span, err := rand.Int(rand.Reader, big.NewInt(int64(accessCodeMaxLength-accessCodeMinLength+1)))
	if err != nil {
		return "", err
	}
	length := accessCodeMinLength + int(span.Int64())

	code := make([]byte, length)
	max := big.NewInt(int64(len(accessCodeChars)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = accessCodeChars[n.Int64()]
	}
	return string(code), nil
}
