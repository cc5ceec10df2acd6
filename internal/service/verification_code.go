package service

import (
	"crypto/rand"
	"crypto/subtle"
	"math/big"
	"strings"
)

func generateVerificationCode(length int) (string, error) {
	if length <= 0 {
		length = DefaultCodeLength
	}
	var b strings.Builder
	b.Grow(length)
	ten := big.NewInt(10)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

func codesEqual(submitted, stored string) bool {
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(stored)) == 1
}
