package util

import (
	"crypto/rand"
	"errors"
	"math/big"
)

const (
	lowerChars = "abcdefghijklmnopqrstuvwxyz"
	upperChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars = "0123456789"
	allChars   = lowerChars + upperChars + digitChars + SpecialChars

	DefaultPasswordLength = 16
	MinPasswordLength     = 8
)

var ErrPasswordTooShort = errors.New("util: password length must be at least 8")

// GeneratePassword returns a password of the given length that always
// satisfies DefaultStrength.
func GeneratePassword(length int) (string, error) {
	if length < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	out := make([]byte, 0, length)
	for _, req := range []struct {
		set string
		n   int
	}{
		{lowerChars, DefaultStrength.MinLower},
		{upperChars, DefaultStrength.MinUpper},
		{digitChars, DefaultStrength.MinDigits},
		{SpecialChars, DefaultStrength.MinSpecial},
		{allChars, length - MinPasswordLength},
	} {
		for i := 0; i < req.n; i++ {
			c, err := pick(req.set)
			if err != nil {
				return "", err
			}
			out = append(out, c)
		}
	}
	if err := shuffle(out); err != nil {
		return "", err
	}
	return string(out), nil
}

func randIntn(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

func pick(set string) (byte, error) {
	i, err := randIntn(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func shuffle(b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		j, err := randIntn(i + 1)
		if err != nil {
			return err
		}
		b[i], b[j] = b[j], b[i]
	}
	return nil
}
