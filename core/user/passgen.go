package user

import (
	"crypto/rand"
	"math/big"
)

const (
	pwdUpper   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	pwdLower   = "abcdefghijkmnpqrstuvwxyz"
	pwdDigits  = "23456789"
	pwdSymbols = "!@#$%^&*()-_=+[]{}<>?"

	MinGeneratedPasswordLen = 16
)

// GeneratePassword returns a random password of at least
// MinGeneratedPasswordLen characters containing at least one uppercase
// character, one lowercase character, one digit and one symbol.
// The ambiguous characters 0/O/1/l/I are excluded from the charsets.
func GeneratePassword(length int) (string, error) {
	if length < MinGeneratedPasswordLen {
		length = MinGeneratedPasswordLen
	}

	groups := []string{pwdUpper, pwdLower, pwdDigits, pwdSymbols}
	all := pwdUpper + pwdLower + pwdDigits + pwdSymbols

	pwd := make([]byte, 0, length)

	// one char from each group, rest from the full charset
	for _, group := range groups {
		char, err := randChar(group)
		if err != nil {
			return "", err
		}
		pwd = append(pwd, char)
	}
	for len(pwd) < length {
		char, err := randChar(all)
		if err != nil {
			return "", err
		}
		pwd = append(pwd, char)
	}

	if err := shuffle(pwd); err != nil {
		return "", err
	}
	return string(pwd), nil
}

func randChar(charset string) (byte, error) {
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
	if err != nil {
		return 0, err
	}
	return charset[idx.Int64()], nil
}

// shuffle is a Fisher-Yates shuffle backed by crypto/rand.
func shuffle(b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		jBig, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return err
		}
		j := jBig.Int64()
		b[i], b[j] = b[j], b[i]
	}
	return nil
}
