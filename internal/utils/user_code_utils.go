package utils

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// Alphabet without vowels and easily confused letters, so generated codes
// never spell words and survive being read over the phone.
const userCodeAlphabet = "BCDFGHJKLMNPQRSTVWXZ"

var userCodeRegex = regexp.MustCompile(`^[A-Z]{4}-[A-Z]{4}$`)

var ErrInvalidUserCode = errors.New("invalid user code format")

// GenerateUserCode returns a code in the XXXX-XXXX format.
func GenerateUserCode() (string, error) {
	chars := make([]byte, 8)
	max := big.NewInt(int64(len(userCodeAlphabet)))

	for i := range chars {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		chars[i] = userCodeAlphabet[n.Int64()]
	}

	return fmt.Sprintf("%s-%s", chars[:4], chars[4:]), nil
}

// NormalizeUserCode uppercases a user-typed code and rejects anything that
// does not match the XXXX-XXXX format before it reaches a store lookup.
func NormalizeUserCode(code string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))

	if !userCodeRegex.MatchString(normalized) {
		return "", ErrInvalidUserCode
	}

	return normalized, nil
}
