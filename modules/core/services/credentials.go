package services

import (
	"crypto/rand"
	"math/big"

	"github.com/go-faster/errors"
	"golang.org/x/crypto/bcrypt"
)

const (
	tempPasswordLength   = 12
	tempPasswordAlphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// generateTempPassword produces the one-time credential issued when a user
// insert request is approved. The alphabet omits look-alike characters.
func generateTempPassword() (plaintext, hash string, err error) {
	buf := make([]byte, tempPasswordLength)
	max := big.NewInt(int64(len(tempPasswordAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", "", errors.Wrap(err, "failed to generate password")
		}
		buf[i] = tempPasswordAlphabet[n.Int64()]
	}

	hashed, err := bcrypt.GenerateFromPassword(buf, bcrypt.DefaultCost)
	if err != nil {
		return "", "", errors.Wrap(err, "failed to hash password")
	}
	return string(buf), string(hashed), nil
}
