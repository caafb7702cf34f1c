package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// TemporaryPassword returns a one-time password that satisfies the password
// policy. Users holding one are forced to change it at next login.
func TemporaryPassword(now time.Time) (string, error) {
	token, err := GenerateRandomToken(4)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("inv%s%02d%02d", token, now.Day(), int(now.Month())), nil
}

// GenerateRandomToken generates a cryptographically secure random hex token
func GenerateRandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
