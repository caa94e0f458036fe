// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// # Passwords

// HashPassword hashes a plain-text password using the bcrypt algorithm.
func HashPassword(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("sec_hash_password_failed: %w", err)
	}
	return string(hashedBytes), nil
}

// CheckPasswordHash compares a plain-text password with its hashed version.
func CheckPasswordHash(plainTextPassword, existingHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword))
	return err == nil
}

// decoyHash is compared against when no stored hash exists, so an unknown
// account costs the same bcrypt work as a wrong password.
var decoyHash = sync.OnceValue(func() []byte {
	secret, _ := GenerateSecureToken(32)
	hash, _ := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	return hash
})

// DecoyPasswordCheck runs one bcrypt comparison that always fails.
func DecoyPasswordCheck(plainTextPassword string) bool {
	return bcrypt.CompareHashAndPassword(decoyHash(), []byte(plainTextPassword)) == nil
}

// # Opaque Tokens

/*
GenerateSecureToken returns byteLength random bytes from crypto/rand, hex encoded.

Used for session identifiers, CSRF tokens and password reset tokens.
*/
func GenerateSecureToken(byteLength int) (string, error) {
	buffer := make([]byte, byteLength)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("sec_generate_token_failed: %w", err)
	}
	return hex.EncodeToString(buffer), nil
}

// HashToken returns the hex SHA-256 of token. Only hashes of reset tokens are stored.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// TokensEqual compares two tokens in constant time.
func TokensEqual(expected, candidate string) bool {
	if expected == "" || candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(candidate)) == 1
}
