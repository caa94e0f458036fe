// Copyright (c) 2026 Staffdesk. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (hashing, random tokens, signed
// verification links) from the domain logic.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// purposeVerifyEmail is the only purpose this service signs for today.
const purposeVerifyEmail = "verify_email"

// ErrInvalidToken is returned for any malformed, expired or mis-signed token.
var ErrInvalidToken = errors.New("sec: invalid token")

// VerificationClaims is the payload of an email verification token.
type VerificationClaims struct {
	jwt.RegisteredClaims

	Email   string `json:"eml"`
	Purpose string `json:"pur"`
}

// TokenService signs and verifies HS256 verification tokens.
type TokenService struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokenService creates a TokenService. secret must be at least 32 bytes.
func NewTokenService(secret, issuer string) (*TokenService, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("sec: signing secret must be at least 32 bytes, got %d", len(secret))
	}
	return &TokenService{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// GenerateVerificationToken signs a token proving control of email for userID.
func (service *TokenService) GenerateVerificationToken(userID, email string, timeToLive time.Duration) (string, error) {
	currentTime := service.now()
	claims := VerificationClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		Email:   email,
		Purpose: purposeVerifyEmail,
	}

	signedToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec_sign_token_failed: %w", err)
	}
	return signedToken, nil
}

// VerifyVerificationToken checks signature, issuer, expiry and purpose.
func (service *TokenService) VerifyVerificationToken(tokenString string) (*VerificationClaims, error) {
	claims := &VerificationClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (any, error) {
			return service.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(service.issuer),
		jwt.WithTimeFunc(service.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Purpose != purposeVerifyEmail {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
