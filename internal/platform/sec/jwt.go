// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec verifies identity provider tokens and maps their claims into
// the service's authority model.
//
// # Architecture
//
// Tokens are issued by the external identity provider; this package only
// verifies them (RS256 against the realm public key) and derives the caller's
// [Principal]. It is injected into the HTTP middleware via the
// [middleware.TokenVerifier] interface.
package sec

import (
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// clockSkew tolerates small clock drift between the provider and this service.
const clockSkew = 30 * time.Second

// TokenVerifier checks the signature and validity of provider-issued access tokens.
type TokenVerifier struct {
	publicKey *rsa.PublicKey
	issuer    string
}

// NewTokenVerifier creates a new TokenVerifier.
// It reads the realm's RSA public key from the provided filesystem path.
// An empty issuer disables the "iss" check.
func NewTokenVerifier(publicKeyPath, issuer string) (*TokenVerifier, error) {
	publicKeyData, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to read public key from %s: %w", publicKeyPath, err)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyData)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to parse public key: %w", err)
	}

	return NewTokenVerifierWithKey(publicKey, issuer), nil
}

// NewTokenVerifierWithKey creates a TokenVerifier from an already parsed key.
func NewTokenVerifierWithKey(publicKey *rsa.PublicKey, issuer string) *TokenVerifier {
	return &TokenVerifier{
		publicKey: publicKey,
		issuer:    issuer,
	}
}

// VerifyToken checks the signature and validity of a JWT string and returns
// its typed claims.
func (verifier *TokenVerifier) VerifyToken(tokenString string) (*RealmClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	}
	if verifier.issuer != "" {
		options = append(options, jwt.WithIssuer(verifier.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &RealmClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return verifier.publicKey, nil
	}, options...)

	if err != nil {
		return nil, fmt.Errorf("sec: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*RealmClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("sec: invalid token claims")
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("sec: token has no subject")
	}

	return claims, nil
}
