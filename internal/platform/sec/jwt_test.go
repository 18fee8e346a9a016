// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-identity/internal/platform/sec"
)

const testIssuer = "http://keycloak.test/realms/bangbang"

func generateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.Claims) string {
	t.Helper()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func validClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"sub":                "b3a1c6f0-1111-4c3b-9d6e-3b1a2b3c4d5e",
		"iss":                testIssuer,
		"iat":                now.Unix(),
		"exp":                now.Add(5 * time.Minute).Unix(),
		"preferred_username": "testuser",
		"email":              "test@example.com",
		"given_name":         "GilDong",
		"family_name":        "Hong",
		"mobile":             "01012345678",
		"realm_access": map[string]any{
			"roles": []any{"ROLE_ADMIN", "GUEST", "ROLE_USER"},
		},
	}
}

/*
TestVerifyToken_Valid decodes the typed claim set of a well-formed token.
*/
func TestVerifyToken_Valid(t *testing.T) {
	key := generateKey(t)
	verifier := sec.NewTokenVerifierWithKey(&key.PublicKey, testIssuer)

	claims, err := verifier.VerifyToken(signToken(t, key, validClaims()))

	require.NoError(t, err)
	assert.Equal(t, "b3a1c6f0-1111-4c3b-9d6e-3b1a2b3c4d5e", claims.Subject)
	assert.Equal(t, "testuser", claims.PreferredUsername)
	assert.Equal(t, "Hong", claims.FamilyName)
	require.NotNil(t, claims.RealmAccess)
	assert.Equal(t, []sec.Authority{"ROLE_ADMIN", "ROLE_USER"}, sec.ExtractAuthorities(claims))
}

/*
TestVerifyToken_MalformedRoles accepts the token but grants no authority.
*/
func TestVerifyToken_MalformedRoles(t *testing.T) {
	key := generateKey(t)
	verifier := sec.NewTokenVerifierWithKey(&key.PublicKey, testIssuer)

	payload := validClaims()
	payload["realm_access"] = map[string]any{"roles": "ROLE_ADMIN"}

	claims, err := verifier.VerifyToken(signToken(t, key, payload))

	require.NoError(t, err)
	assert.Empty(t, sec.ExtractAuthorities(claims))
}

/*
TestVerifyToken_Rejects covers signature, expiry, issuer, and subject failures.
*/
func TestVerifyToken_Rejects(t *testing.T) {
	key := generateKey(t)
	otherKey := generateKey(t)
	verifier := sec.NewTokenVerifierWithKey(&key.PublicKey, testIssuer)

	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	wrongIssuer := validClaims()
	wrongIssuer["iss"] = "http://evil.test"

	noSubject := validClaims()
	delete(noSubject, "sub")

	noExpiry := validClaims()
	delete(noExpiry, "exp")

	hmacToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"wrong_key", signToken(t, otherKey, validClaims())},
		{"expired", signToken(t, key, expired)},
		{"wrong_issuer", signToken(t, key, wrongIssuer)},
		{"no_subject", signToken(t, key, noSubject)},
		{"no_expiry", signToken(t, key, noExpiry)},
		{"hmac_signed", hmacToken},
		{"garbage", "not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := verifier.VerifyToken(tt.token)

			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

/*
TestNewTokenVerifier_FromFile loads the realm public key from PEM.
*/
func TestNewTokenVerifier_FromFile(t *testing.T) {
	key := generateKey(t)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "realm.pub")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0o600))

	verifier, err := sec.NewTokenVerifier(path, "")
	require.NoError(t, err)

	// Issuer check is disabled for an empty issuer.
	payload := validClaims()
	payload["iss"] = "http://anything.test"

	claims, err := verifier.VerifyToken(signToken(t, key, payload))
	require.NoError(t, err)
	assert.Equal(t, "testuser", claims.PreferredUsername)

	_, err = sec.NewTokenVerifier(filepath.Join(t.TempDir(), "missing.pub"), "")
	assert.Error(t, err)
}
