// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-identity/internal/platform/sec"
)

// decodeClaims builds RealmClaims the same way the JWT parser does.
func decodeClaims(t *testing.T, payload string) *sec.RealmClaims {
	t.Helper()

	claims := &sec.RealmClaims{}
	require.NoError(t, json.Unmarshal([]byte(payload), claims))
	return claims
}

/*
TestExtractAuthorities covers filtering, ordering, and malformed claim shapes.
*/
func TestExtractAuthorities(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []sec.Authority
	}{
		{
			name:    "filters_and_keeps_order",
			payload: `{"sub":"u1","realm_access":{"roles":["ROLE_ADMIN","GUEST","ROLE_USER"]}}`,
			want:    []sec.Authority{"ROLE_ADMIN", "ROLE_USER"},
		},
		{
			name:    "keeps_duplicates",
			payload: `{"sub":"u1","realm_access":{"roles":["ROLE_USER","ROLE_USER"]}}`,
			want:    []sec.Authority{"ROLE_USER", "ROLE_USER"},
		},
		{
			name:    "prefix_is_case_sensitive",
			payload: `{"sub":"u1","realm_access":{"roles":["role_admin","Role_User","ROLE_"]}}`,
			want:    []sec.Authority{"ROLE_"},
		},
		{
			name:    "non_string_elements_are_coerced",
			payload: `{"sub":"u1","realm_access":{"roles":[1,true,null,"ROLE_USER"]}}`,
			want:    []sec.Authority{"ROLE_USER"},
		},
		{
			name:    "missing_realm_access",
			payload: `{"sub":"u1"}`,
			want:    []sec.Authority{},
		},
		{
			name:    "null_realm_access",
			payload: `{"sub":"u1","realm_access":null}`,
			want:    []sec.Authority{},
		},
		{
			name:    "realm_access_not_an_object",
			payload: `{"sub":"u1","realm_access":"ROLE_ADMIN"}`,
			want:    []sec.Authority{},
		},
		{
			name:    "roles_missing",
			payload: `{"sub":"u1","realm_access":{}}`,
			want:    []sec.Authority{},
		},
		{
			name:    "roles_not_a_sequence",
			payload: `{"sub":"u1","realm_access":{"roles":"ROLE_ADMIN"}}`,
			want:    []sec.Authority{},
		},
		{
			name:    "roles_object",
			payload: `{"sub":"u1","realm_access":{"roles":{"ROLE_ADMIN":true}}}`,
			want:    []sec.Authority{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := decodeClaims(t, tt.payload)

			got := sec.ExtractAuthorities(claims)

			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

/*
TestExtractAuthorities_NilClaims ensures a missing claim set degrades to no authority.
*/
func TestExtractAuthorities_NilClaims(t *testing.T) {
	assert.Empty(t, sec.ExtractAuthorities(nil))
	assert.Empty(t, sec.ExtractAuthorities(&sec.RealmClaims{}))
}

/*
TestPrincipal_HasAuthority checks authority lookups on the derived principal.
*/
func TestPrincipal_HasAuthority(t *testing.T) {
	claims := decodeClaims(t, `{"sub":"b3a1c6f0-1111-4c3b-9d6e-3b1a2b3c4d5e","realm_access":{"roles":["ROLE_ADMIN","offline_access"]}}`)

	principal := sec.NewPrincipal(claims)

	assert.Equal(t, "b3a1c6f0-1111-4c3b-9d6e-3b1a2b3c4d5e", principal.UserID)
	assert.True(t, principal.HasAuthority(sec.AuthorityAdmin))
	assert.False(t, principal.HasAuthority(sec.AuthorityUser))
	assert.False(t, principal.HasAuthority("offline_access"))
	assert.Equal(t, []string{"ROLE_ADMIN"}, principal.AuthorityStrings())

	var anonymous *sec.Principal
	assert.False(t, anonymous.HasAuthority(sec.AuthorityAdmin))
}
