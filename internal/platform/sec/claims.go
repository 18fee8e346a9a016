// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"encoding/json"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// RealmClaims is the verified claim set of an access token issued by the
// identity provider.
//
// Optional claims that are missing decode to their zero value. RealmAccess is
// nil when the "realm_access" claim is absent or null; any other shape that is
// not an object decodes to a RoleClaim without roles.
type RealmClaims struct {
	jwt.RegisteredClaims

	PreferredUsername string `json:"preferred_username,omitempty"`
	Email             string `json:"email,omitempty"`
	GivenName         string `json:"given_name,omitempty"`
	FamilyName        string `json:"family_name,omitempty"`
	Mobile            string `json:"mobile,omitempty"`

	RealmAccess *RoleClaim `json:"realm_access,omitempty"`
}

// RoleClaim is the "realm_access" claim.
//
// Roles is nil when the "roles" entry is absent or not an array. Array
// elements that are not strings are kept in their textual form.
type RoleClaim struct {
	Roles []string `json:"roles,omitempty"`
}

// UnmarshalJSON decodes the claim leniently: a malformed shape never fails
// the token, it only yields no roles.
func (claim *RoleClaim) UnmarshalJSON(data []byte) error {
	claim.Roles = nil

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}

	rawRoles, ok := fields["roles"]
	if !ok {
		return nil
	}

	var elements []any
	if err := json.Unmarshal(rawRoles, &elements); err != nil || elements == nil {
		return nil
	}

	roles := make([]string, 0, len(elements))
	for _, element := range elements {
		roles = append(roles, claimText(element))
	}
	claim.Roles = roles

	return nil
}

// claimText renders a decoded JSON value as text.
func claimText(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case nil:
		return "null"
	case map[string]any, []any:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprint(typed)
		}
		return string(encoded)
	default:
		return fmt.Sprint(typed)
	}
}
