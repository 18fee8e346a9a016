// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "strings"

// # Authorities

// AuthorityPrefix marks a realm role as a granted authority. Roles without it
// are provider-internal (e.g. "offline_access") and never reach authorization.
const AuthorityPrefix = "ROLE_"

// Authority represents a single capability granted to the caller.
type Authority string

const (
	// AuthorityAdmin grants access to user administration endpoints.
	AuthorityAdmin Authority = "ROLE_ADMIN"

	// AuthorityUser is the default authority of a registered account.
	AuthorityUser Authority = "ROLE_USER"
)

// ExtractAuthorities converts the realm roles of a verified token into
// authorities.
//
// Only roles starting with [AuthorityPrefix] are kept. Order and duplicates
// are preserved. Missing or malformed claims produce an empty slice; this
// function never fails.
func ExtractAuthorities(claims *RealmClaims) []Authority {
	authorities := []Authority{}
	if claims == nil || claims.RealmAccess == nil {
		return authorities
	}

	for _, role := range claims.RealmAccess.Roles {
		if strings.HasPrefix(role, AuthorityPrefix) {
			authorities = append(authorities, Authority(role))
		}
	}

	return authorities
}

// # Principal

// Principal is the authenticated caller of a request.
type Principal struct {
	// UserID is the token subject, the provider's user identifier.
	UserID string

	// Claims is the verified claim set.
	Claims *RealmClaims

	// Authorities is the result of [ExtractAuthorities] for Claims.
	Authorities []Authority
}

// NewPrincipal builds a [Principal] from verified claims.
func NewPrincipal(claims *RealmClaims) *Principal {
	return &Principal{
		UserID:      claims.Subject,
		Claims:      claims,
		Authorities: ExtractAuthorities(claims),
	}
}

// HasAuthority reports whether the principal was granted the authority.
func (principal *Principal) HasAuthority(target Authority) bool {
	if principal == nil {
		return false
	}
	for _, authority := range principal.Authorities {
		if authority == target {
			return true
		}
	}
	return false
}

// AuthorityStrings returns the authorities as plain strings, for logging.
func (principal *Principal) AuthorityStrings() []string {
	values := make([]string, 0, len(principal.Authorities))
	for _, authority := range principal.Authorities {
		values = append(values, string(authority))
	}
	return values
}
