// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account handles registration, profile maintenance, password and role
changes for users whose records live in the external identity provider.

Every mutating operation runs the credential policy validators first; only a
request that passes them is forwarded to the [IdentityProvider].

# Architecture

  - Entities: request DTOs, TokenInfo, Profile and the audit Event.
  - Domain: validator.go holds the policy validators (pure functions).
  - Delivery: http.go maps the operations onto /api/v1/user.
  - Persistence: user records belong to the provider; Postgres only keeps
    the audit trail of identity changes.
*/
package account

import (
	"context"
	"time"
)

// # Request DTOs

// RegistrationRequest is the sign-up payload.
type RegistrationRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Email           string `json:"email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Mobile          string `json:"mobile"`
}

// ProfileUpdateRequest carries the attributes a user may change on their own
// profile. Blank fields are left untouched at the provider.
type ProfileUpdateRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Mobile    string `json:"mobile"`
}

// PasswordChangeRequest replaces the caller's password.
type PasswordChangeRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// RoleChangeRequest is the ordered list of realm roles to grant. It is sent
// on the wire as a bare JSON array.
type RoleChangeRequest struct {
	Roles []string
}

// TokenRequest exchanges user credentials for a token pair.
type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// # Domain Entities

// TokenInfo is the token pair issued by the provider.
type TokenInfo struct {
	AccessToken      string `json:"accessToken"`
	ExpiresIn        int    `json:"expiresIn"`
	RefreshExpiresIn int    `json:"refreshExpiresIn"`
	RefreshToken     string `json:"refreshToken"`
	TokenType        string `json:"tokenType"`
}

// Profile is the caller's identity as read from their verified token.
type Profile struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Mobile   string `json:"mobile"`
}

// NewUser is the user representation handed to the provider on sign-up.
type NewUser struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
	Mobile    string
}

// ProfileFields is a partial attribute update. Empty values are not sent.
type ProfileFields struct {
	FirstName string
	LastName  string
	Email     string
	Mobile    string
}

// # Audit Trail

// Action names a recorded identity change.
type Action string

const (
	ActionRegistered      Action = "user.registered"
	ActionProfileUpdated  Action = "user.profile_updated"
	ActionPasswordChanged Action = "user.password_changed"
	ActionRolesChanged    Action = "user.roles_changed"
)

// Event is a single audit record. Credentials are never part of it.
type Event struct {
	ID        string
	ActorID   string
	Action    Action
	SubjectID string
	Detail    map[string]any
	IPAddress string
	CreatedAt time.Time
}

// # External Contracts

// IdentityProvider is the user store and token issuer the service fronts.
type IdentityProvider interface {
	/*
		IssueToken performs the resource owner password grant.

		Returns:
		  - *TokenInfo: Issued token pair
		  - error: apperr.Unauthorized for bad credentials, apperr.Upstream otherwise
	*/
	IssueToken(context context.Context, username, password string) (*TokenInfo, error)

	/*
		CreateUser registers a new enabled user with a non-temporary password.

		Returns:
		  - string: Provider user ID
		  - error: apperr.Conflict if the username or email is taken
	*/
	CreateUser(context context.Context, user NewUser) (string, error)

	// UpdateUser applies the non-empty attributes of fields to the user.
	UpdateUser(context context.Context, userID string, fields ProfileFields) error

	// SetPassword resets the user's password.
	SetPassword(context context.Context, userID, password string) error

	// SetRoles replaces the user's "ROLE_" realm roles with roles.
	SetRoles(context context.Context, userID string, roles []string) error
}

// AuditRepository defines the persistence contract for the audit trail.
type AuditRepository interface {
	/*
		Record stores one audit event.

		Parameters:
		  - context: context.Context
		  - event: *Event (ID and CreatedAt are assigned when empty)

		Returns:
		  - error: Storage failures
	*/
	Record(context context.Context, event *Event) error

	// ListBySubject returns the newest events about a user first.
	ListBySubject(context context.Context, subjectID string, limit int) ([]Event, error)
}
