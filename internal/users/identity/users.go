// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/taibuivan/yomira-identity/internal/platform/apperr"
	"github.com/taibuivan/yomira-identity/internal/platform/sec"
	"github.com/taibuivan/yomira-identity/internal/users/account"
)

// attributeMobile is the user attribute holding the mobile number. The realm
// maps it into the "mobile" token claim.
const attributeMobile = "mobile"

// # Admin API Representations

type credentialRepresentation struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Temporary bool   `json:"temporary"`
}

type userRepresentation struct {
	Username      string                     `json:"username"`
	Email         string                     `json:"email,omitempty"`
	FirstName     string                     `json:"firstName,omitempty"`
	LastName      string                     `json:"lastName,omitempty"`
	Enabled       bool                       `json:"enabled"`
	EmailVerified bool                       `json:"emailVerified"`
	Attributes    map[string][]string        `json:"attributes,omitempty"`
	Credentials   []credentialRepresentation `json:"credentials,omitempty"`
}

type roleRepresentation struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Composite   bool   `json:"composite"`
	ClientRole  bool   `json:"clientRole"`
	ContainerID string `json:"containerId,omitempty"`
}

// # User Lifecycle

/*
CreateUser registers an enabled user with a permanent password.

Returns:
  - string: Provider user ID, read from the Location header
  - error: apperr.Conflict for a duplicate username or email
*/
func (client *Client) CreateUser(context context.Context, user account.NewUser) (string, error) {
	representation := userRepresentation{
		Username:  user.Username,
		Email:     user.Email,
		FirstName: normalizeName(user.FirstName),
		LastName:  normalizeName(user.LastName),
		Enabled:   true,
		Credentials: []credentialRepresentation{
			{Type: "password", Value: user.Password, Temporary: false},
		},
	}
	if user.Mobile != "" {
		representation.Attributes = map[string][]string{attributeMobile: {user.Mobile}}
	}

	response, err := client.adminCall(context, http.MethodPost, client.adminURL("users"), representation, nil)
	if err != nil {
		return "", err
	}

	location := response.Header.Get("Location")
	userID := path.Base(strings.TrimRight(location, "/"))
	if location == "" || userID == "." || userID == "/" {
		return "", apperr.Upstream(fmt.Errorf("identity: create user response has no Location header"))
	}

	client.logger.InfoContext(context, "identity_user_created", slog.String("user_id", userID))

	return userID, nil
}

/*
UpdateUser applies the non-empty fields to the stored user.

The current representation is read first and written back whole, so that
attributes this service does not manage survive the update.
*/
func (client *Client) UpdateUser(context context.Context, userID string, fields account.ProfileFields) error {
	endpoint := client.adminURL("users", userID)

	var current map[string]any
	if _, err := client.adminCall(context, http.MethodGet, endpoint, nil, &current); err != nil {
		return err
	}

	if fields.FirstName != "" {
		current["firstName"] = normalizeName(fields.FirstName)
	}
	if fields.LastName != "" {
		current["lastName"] = normalizeName(fields.LastName)
	}
	if fields.Email != "" {
		current["email"] = fields.Email
	}
	if fields.Mobile != "" {
		attributes, _ := current["attributes"].(map[string]any)
		if attributes == nil {
			attributes = map[string]any{}
		}
		attributes[attributeMobile] = []string{fields.Mobile}
		current["attributes"] = attributes
	}

	_, err := client.adminCall(context, http.MethodPut, endpoint, current, nil)
	return err
}

// SetPassword resets the user's password to a permanent credential.
func (client *Client) SetPassword(context context.Context, userID, password string) error {
	credential := credentialRepresentation{Type: "password", Value: password, Temporary: false}

	_, err := client.adminCall(context, http.MethodPut, client.adminURL("users", userID, "reset-password"), credential, nil)
	return err
}

// # Realm Roles

/*
SetRoles makes roles the user's complete set of "ROLE_" realm roles.

Mapped "ROLE_" roles missing from roles are removed; requested roles not yet
mapped are added. Roles without the prefix (e.g. "offline_access") are never
removed. Every requested role must already exist in the realm.

Returns:
  - error: apperr.NotFound when the user or a role does not exist
*/
func (client *Client) SetRoles(context context.Context, userID string, roles []string) error {
	mappingsURL := client.adminURL("users", userID, "role-mappings", "realm")

	var current []roleRepresentation
	if _, err := client.adminCall(context, http.MethodGet, mappingsURL, nil, &current); err != nil {
		return err
	}

	requested := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		requested[role] = struct{}{}
	}

	mapped := make(map[string]struct{}, len(current))
	stale := make([]roleRepresentation, 0)
	for _, role := range current {
		mapped[role.Name] = struct{}{}
		if _, keep := requested[role.Name]; !keep && strings.HasPrefix(role.Name, sec.AuthorityPrefix) {
			stale = append(stale, role)
		}
	}

	// Resolve additions first so an unknown role leaves the mappings untouched.
	additions := make([]roleRepresentation, 0, len(roles))
	seen := make(map[string]struct{}, len(roles))
	for _, name := range roles {
		if _, done := seen[name]; done {
			continue
		}
		seen[name] = struct{}{}
		if _, already := mapped[name]; already {
			continue
		}

		var role roleRepresentation
		if _, err := client.adminCall(context, http.MethodGet, client.adminURL("roles", name), nil, &role); err != nil {
			if apperr.HasCode(err, apperr.CodeNotFound) {
				return apperr.NotFound("Role " + name)
			}
			return err
		}
		additions = append(additions, role)
	}

	if len(stale) > 0 {
		if _, err := client.adminCall(context, http.MethodDelete, mappingsURL, stale, nil); err != nil {
			return err
		}
	}

	if len(additions) > 0 {
		if _, err := client.adminCall(context, http.MethodPost, mappingsURL, additions, nil); err != nil {
			return err
		}
	}

	client.logger.InfoContext(context, "identity_roles_synced",
		slog.String("user_id", userID),
		slog.Int("added", len(additions)),
		slog.Int("removed", len(stale)),
	)

	return nil
}

// normalizeName stores names in NFC so composed and decomposed input match.
func normalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
