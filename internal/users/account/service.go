// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/taibuivan/yomira-identity/internal/platform/sec"
)

// # Service Layer

// Actor identifies who triggered an operation, for the audit trail.
type Actor struct {
	UserID    string
	IPAddress string
}

// Service gates identity provider operations behind the policy validators.
//
// No provider call is made for a request that fails validation.
type Service struct {
	provider        IdentityProvider
	auditRepository AuditRepository
	rolePolicy      RolePolicy
	logger          *slog.Logger
}

// NewService constructs a new [Service] with its dependencies.
func NewService(provider IdentityProvider, auditRepo AuditRepository, rolePolicy RolePolicy, logger *slog.Logger) *Service {
	return &Service{
		provider:        provider,
		auditRepository: auditRepo,
		rolePolicy:      rolePolicy,
		logger:          logger,
	}
}

// # Token Issuance

/*
IssueToken exchanges user credentials for a token pair.

Returns:
  - *TokenInfo: The issued tokens
  - error: apperr.Unauthorized for bad credentials, provider failures otherwise
*/
func (service *Service) IssueToken(context context.Context, request TokenRequest) (*TokenInfo, error) {
	token, err := service.provider.IssueToken(context, request.Username, request.Password)
	if err != nil {
		return nil, fmt.Errorf("account_service_issue_token_failed: %w", err)
	}
	return token, nil
}

// # Registration

/*
Register validates a sign-up request and creates the user at the provider.

Returns:
  - string: The provider user ID
  - error: REQUEST_VALIDATION_ERROR on policy violations, provider failures otherwise
*/
func (service *Service) Register(context context.Context, actor Actor, request RegistrationRequest) (string, error) {
	if err := ValidateRegistration(request); err != nil {
		return "", err
	}

	userID, err := service.provider.CreateUser(context, NewUser{
		Username:  request.Username,
		Password:  request.Password,
		Email:     request.Email,
		FirstName: request.FirstName,
		LastName:  request.LastName,
		Mobile:    request.Mobile,
	})
	if err != nil {
		return "", fmt.Errorf("account_service_register_failed: %w", err)
	}

	// A fresh account acts on its own behalf.
	actor.UserID = userID
	service.audit(context, actor, ActionRegistered, userID, map[string]any{
		"username": request.Username,
	})

	service.logger.Info("user_registered", slog.String("user_id", userID))

	return userID, nil
}

// # Profile Management

// GetProfile builds the caller's profile from their verified claims. The
// display name is the family name followed by the given name.
func (service *Service) GetProfile(principal *sec.Principal) Profile {
	claims := principal.Claims
	if claims == nil {
		return Profile{UserID: principal.UserID}
	}

	return Profile{
		UserID:   principal.UserID,
		Username: claims.PreferredUsername,
		Email:    claims.Email,
		Name:     claims.FamilyName + claims.GivenName,
		Mobile:   claims.Mobile,
	}
}

/*
UpdateProfile validates and forwards a partial attribute update.

Returns:
  - error: REQUEST_VALIDATION_ERROR on policy violations, provider failures otherwise
*/
func (service *Service) UpdateProfile(context context.Context, actor Actor, request ProfileUpdateRequest) error {
	if err := ValidateProfileUpdate(request); err != nil {
		return err
	}

	fields := ProfileFields(request)
	if err := service.provider.UpdateUser(context, actor.UserID, fields); err != nil {
		return fmt.Errorf("account_service_update_profile_failed: %w", err)
	}

	service.audit(context, actor, ActionProfileUpdated, actor.UserID, changedFields(fields))

	service.logger.Info("user_profile_updated", slog.String("user_id", actor.UserID))

	return nil
}

/*
ChangePassword validates and resets the caller's password.

Returns:
  - error: REQUEST_VALIDATION_ERROR on policy violations, provider failures otherwise
*/
func (service *Service) ChangePassword(context context.Context, actor Actor, request PasswordChangeRequest) error {
	if err := ValidateChangePassword(request); err != nil {
		return err
	}

	if err := service.provider.SetPassword(context, actor.UserID, request.Password); err != nil {
		return fmt.Errorf("account_service_change_password_failed: %w", err)
	}

	service.audit(context, actor, ActionPasswordChanged, actor.UserID, nil)

	service.logger.Info("user_password_changed", slog.String("user_id", actor.UserID))

	return nil
}

// # Role Management

/*
ChangeOwnRoles replaces the "ROLE_" realm roles of the calling user.

Only roles allowed by the [RolePolicy] are accepted; nothing is sent to the
provider otherwise.

Returns:
  - error: REQUEST_VALIDATION_ERROR for an empty list, FORBIDDEN for a role
    the caller may not grant themselves
*/
func (service *Service) ChangeOwnRoles(context context.Context, actor Actor, principal *sec.Principal, request RoleChangeRequest) error {
	if err := ValidateRoleChange(request); err != nil {
		return err
	}

	if err := service.rolePolicy.CheckSelfAssignment(request.Roles, principal.Authorities); err != nil {
		service.logger.WarnContext(context, "user_role_self_grant_denied",
			slog.String("user_id", principal.UserID),
			slog.Any("roles", request.Roles),
		)
		return err
	}

	return service.ChangeRoles(context, actor, principal.UserID, request)
}

/*
ChangeRoles replaces the "ROLE_" realm roles of targetUserID.

No role policy applies here; the admin route guards it by authority.

Returns:
  - error: REQUEST_VALIDATION_ERROR for an empty list, provider failures otherwise
*/
func (service *Service) ChangeRoles(context context.Context, actor Actor, targetUserID string, request RoleChangeRequest) error {
	if err := ValidateRoleChange(request); err != nil {
		return err
	}

	if err := service.provider.SetRoles(context, targetUserID, request.Roles); err != nil {
		return fmt.Errorf("account_service_change_roles_failed: %w", err)
	}

	service.audit(context, actor, ActionRolesChanged, targetUserID, map[string]any{
		"roles": request.Roles,
	})

	service.logger.Info("user_roles_changed",
		slog.String("user_id", targetUserID),
		slog.String("actor_id", actor.UserID),
		slog.Any("roles", request.Roles),
	)

	return nil
}

// # Audit Trail

/*
AuditTrail lists the newest recorded changes about a user.

Parameters:
  - limit: Values above 100, and non-positive values, select 100
*/
func (service *Service) AuditTrail(context context.Context, subjectID string, limit int) ([]Event, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	events, err := service.auditRepository.ListBySubject(context, subjectID, limit)
	if err != nil {
		return nil, fmt.Errorf("account_service_audit_trail_failed: %w", err)
	}
	return events, nil
}

// audit records an event. The provider change has already happened, so a
// storage failure is logged and never returned.
func (service *Service) audit(context context.Context, actor Actor, action Action, subjectID string, detail map[string]any) {
	event := &Event{
		ActorID:   actor.UserID,
		Action:    action,
		SubjectID: subjectID,
		Detail:    detail,
		IPAddress: auditIP(actor.IPAddress),
	}

	if err := service.auditRepository.Record(context, event); err != nil {
		service.logger.WarnContext(context, "audit_record_failed",
			slog.String("action", string(action)),
			slog.String("subject_id", subjectID),
			slog.Any("error", err),
		)
	}
}

// auditIP keeps only a well-formed address; anything else is recorded as
// unknown rather than stored verbatim.
func auditIP(value string) string {
	ip := net.ParseIP(strings.TrimSpace(value))
	if ip == nil {
		return ""
	}
	return ip.String()
}

// changedFields lists the attribute names of a partial update.
func changedFields(fields ProfileFields) map[string]any {
	changed := make([]string, 0, 4)
	if fields.FirstName != "" {
		changed = append(changed, "firstName")
	}
	if fields.LastName != "" {
		changed = append(changed, "lastName")
	}
	if fields.Email != "" {
		changed = append(changed, "email")
	}
	if fields.Mobile != "" {
		changed = append(changed, "mobile")
	}
	return map[string]any{"fields": changed}
}
