// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"slices"
	"strings"

	"github.com/taibuivan/yomira-identity/internal/platform/apperr"
	"github.com/taibuivan/yomira-identity/internal/platform/sec"
	"github.com/taibuivan/yomira-identity/internal/platform/validate"
)

// # Policy Messages

const (
	MsgPasswordPolicy   = "password must contain upper/lowercase letters, digits, and special characters, minimum 8 characters."
	MsgPasswordMismatch = "password and confirmation do not match."
	MsgMobileFormat     = "mobile number is not in a valid format."
	MsgRolesRequired    = "roles to change must be provided."
	MsgRoleBlank        = "role names must not be blank."
	MsgRoleNotSelf      = "role can only be granted by an administrator: "
)

// # Policy Validators
//
// Each validator checks its rules in order and returns the first violation
// as a REQUEST_VALIDATION_ERROR. None of them modify the request.

// ValidateRegistration checks password complexity, the confirmation match
// and, when present, the mobile number shape.
func ValidateRegistration(request RegistrationRequest) error {
	if err := checkPassword(request.Password, request.ConfirmPassword); err != nil {
		return err
	}
	return checkMobile(request.Mobile)
}

// ValidateProfileUpdate checks the mobile number shape when one is given.
func ValidateProfileUpdate(request ProfileUpdateRequest) error {
	return checkMobile(request.Mobile)
}

// ValidateChangePassword applies the registration password rules.
func ValidateChangePassword(request PasswordChangeRequest) error {
	return checkPassword(request.Password, request.ConfirmPassword)
}

// ValidateRoleChange requires at least one role and no blank role names.
func ValidateRoleChange(request RoleChangeRequest) error {
	if len(request.Roles) == 0 {
		return apperr.RequestValidation(MsgRolesRequired)
	}
	for _, role := range request.Roles {
		if strings.TrimSpace(role) == "" {
			return apperr.RequestValidation(MsgRoleBlank)
		}
	}
	return nil
}

// # Role Policy

// RolePolicy decides which roles a caller may put on their own account.
//
// A caller may keep any role they already hold and may add roles listed in
// SelfAssignable. The admin authority is never self-assignable; it can only
// be granted through the administration routes.
type RolePolicy struct {
	AdminAuthority sec.Authority
	SelfAssignable []sec.Authority
}

// CheckSelfAssignment returns apperr.Forbidden naming the first requested role
// the caller may not grant themselves.
func (policy RolePolicy) CheckSelfAssignment(roles []string, held []sec.Authority) error {
	for _, role := range roles {
		authority := sec.Authority(role)
		if slices.Contains(held, authority) {
			continue
		}
		if authority != policy.AdminAuthority && slices.Contains(policy.SelfAssignable, authority) {
			continue
		}
		return apperr.Forbidden(MsgRoleNotSelf + role)
	}
	return nil
}

func checkPassword(password, confirmation string) error {
	complex := validate.HasRequiredCaseVariety(password, false) &&
		validate.HasDigit(password) &&
		validate.HasSpecialChar(password)
	if !complex {
		return apperr.RequestValidation(MsgPasswordPolicy)
	}

	if password != confirmation {
		return apperr.RequestValidation(MsgPasswordMismatch)
	}

	return nil
}

// checkMobile accepts a blank number; the field is optional.
func checkMobile(mobile string) error {
	if strings.TrimSpace(mobile) == "" {
		return nil
	}
	if !validate.IsValidMobileShape(mobile) {
		return apperr.RequestValidation(MsgMobileFormat)
	}
	return nil
}
