// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-identity/internal/platform/apperr"
	"github.com/taibuivan/yomira-identity/internal/platform/middleware"
	"github.com/taibuivan/yomira-identity/internal/platform/sec"
	"github.com/taibuivan/yomira-identity/internal/users/account"
)

// stubVerifier accepts a fixed set of bearer tokens.
type stubVerifier map[string]*sec.RealmClaims

func (verifier stubVerifier) VerifyToken(token string) (*sec.RealmClaims, error) {
	claims, ok := verifier[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return claims, nil
}

func claimsFor(subject string, roles ...string) *sec.RealmClaims {
	claims := &sec.RealmClaims{
		PreferredUsername: "hong",
		Email:             "hong@example.com",
		GivenName:         "GilDong",
		FamilyName:        "Hong",
		RealmAccess:       &sec.RoleClaim{Roles: roles},
	}
	claims.Subject = subject
	return claims
}

type envelope struct {
	Data    json.RawMessage     `json:"data"`
	Error   string              `json:"error"`
	Code    string              `json:"code"`
	Details []apperr.FieldError `json:"details"`
}

func newTestRouter() (http.Handler, *fakeProvider) {
	service, provider, _ := newTestService()
	handler := account.NewHandler(service, sec.AuthorityAdmin)

	verifier := stubVerifier{
		"user-token":  claimsFor(userID, "ROLE_USER"),
		"admin-token": claimsFor(userID, "ROLE_ADMIN", "ROLE_USER"),
		"bad-subject": claimsFor("service-account-x", "ROLE_USER"),
	}

	router := chi.NewRouter()
	router.Use(middleware.Authenticate(verifier))
	router.Mount("/api/v1/user", handler.Routes())
	router.Mount("/api/v1/admin/users", handler.AdminRoutes())

	return router, provider
}

func doRequest(t *testing.T, router http.Handler, method, target, token, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	request := httptest.NewRequest(method, target, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	var decoded envelope
	if recorder.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded))
	}
	return recorder, decoded
}

/*
TestSignUp covers field checks, policy checks and success.
*/
func TestSignUp(t *testing.T) {
	valid := `{"username":"hong","password":"Passw0rd!","confirmPassword":"Passw0rd!","email":"hong@example.com","firstName":"GilDong","lastName":"Hong","mobile":"010-1234-5678"}`

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
		wantError  string
	}{
		{
			name:       "created",
			body:       valid,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "short_password_is_a_field_error",
			body:       `{"username":"hong","password":"Pa0!","confirmPassword":"Pa0!","email":"hong@example.com","firstName":"G","lastName":"H"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   apperr.CodeValidation,
		},
		{
			name:       "bad_email_is_a_field_error",
			body:       `{"username":"hong","password":"Passw0rd!","confirmPassword":"Passw0rd!","email":"nope","firstName":"G","lastName":"H"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   apperr.CodeValidation,
		},
		{
			name:       "weak_password_is_a_policy_violation",
			body:       `{"username":"hong","password":"password1","confirmPassword":"password1","email":"hong@example.com","firstName":"G","lastName":"H"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   apperr.CodeRequestValidation,
			wantError:  account.MsgPasswordPolicy,
		},
		{
			name:       "bad_mobile_is_a_policy_violation",
			body:       `{"username":"hong","password":"Passw0rd!","confirmPassword":"Passw0rd!","email":"hong@example.com","firstName":"G","lastName":"H","mobile":"0212345678"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   apperr.CodeRequestValidation,
			wantError:  account.MsgMobileFormat,
		},
		{
			name:       "malformed_json",
			body:       `{"username":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   apperr.CodeValidation,
		},
		{
			name:       "unknown_field_is_rejected",
			body:       `{"username":"hong","password":"Passw0rd!","confirmPassword":"Passw0rd!","email":"hong@example.com","firstName":"G","lastName":"H","mobileNumber":"010-1234-5678"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   apperr.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, provider := newTestRouter()

			recorder, body := doRequest(t, router, http.MethodPost, "/api/v1/user/signup", "", tt.body)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			assert.Equal(t, tt.wantCode, body.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body.Error)
			}
			if tt.wantStatus == http.StatusCreated {
				assert.JSONEq(t, `{"userId":"7c9e6679-7425-40de-944b-e07fc1f90ae7"}`, string(body.Data))
				assert.Len(t, provider.calls, 1)
			} else {
				assert.Empty(t, provider.calls)
			}
		})
	}
}

/*
TestIssueTokenEndpoint returns the camelCase token payload.
*/
func TestIssueTokenEndpoint(t *testing.T) {
	router, _ := newTestRouter()

	recorder, body := doRequest(t, router, http.MethodPost, "/api/v1/user/token", "", `{"username":"hong","password":"Passw0rd!"}`)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"accessToken":"access","expiresIn":300,"refreshExpiresIn":0,"refreshToken":"","tokenType":"Bearer"}`, string(body.Data))

	recorder, body = doRequest(t, router, http.MethodPost, "/api/v1/user/token", "", `{"username":"hong"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, apperr.CodeValidation, body.Code)
}

/*
TestProfileEndpoints checks authentication and the claim-based profile.
*/
func TestProfileEndpoints(t *testing.T) {
	router, provider := newTestRouter()

	recorder, body := doRequest(t, router, http.MethodGet, "/api/v1/user/profile", "", "")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, apperr.CodeUnauthorized, body.Code)

	recorder, _ = doRequest(t, router, http.MethodGet, "/api/v1/user/profile", "forged", "")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder, _ = doRequest(t, router, http.MethodGet, "/api/v1/user/profile", "bad-subject", "")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder, body = doRequest(t, router, http.MethodGet, "/api/v1/user/profile", "user-token", "")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"userId":"`+userID+`","username":"hong","email":"hong@example.com","name":"HongGilDong","mobile":""}`, string(body.Data))

	recorder, _ = doRequest(t, router, http.MethodPatch, "/api/v1/user/profile", "user-token", `{"mobile":"01012345678"}`)
	assert.Equal(t, http.StatusNoContent, recorder.Code)

	recorder, body = doRequest(t, router, http.MethodPatch, "/api/v1/user/profile", "user-token", `{"mobile":"0212345678"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, apperr.CodeRequestValidation, body.Code)

	assert.Len(t, provider.calls, 1)
}

/*
TestChangePasswordEndpoint applies field then policy checks.
*/
func TestChangePasswordEndpoint(t *testing.T) {
	router, provider := newTestRouter()

	recorder, _ := doRequest(t, router, http.MethodPatch, "/api/v1/user/password", "user-token", `{"password":"N3w!pass","confirmPassword":"N3w!pass"}`)
	assert.Equal(t, http.StatusNoContent, recorder.Code)

	recorder, body := doRequest(t, router, http.MethodPatch, "/api/v1/user/password", "user-token", `{"password":"N3w!pass","confirmPassword":"N3w!pasS"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, account.MsgPasswordMismatch, body.Error)

	assert.Len(t, provider.calls, 1)
}

/*
TestRoleEndpoints covers self-service and admin role changes.
*/
func TestRoleEndpoints(t *testing.T) {
	router, provider := newTestRouter()
	target := "7c9e6679-7425-40de-944b-e07fc1f90ae7"

	recorder, body := doRequest(t, router, http.MethodPatch, "/api/v1/user/role", "user-token", `[]`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, account.MsgRolesRequired, body.Error)

	recorder, _ = doRequest(t, router, http.MethodPatch, "/api/v1/user/role", "user-token", `["ROLE_USER"]`)
	assert.Equal(t, http.StatusNoContent, recorder.Code)

	// A plain user cannot grant themselves the admin authority.
	recorder, body = doRequest(t, router, http.MethodPatch, "/api/v1/user/role", "user-token", `["ROLE_USER","ROLE_ADMIN"]`)
	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Equal(t, apperr.CodeForbidden, body.Code)
	assert.Equal(t, account.MsgRoleNotSelf+"ROLE_ADMIN", body.Error)
	require.Len(t, provider.calls, 1)

	recorder, body = doRequest(t, router, http.MethodPatch, "/api/v1/admin/users/"+target+"/role", "user-token", `["ROLE_ADMIN"]`)
	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Equal(t, apperr.CodeForbidden, body.Code)

	recorder, _ = doRequest(t, router, http.MethodPatch, "/api/v1/admin/users/"+target+"/role", "", `["ROLE_ADMIN"]`)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder, _ = doRequest(t, router, http.MethodPatch, "/api/v1/admin/users/not-a-uuid/role", "admin-token", `["ROLE_ADMIN"]`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder, _ = doRequest(t, router, http.MethodPatch, "/api/v1/admin/users/"+target+"/role", "admin-token", `["ROLE_ADMIN"]`)
	assert.Equal(t, http.StatusNoContent, recorder.Code)

	require.Len(t, provider.calls, 2)
	assert.Equal(t, userID, provider.calls[0].UserID)
	assert.Equal(t, target, provider.calls[1].UserID)

	recorder, body = doRequest(t, router, http.MethodGet, "/api/v1/admin/users/"+target+"/audit", "admin-token", "")
	assert.Equal(t, http.StatusOK, recorder.Code)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal(body.Data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "user.roles_changed", entries[0]["action"])
	assert.Equal(t, userID, entries[0]["actorId"])
}

/*
TestAuditEndpoint_Limit rejects a malformed limit and honours a valid one.
*/
func TestAuditEndpoint_Limit(t *testing.T) {
	router, _ := newTestRouter()
	target := "7c9e6679-7425-40de-944b-e07fc1f90ae7"

	for range 2 {
		recorder, _ := doRequest(t, router, http.MethodPatch, "/api/v1/admin/users/"+target+"/role", "admin-token", `["ROLE_USER"]`)
		require.Equal(t, http.StatusNoContent, recorder.Code)
	}

	for _, limit := range []string{"abc", "0", "-5"} {
		recorder, body := doRequest(t, router, http.MethodGet, "/api/v1/admin/users/"+target+"/audit?limit="+limit, "admin-token", "")
		assert.Equal(t, http.StatusBadRequest, recorder.Code, limit)
		assert.Equal(t, apperr.CodeValidation, body.Code, limit)
		require.Len(t, body.Details, 1)
		assert.Equal(t, "limit", body.Details[0].Field)
	}

	recorder, body := doRequest(t, router, http.MethodGet, "/api/v1/admin/users/"+target+"/audit?limit=1", "admin-token", "")
	assert.Equal(t, http.StatusOK, recorder.Code)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal(body.Data, &entries))
	assert.Len(t, entries, 1)
}
