// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package requestutil provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taibuivan/yomira-identity/internal/platform/apperr"
	"github.com/taibuivan/yomira-identity/internal/platform/ctxutil"
	"github.com/taibuivan/yomira-identity/internal/platform/sec"
	"github.com/taibuivan/yomira-identity/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Unknown fields are rejected so that a misspelled credential field fails loudly
instead of being silently treated as blank.

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	decoder := json.NewDecoder(request.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Principal extracts the authenticated caller from the request context.

Returns nil if the request is not authenticated.
*/
func Principal(request *http.Request) *sec.Principal {
	return ctxutil.GetPrincipal(request.Context())
}

/*
RequiredPrincipal ensures the request is authenticated and returns the caller.

Returns:
  - *sec.Principal: The authenticated caller
  - error: apperr.Unauthorized if the request is not authenticated
*/
func RequiredPrincipal(request *http.Request) (*sec.Principal, error) {
	principal := ctxutil.GetPrincipal(request.Context())

	if principal == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}

	return principal, nil
}

/*
RequiredUserID returns the provider user ID of the currently logged-in caller.

The token subject must be a UUID, which is how the identity provider names
its users.

Returns:
  - string: User UUID
  - error: apperr.Unauthorized if not authenticated or the subject is malformed
*/
func RequiredUserID(request *http.Request) (string, error) {
	principal, err := RequiredPrincipal(request)
	if err != nil {
		return "", err
	}

	if _, err := uuid.Parse(principal.UserID); err != nil {
		return "", apperr.Unauthorized("Token subject is not a user identifier")
	}

	return principal.UserID, nil
}

/*
PathUUID reads a URL parameter that must be a UUID.

Returns:
  - error: apperr.ValidationError naming the parameter if it is malformed
*/
func PathUUID(request *http.Request, name string) (string, error) {
	value := chi.URLParam(request, name)
	if err := (&validate.Validator{}).UUID(name, value).Err(); err != nil {
		return "", err
	}
	return value, nil
}
