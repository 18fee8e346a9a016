// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-identity/internal/platform/middleware"
	requestutil "github.com/taibuivan/yomira-identity/internal/platform/request"
	"github.com/taibuivan/yomira-identity/internal/platform/respond"
	"github.com/taibuivan/yomira-identity/internal/platform/sec"
	"github.com/taibuivan/yomira-identity/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements the HTTP layer for user identity management.
//
// Field rules (required values, lengths, email format) run here; the policy
// validators run inside [Service].
type Handler struct {
	accountService *Service
	adminAuthority sec.Authority
}

// NewHandler constructs a new account [Handler]. adminAuthority guards the
// administration routes.
func NewHandler(service *Service, adminAuthority sec.Authority) *Handler {
	return &Handler{accountService: service, adminAuthority: adminAuthority}
}

// Routes returns the self-service routes, mounted at /api/v1/user.
//
// # Endpoints
//   - POST  /token    : Issues a token pair.
//   - POST  /signup   : Registers a new user.
//   - GET   /profile  : Reads the caller's profile.
//   - PATCH /profile  : Updates the caller's profile.
//   - PATCH /password : Changes the caller's password.
//   - PATCH /role     : Replaces the caller's roles.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/token", handler.issueToken)
	router.Post("/signup", handler.signUp)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/profile", handler.getProfile)
		r.Patch("/profile", handler.updateProfile)
		r.Patch("/password", handler.changePassword)
		r.Patch("/role", handler.changeOwnRoles)
	})

	return router
}

// AdminRoutes returns the user administration routes, mounted at
// /api/v1/admin/users.
func (handler *Handler) AdminRoutes() chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequireAuthority(handler.adminAuthority))
	router.Patch("/{id}/role", handler.assignRoles)
	router.Get("/{id}/audit", handler.listAudit)

	return router
}

// # Token Endpoints

/*
POST /api/v1/user/token.

Response:
  - 200: TokenInfo
  - 400: VALIDATION_ERROR: Missing username or password
  - 401: UNAUTHORIZED: Invalid login credentials
*/
func (handler *Handler) issueToken(writer http.ResponseWriter, request *http.Request) {
	var input TokenRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required("username", input.Username).Required("password", input.Password)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	token, err := handler.accountService.IssueToken(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, token)
}

// # Registration Endpoints

/*
POST /api/v1/user/signup.

Response:
  - 201: {"userId": "..."}
  - 400: VALIDATION_ERROR / REQUEST_VALIDATION_ERROR
  - 409: CONFLICT: Username or email already exists
*/
func (handler *Handler) signUp(writer http.ResponseWriter, request *http.Request) {
	var input RegistrationRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required("username", input.Username).MinLen("username", input.Username, 3).MaxLen("username", input.Username, 255)
	v.Required("password", input.Password).MinLen("password", input.Password, 8)
	v.Required("confirmPassword", input.ConfirmPassword)
	v.Required("email", input.Email).Email("email", input.Email)
	v.Required("firstName", input.FirstName).Required("lastName", input.LastName)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	userID, err := handler.accountService.Register(request.Context(), actorOf(request, ""), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, map[string]string{"userId": userID})
}

// # Profile Endpoints

/*
GET /api/v1/user/profile.

Response:
  - 200: Profile built from the caller's token
  - 401: UNAUTHORIZED
*/
func (handler *Handler) getProfile(writer http.ResponseWriter, request *http.Request) {
	// The subject must parse as a user ID before it is echoed back.
	if _, err := requestutil.RequiredUserID(request); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, handler.accountService.GetProfile(requestutil.Principal(request)))
}

/*
PATCH /api/v1/user/profile.

Response:
  - 204: Updated
  - 400: VALIDATION_ERROR / REQUEST_VALIDATION_ERROR
  - 401: UNAUTHORIZED
*/
func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input ProfileUpdateRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.OptionalEmail("email", input.Email)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.UpdateProfile(request.Context(), actorOf(request, userID), input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
PATCH /api/v1/user/password.

Response:
  - 204: Changed
  - 400: VALIDATION_ERROR / REQUEST_VALIDATION_ERROR
  - 401: UNAUTHORIZED
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input PasswordChangeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required("password", input.Password).MinLen("password", input.Password, 8)
	v.Required("confirmPassword", input.ConfirmPassword)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.ChangePassword(request.Context(), actorOf(request, userID), input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Role Endpoints

/*
PATCH /api/v1/user/role.

Request:
  - body: JSON array of role names

Response:
  - 204: Replaced
  - 400: REQUEST_VALIDATION_ERROR: Empty role list
  - 401: UNAUTHORIZED
  - 403: FORBIDDEN: Role not held and not self-assignable
*/
func (handler *Handler) changeOwnRoles(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var roles []string
	if err := requestutil.DecodeJSON(request, &roles); err != nil {
		respond.Error(writer, request, err)
		return
	}

	principal := requestutil.Principal(request)
	err = handler.accountService.ChangeOwnRoles(request.Context(), actorOf(request, userID), principal, RoleChangeRequest{Roles: roles})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
PATCH /api/v1/admin/users/{id}/role.

Response:
  - 204: Replaced
  - 400: VALIDATION_ERROR / REQUEST_VALIDATION_ERROR
  - 403: FORBIDDEN: Caller lacks the admin authority
*/
func (handler *Handler) assignRoles(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	targetID, err := requestutil.PathUUID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var roles []string
	if err := requestutil.DecodeJSON(request, &roles); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.accountService.ChangeRoles(request.Context(), actorOf(request, actorID), targetID, RoleChangeRequest{Roles: roles})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Audit Endpoints

// auditEntry is the wire form of an [Event].
type auditEntry struct {
	ID        string         `json:"id"`
	ActorID   string         `json:"actorId"`
	Action    Action         `json:"action"`
	SubjectID string         `json:"subjectId"`
	Detail    map[string]any `json:"detail,omitempty"`
	IPAddress string         `json:"ipAddress,omitempty"`
	CreatedAt string         `json:"createdAt"`
}

/*
GET /api/v1/admin/users/{id}/audit?limit=N.

Request:
  - limit: optional positive integer, capped at 100

Response:
  - 200: []auditEntry, newest first
  - 400: VALIDATION_ERROR: Malformed limit
  - 403: FORBIDDEN
*/
func (handler *Handler) listAudit(writer http.ResponseWriter, request *http.Request) {
	subjectID, err := requestutil.PathUUID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	limit := 0
	if raw := request.URL.Query().Get("limit"); raw != "" {
		parsed, parseErr := strconv.Atoi(raw)
		v := &validate.Validator{}
		if err := v.Custom("limit", parseErr != nil || parsed < 1, "Must be a positive integer").Err(); err != nil {
			respond.Error(writer, request, err)
			return
		}
		limit = parsed
	}

	events, err := handler.accountService.AuditTrail(request.Context(), subjectID, limit)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	entries := make([]auditEntry, 0, len(events))
	for _, event := range events {
		entries = append(entries, auditEntry{
			ID:        event.ID,
			ActorID:   event.ActorID,
			Action:    event.Action,
			SubjectID: event.SubjectID,
			Detail:    event.Detail,
			IPAddress: event.IPAddress,
			CreatedAt: event.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	respond.OK(writer, entries)
}

// actorOf builds the audit actor of a request.
func actorOf(request *http.Request, userID string) Actor {
	return Actor{UserID: userID, IPAddress: middleware.RealIP(request)}
}
