// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package identity is the client for the Keycloak-compatible identity provider
that owns user records, credentials and realm roles.

It implements [account.IdentityProvider] on top of two provider surfaces:

  - The OpenID Connect token endpoint of the service realm (password grant).
  - The admin REST API, called with an admin token obtained from the admin
    realm and shared between replicas through a [TokenCache].

Provider status codes are translated to [apperr.AppError] values here so the
account service never sees raw HTTP.
*/
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/taibuivan/yomira-identity/internal/platform/apperr"
	"github.com/taibuivan/yomira-identity/internal/platform/config"
	"github.com/taibuivan/yomira-identity/internal/platform/constants"
)

// maxErrorBody bounds how much of a failed response is kept for logging.
const maxErrorBody = 512

// Client talks to one realm of the identity provider.
//
// Client is safe for concurrent use.
type Client struct {
	cfg        config.KeycloakConfig
	httpClient *http.Client
	tokenCache TokenCache
	logger     *slog.Logger
}

// NewClient constructs a [Client]. A nil httpClient gets a client bounded by
// [constants.IdentityRequestTimeout].
func NewClient(cfg config.KeycloakConfig, tokenCache TokenCache, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.IdentityRequestTimeout}
	}

	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")

	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		tokenCache: tokenCache,
		logger:     logger,
	}
}

// Ping checks that the realm's discovery document is served.
func (client *Client) Ping(context context.Context) error {
	endpoint := client.realmURL(client.cfg.Realm) + "/.well-known/openid-configuration"

	request, err := http.NewRequestWithContext(context, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("identity: build discovery request: %w", err)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("identity: discovery request failed: %w", err)
	}
	defer drain(response)

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("identity: discovery returned status %d", response.StatusCode)
	}

	return nil
}

// # URL Builders

func (client *Client) realmURL(realm string) string {
	return client.cfg.ServerURL + "/realms/" + url.PathEscape(realm)
}

func (client *Client) tokenURL(realm string) string {
	return client.realmURL(realm) + "/protocol/openid-connect/token"
}

func (client *Client) adminURL(segments ...string) string {
	var builder strings.Builder
	builder.WriteString(client.cfg.ServerURL)
	builder.WriteString("/admin/realms/")
	builder.WriteString(url.PathEscape(client.cfg.Realm))

	for _, segment := range segments {
		builder.WriteByte('/')
		builder.WriteString(url.PathEscape(segment))
	}

	return builder.String()
}

// # Admin API Transport

// adminCall performs one admin API request. On 401 the cached admin token is
// discarded and the request is retried once with a fresh token.
//
// The response body is decoded into out when out is non-nil. The raw
// response is returned with its body already consumed.
func (client *Client) adminCall(context context.Context, method, endpoint string, body any, out any) (*http.Response, error) {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, apperr.Internal(fmt.Errorf("identity: encode %s body: %w", method, err))
		}
		payload = encoded
	}

	for attempt := 0; ; attempt++ {
		token, err := client.adminToken(context, attempt > 0)
		if err != nil {
			return nil, err
		}

		request, err := http.NewRequestWithContext(context, method, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, apperr.Internal(fmt.Errorf("identity: build %s request: %w", method, err))
		}
		request.Header.Set("Authorization", "Bearer "+token)
		request.Header.Set("Accept", "application/json")
		if body != nil {
			request.Header.Set("Content-Type", "application/json")
		}

		response, err := client.httpClient.Do(request)
		if err != nil {
			return nil, apperr.Upstream(fmt.Errorf("identity: %s %s: %w", method, endpoint, err))
		}

		if response.StatusCode == http.StatusUnauthorized && attempt == 0 {
			drain(response)
			client.logger.WarnContext(context, "identity_admin_token_rejected", slog.String("endpoint", endpoint))
			continue
		}

		if response.StatusCode >= 300 {
			defer drain(response)
			return response, statusError(response, method, endpoint)
		}

		if out != nil {
			if err := json.NewDecoder(response.Body).Decode(out); err != nil {
				drain(response)
				return nil, apperr.Upstream(fmt.Errorf("identity: decode %s %s: %w", method, endpoint, err))
			}
		}
		drain(response)

		return response, nil
	}
}

// # Error Mapping

// statusError converts a non-success admin API response into an AppError.
func statusError(response *http.Response, method, endpoint string) error {
	snippet, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBody))
	cause := fmt.Errorf("identity: %s %s returned %d: %s", method, endpoint, response.StatusCode, bytes.TrimSpace(snippet))

	switch response.StatusCode {
	case http.StatusNotFound:
		return &apperr.AppError{
			Code:       apperr.CodeNotFound,
			Message:    "User or role not found",
			HTTPStatus: http.StatusNotFound,
			Cause:      cause,
		}
	case http.StatusConflict:
		return &apperr.AppError{
			Code:       apperr.CodeConflict,
			Message:    "User with the same username or email already exists",
			HTTPStatus: http.StatusConflict,
			Cause:      cause,
		}
	case http.StatusBadRequest:
		return &apperr.AppError{
			Code:       apperr.CodeRequestValidation,
			Message:    "Identity provider rejected the request",
			HTTPStatus: http.StatusBadRequest,
			Cause:      cause,
		}
	default:
		return apperr.Upstream(cause)
	}
}

// drain consumes and closes a response body so the connection is reused.
func drain(response *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, 64<<10))
	_ = response.Body.Close()
}
