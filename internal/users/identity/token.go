// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/taibuivan/yomira-identity/internal/platform/apperr"
	"github.com/taibuivan/yomira-identity/internal/platform/constants"
	"github.com/taibuivan/yomira-identity/internal/users/account"
)

// tokenResponse is the OAuth2 token endpoint payload.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
}

// tokenError is the OAuth2 error payload.
type tokenError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// # User Tokens

/*
IssueToken performs the password grant against the service realm.

Returns:
  - *account.TokenInfo: Issued token pair
  - error: apperr.Unauthorized for rejected credentials, apperr.Upstream otherwise
*/
func (client *Client) IssueToken(context context.Context, username, password string) (*account.TokenInfo, error) {
	form := url.Values{
		"grant_type": {"password"},
		"client_id":  {client.cfg.ClientID},
		"username":   {username},
		"password":   {password},
		"scope":      {"openid"},
	}
	if client.cfg.ClientSecret != "" {
		form.Set("client_secret", client.cfg.ClientSecret)
	}

	token, err := client.passwordGrant(context, client.cfg.Realm, form)
	if err != nil {
		return nil, err
	}

	return &account.TokenInfo{
		AccessToken:      token.AccessToken,
		ExpiresIn:        token.ExpiresIn,
		RefreshExpiresIn: token.RefreshExpiresIn,
		RefreshToken:     token.RefreshToken,
		TokenType:        token.TokenType,
	}, nil
}

// # Admin Tokens

// adminToken returns a token for the admin API, from the cache unless
// refresh is set. A cache failure only costs an extra login.
func (client *Client) adminToken(context context.Context, refresh bool) (string, error) {
	key := constants.RedisPrefixAdminToken + client.cfg.AdminRealm + ":" + client.cfg.AdminClientID

	if !refresh && client.tokenCache != nil {
		cached, found, err := client.tokenCache.Get(context, key)
		if err != nil {
			client.logger.WarnContext(context, "identity_token_cache_read_failed", slog.Any("error", err))
		}
		if found {
			return cached, nil
		}
	}

	form := url.Values{
		"grant_type": {"password"},
		"client_id":  {client.cfg.AdminClientID},
		"username":   {client.cfg.AdminUsername},
		"password":   {client.cfg.AdminPassword},
	}

	token, err := client.passwordGrant(context, client.cfg.AdminRealm, form)
	if err != nil {
		// Bad admin credentials are a deployment fault, not a caller fault.
		if apperr.HasCode(err, apperr.CodeUnauthorized) {
			return "", apperr.Upstream(fmt.Errorf("identity: admin login rejected: %w", err))
		}
		return "", err
	}

	if client.tokenCache != nil {
		ttl := time.Duration(token.ExpiresIn)*time.Second - constants.AdminTokenSkew
		if ttl > 0 {
			if err := client.tokenCache.Set(context, key, token.AccessToken, ttl); err != nil {
				client.logger.WarnContext(context, "identity_token_cache_write_failed", slog.Any("error", err))
			}
		}
	}

	return token.AccessToken, nil
}

// # Token Endpoint

func (client *Client) passwordGrant(context context.Context, realm string, form url.Values) (*tokenResponse, error) {
	endpoint := client.tokenURL(realm)

	request, err := http.NewRequestWithContext(context, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("identity: build token request: %w", err))
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	request.Header.Set("Accept", "application/json")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, apperr.Upstream(fmt.Errorf("identity: token request failed: %w", err))
	}
	defer drain(response)

	if response.StatusCode != http.StatusOK {
		return nil, tokenFailure(response, realm)
	}

	var token tokenResponse
	if err := json.NewDecoder(response.Body).Decode(&token); err != nil {
		return nil, apperr.Upstream(fmt.Errorf("identity: decode token response: %w", err))
	}
	if token.AccessToken == "" {
		return nil, apperr.Upstream(fmt.Errorf("identity: token response for realm %s has no access token", realm))
	}

	return &token, nil
}

// tokenFailure maps a failed grant. The provider answers bad credentials
// with invalid_grant on 400 or 401.
func tokenFailure(response *http.Response, realm string) error {
	body, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBody))

	var payload tokenError
	_ = json.Unmarshal(body, &payload)

	cause := fmt.Errorf("identity: token endpoint of realm %s returned %d: %s %s",
		realm, response.StatusCode, payload.Error, payload.ErrorDescription)

	if payload.Error == "invalid_grant" || response.StatusCode == http.StatusUnauthorized {
		return &apperr.AppError{
			Code:       apperr.CodeUnauthorized,
			Message:    "Invalid login credentials",
			HTTPStatus: http.StatusUnauthorized,
			Cause:      cause,
		}
	}

	return apperr.Upstream(cause)
}
