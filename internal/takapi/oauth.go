// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package takapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// OAuth exchanges a username and password for a session token on the
// WebTAK port.
type OAuth struct {
	c *Client
}

// TokenClaims are the fields TAK Server puts in its session JWT.
type TokenClaims struct {
	jwt.RegisteredClaims
	Username string   `json:"user_name,omitempty"`
	ClientID string   `json:"client_id,omitempty"`
	Scope    []string `json:"scope,omitempty"`
}

// Login is the result of a successful password exchange.
type Login struct {
	Token  string
	Claims *TokenClaims
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Login performs the password grant. A 401, or an invalid_grant answer
// citing bad credentials, yields ErrInvalidCredentials.
func (o *OAuth) Login(ctx context.Context, username, password string) (*Login, error) {
	u := o.c.endpoint.WebTAKURL()
	u.Path = "/oauth/token"

	resp, err := o.c.Fetch(ctx, http.MethodPost, u.String(), FetchOptions{
		Query: url.Values{
			"grant_type": {"password"},
			"username":   {username},
			"password":   {password},
		},
		Raw:             true,
		unauthenticated: true,
	})
	if err != nil {
		return nil, fmt.Errorf("oauth token exchange: %w", err)
	}
	if resp.Status == http.StatusUnauthorized {
		return nil, ErrInvalidCredentials
	}

	var body tokenResponse
	if len(resp.Bytes()) > 0 {
		if err := resp.JSON(&body); err != nil && resp.OK() {
			return nil, fmt.Errorf("oauth token exchange: %w", err)
		}
	}
	if body.Error == "invalid_grant" && strings.HasPrefix(body.ErrorDescription, "Bad credentials") {
		return nil, ErrInvalidCredentials
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	if body.Error != "" || body.AccessToken == "" {
		msg := body.ErrorDescription
		if msg == "" {
			msg = body.Error
		}
		if msg == "" {
			msg = "no access token in response"
		}
		return nil, &APIError{Status: resp.Status, Message: msg}
	}

	claims, err := ParseToken(body.AccessToken)
	if err != nil {
		return nil, err
	}
	return &Login{Token: body.AccessToken, Claims: claims}, nil
}

// ParseToken reads the claims of a session token without verifying its
// signature. The Server is the only party that can verify it.
func ParseToken(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}
	return claims, nil
}
