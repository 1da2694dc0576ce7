package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

// Stack Exchange OAuth 2.0 endpoints for the explicit (server side) flow
const (
	AuthorizeURL = "https://stackoverflow.com/oauth"
	TokenURL     = "https://stackoverflow.com/oauth/access_token/json"
)

// ErrTokenExpired is returned when the configured access token has expired
var ErrTokenExpired = errors.New("access token expired, run `stack-digest auth` again")

// OAuthSettings identifies a registered Stack Apps application
type OAuthSettings struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// Endpoint overrides, empty means the Stack Exchange defaults
	AuthURL  string
	TokenURL string
}

// NewOAuthConfig builds the oauth2 configuration for the explicit flow.
// Stack Exchange expects the client credentials in the form body.
func NewOAuthConfig(s OAuthSettings) *oauth2.Config {
	endpoint := oauth2.Endpoint{
		AuthURL:   AuthorizeURL,
		TokenURL:  TokenURL,
		AuthStyle: oauth2.AuthStyleInParams,
	}
	if s.AuthURL != "" {
		endpoint.AuthURL = s.AuthURL
	}
	if s.TokenURL != "" {
		endpoint.TokenURL = s.TokenURL
	}

	return &oauth2.Config{
		ClientID:     s.ClientID,
		ClientSecret: s.ClientSecret,
		RedirectURL:  s.RedirectURL,
		Scopes:       s.Scopes,
		Endpoint:     endpoint,
	}
}

// ExchangeCode trades an authorization code for an access token. The token
// endpoint reports the lifetime as "expires" rather than "expires_in", so
// the expiry is filled in from that field; a token without one never expires.
func ExchangeCode(ctx context.Context, conf *oauth2.Config, code string, timeout time.Duration) (*oauth2.Token, error) {
	if code == "" {
		return nil, errors.New("authorization code must not be empty")
	}
	if timeout > 0 {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: timeout})
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if tok.Expiry.IsZero() {
		if secs := expiresSeconds(tok.Extra("expires")); secs > 0 {
			tok.Expiry = time.Now().Add(time.Duration(secs) * time.Second)
		}
	}
	return tok, nil
}

func expiresSeconds(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case string:
		secs, _ := strconv.ParseInt(n, 10, 64)
		return secs
	default:
		return 0
	}
}
