package keycloak

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/spec-kit/planmeet/internal/config"
	"github.com/spec-kit/planmeet/internal/domain"
)

// Gateway exchanges credentials for realm tokens using the confidential client.
type Gateway struct {
	password   oauth2.Config
	service    clientcredentials.Config
	httpClient *http.Client
	cache      TokenCache
}

// NewGateway builds the gateway. cache may be nil, in which case every
// ServiceToken call performs a fresh client-credentials grant.
func NewGateway(cfg config.KeycloakConfig, httpClient *http.Client, cache TokenCache) *Gateway {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	endpoint := oauth2.Endpoint{
		TokenURL:  cfg.TokenURL(),
		AuthStyle: oauth2.AuthStyleInParams,
	}
	return &Gateway{
		password: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
		},
		service: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     endpoint.TokenURL,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		httpClient: httpClient,
		cache:      cache,
	}
}

// Login performs a password grant on behalf of the user.
func (g *Gateway) Login(ctx context.Context, username, password string) (*domain.TokenSet, error) {
	token, err := g.password.PasswordCredentialsToken(g.withClient(ctx), username, password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			// invalid_client and friends are configuration faults, not bad user input.
			if retrieveErr.ErrorCode == "invalid_grant" {
				return nil, ErrInvalidCredentials
			}
			return nil, &APIError{Op: "password grant", StatusCode: retrieveErr.Response.StatusCode, Body: string(retrieveErr.Body), Err: err}
		}
		return nil, &APIError{Op: "password grant", Err: err}
	}
	return tokenSet(token), nil
}

// ServiceToken returns an administrative token from a client-credentials grant.
func (g *Gateway) ServiceToken(ctx context.Context) (*oauth2.Token, error) {
	if g.cache != nil {
		if token, ok := g.cache.Get(ctx); ok {
			return token, nil
		}
	}

	token, err := g.service.Token(g.withClient(ctx))
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return nil, &APIError{Op: "client credentials grant", StatusCode: retrieveErr.Response.StatusCode, Body: string(retrieveErr.Body), Err: err}
		}
		return nil, &APIError{Op: "client credentials grant", Err: err}
	}

	if g.cache != nil {
		g.cache.Put(ctx, token)
	}
	return token, nil
}

func (g *Gateway) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
}

func tokenSet(token *oauth2.Token) *domain.TokenSet {
	set := &domain.TokenSet{
		AccessToken:      token.AccessToken,
		TokenType:        token.TokenType,
		RefreshToken:     token.RefreshToken,
		Expiry:           token.Expiry,
		ExpiresIn:        extraInt(token, "expires_in"),
		RefreshExpiresIn: extraInt(token, "refresh_expires_in"),
	}
	if scope, ok := token.Extra("scope").(string); ok {
		set.Scope = scope
	}
	return set
}

func extraInt(token *oauth2.Token, key string) int64 {
	switch v := token.Extra(key).(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}
