package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Static errors for err113 compliance.
var (
	ErrNoValidCredentials = errors.New("no valid credentials available")
	ErrRefreshUnsupported = errors.New("token cannot be refreshed")
	ErrNoTokenURL         = errors.New("no token URL configured")
)

// OAuth2Config holds OAuth2 configuration.
type OAuth2Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	RefreshToken string
	AccessToken  string
	Scopes       []string
	// HTTPClient is used for token requests when set.
	HTTPClient *http.Client
}

// OAuth2TokenManager manages OAuth2 tokens, refreshing them when they
// expire. Grants are tried in order: refresh token, password, client
// credentials.
type OAuth2TokenManager struct {
	config *OAuth2Config
	store  *TokenStore
	mu     sync.Mutex
}

var _ TokenManager = (*OAuth2TokenManager)(nil)

// NewOAuth2TokenManager creates a new OAuth2 token manager.
func NewOAuth2TokenManager(config *OAuth2Config) *OAuth2TokenManager {
	manager := &OAuth2TokenManager{
		config: config,
		store:  NewTokenStore(),
	}

	if config.AccessToken != "" {
		manager.store.Set(&Token{
			AccessToken:  config.AccessToken,
			RefreshToken: config.RefreshToken,
			TokenType:    "bearer",
		})
	}

	return manager
}

// GetToken returns a valid access token, refreshing if necessary.
func (m *OAuth2TokenManager) GetToken(ctx context.Context) (string, error) {
	token := m.store.Get()
	if token.Valid() {
		return token.AccessToken, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another caller may have refreshed while we waited.
	token = m.store.Get()
	if token.Valid() {
		return token.AccessToken, nil
	}

	err := m.refreshLocked(ctx)
	if err != nil {
		return "", err
	}

	return m.store.Get().AccessToken, nil
}

// RefreshToken forces a token refresh.
func (m *OAuth2TokenManager) RefreshToken(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.refreshLocked(ctx)
}

// SetToken manually sets the access token.
func (m *OAuth2TokenManager) SetToken(token string, expiresAt time.Time) {
	refreshToken := m.config.RefreshToken
	if current := m.store.Get(); current != nil && current.RefreshToken != "" {
		refreshToken = current.RefreshToken
	}

	m.store.Set(&Token{
		AccessToken:  token,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresAt:    expiresAt,
	})
}

func (m *OAuth2TokenManager) refreshLocked(ctx context.Context) error {
	if m.config.TokenURL == "" {
		return ErrNoTokenURL
	}

	if m.config.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, m.config.HTTPClient)
	}

	refreshToken := m.config.RefreshToken
	if current := m.store.Get(); current != nil && current.RefreshToken != "" {
		refreshToken = current.RefreshToken
	}

	var (
		token *oauth2.Token
		err   error
	)

	switch {
	case refreshToken != "":
		source := m.oauth2Config().TokenSource(ctx, &oauth2.Token{
			RefreshToken: refreshToken,
			Expiry:       time.Unix(1, 0),
		})
		token, err = source.Token()
	case m.config.Username != "" && m.config.Password != "":
		token, err = m.oauth2Config().PasswordCredentialsToken(ctx, m.config.Username, m.config.Password)
	case m.config.ClientID != "":
		credentials := &clientcredentials.Config{
			ClientID:     m.config.ClientID,
			ClientSecret: m.config.ClientSecret,
			TokenURL:     m.config.TokenURL,
			Scopes:       m.config.Scopes,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		token, err = credentials.Token(ctx)
	default:
		return ErrNoValidCredentials
	}

	if err != nil {
		return fmt.Errorf("failed to obtain token: %w", err)
	}

	m.store.Set(fromOAuth2(token))

	return nil
}

func (m *OAuth2TokenManager) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     m.config.ClientID,
		ClientSecret: m.config.ClientSecret,
		Scopes:       m.config.Scopes,
		Endpoint: oauth2.Endpoint{
			TokenURL:  m.config.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

func fromOAuth2(token *oauth2.Token) *Token {
	converted := &Token{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}

	if !token.Expiry.IsZero() {
		converted.ExpiresIn = int(time.Until(token.Expiry).Seconds())
	}

	if scope, ok := token.Extra("scope").(string); ok {
		converted.Scope = scope
	}

	return converted
}
