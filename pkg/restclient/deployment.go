package restclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/venuebook/mappedapi/internal/auth"
	"github.com/venuebook/mappedapi/internal/constants"
	"github.com/venuebook/mappedapi/pkg/mappedapi"
)

// AuthTokenKey is the Auth entry read by the bearer deployment.
const AuthTokenKey = "token"

// Deployment is a ready-made mappedapi.Deployment for APIs that take an
// "Authorization: <type> <token>" header.
//
// The token comes from the client's Auth["token"] when present, otherwise
// from the token manager (static or OAuth2).
type Deployment struct {
	baseURL   string
	tokenType string
	headers   map[string]string
	tokens    auth.TokenManager
	processor func(ctx context.Context, args mappedapi.Args) (mappedapi.Args, error)
}

var (
	_ mappedapi.Deployment        = (*Deployment)(nil)
	_ mappedapi.ArgumentProcessor = (*Deployment)(nil)
)

// NewDeployment builds the deployment described by config.
func NewDeployment(config *Config) *Deployment {
	tokenType := config.TokenType
	if tokenType == "" {
		tokenType = constants.DefaultTokenType
	}

	var tokens auth.TokenManager

	switch {
	case config.Token != "":
		tokens = auth.NewStaticTokenManager(config.Token)
	case config.ClientID != "":
		tokens = auth.NewOAuth2TokenManager(&auth.OAuth2Config{
			TokenURL:     config.TokenURL,
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Scopes:       config.Scopes,
		})
	}

	headers := make(map[string]string, len(config.Headers))
	for key, value := range config.Headers {
		headers[key] = value
	}

	return &Deployment{
		baseURL:   config.BaseURL,
		tokenType: tokenType,
		headers:   headers,
		tokens:    tokens,
	}
}

// BaseURL implements mappedapi.Deployment.
func (d *Deployment) BaseURL() string {
	return d.baseURL
}

// Headers implements mappedapi.Deployment.
func (d *Deployment) Headers(ctx context.Context, credentials mappedapi.Auth) (map[string]string, error) {
	headers := map[string]string{
		mappedapi.HeaderAccept: mappedapi.ContentTypeJSON,
	}

	for key, value := range d.headers {
		headers[key] = value
	}

	token, err := d.token(ctx, credentials)
	if err != nil {
		return nil, err
	}

	if token != "" {
		headers[mappedapi.HeaderAuthorization] = strings.TrimSpace(d.tokenType + " " + token)
	}

	return headers, nil
}

// ProcessCallArguments implements mappedapi.ArgumentProcessor.
func (d *Deployment) ProcessCallArguments(ctx context.Context, args mappedapi.Args) (mappedapi.Args, error) {
	if d.processor == nil {
		return args, nil
	}

	return d.processor(ctx, args)
}

func (d *Deployment) token(ctx context.Context, credentials mappedapi.Auth) (string, error) {
	if token := credentials.Get(AuthTokenKey); token != "" {
		return token, nil
	}

	if d.tokens == nil {
		return "", nil
	}

	token, err := d.tokens.GetToken(ctx)
	if err != nil {
		return "", fmt.Errorf("getting access token: %w", err)
	}

	return token, nil
}
