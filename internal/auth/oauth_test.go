package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenEndpoint is an authorization server that answers every grant with a
// JSON token and remembers the forms it received.
type tokenEndpoint struct {
	*httptest.Server

	requests atomic.Int32
	mu       sync.Mutex
	forms    []url.Values
	status   int
	reply    interface{}
}

func newTokenEndpoint(t *testing.T, status int, reply interface{}) *tokenEndpoint {
	t.Helper()

	endpoint := &tokenEndpoint{status: status, reply: reply}
	endpoint.Server = httptest.NewServer(http.HandlerFunc(endpoint.serve))
	t.Cleanup(endpoint.Close)

	return endpoint
}

func (e *tokenEndpoint) serve(w http.ResponseWriter, r *http.Request) {
	e.requests.Add(1)

	_ = r.ParseForm()

	e.mu.Lock()
	e.forms = append(e.forms, r.PostForm)
	e.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.status)
	_ = json.NewEncoder(w).Encode(e.reply)
}

func (e *tokenEndpoint) tokenURL() string {
	return e.URL + "/oauth/token"
}

func (e *tokenEndpoint) lastForm() url.Values {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.forms) == 0 {
		return nil
	}

	return e.forms[len(e.forms)-1]
}

func issued(accessToken, refreshToken string) map[string]interface{} {
	reply := map[string]interface{}{
		"access_token": accessToken,
		"token_type":   "bearer",
		"expires_in":   3600,
		"scope":        "dogs:read",
	}

	if refreshToken != "" {
		reply["refresh_token"] = refreshToken
	}

	return reply
}

func TestOAuth2TokenManager_Grants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		config    OAuth2Config
		grantType string
		form      map[string]string
	}{
		{
			name:      "refresh token wins over other credentials",
			config:    OAuth2Config{RefreshToken: "r-shibe", Username: "doge", Password: "wow", ClientID: "kennel"},
			grantType: "refresh_token",
			form:      map[string]string{"refresh_token": "r-shibe"},
		},
		{
			name:      "password grant",
			config:    OAuth2Config{Username: "doge", Password: "wow"},
			grantType: "password",
			form:      map[string]string{"username": "doge", "password": "wow"},
		},
		{
			name:      "client credentials with scopes",
			config:    OAuth2Config{ClientID: "kennel", ClientSecret: "bones", Scopes: []string{"dogs:read", "dogs:write"}},
			grantType: "client_credentials",
			form:      map[string]string{"scope": "dogs:read dogs:write"},
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			endpoint := newTokenEndpoint(t, http.StatusOK, issued("fresh-"+tt.grantType, "r-next"))

			config := tt.config
			config.TokenURL = endpoint.tokenURL()
			manager := NewOAuth2TokenManager(&config)

			token, err := manager.GetToken(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "fresh-"+tt.grantType, token)

			form := endpoint.lastForm()
			require.NotNil(t, form)
			assert.Equal(t, tt.grantType, form.Get("grant_type"))

			for key, value := range tt.form {
				assert.Equal(t, value, form.Get(key), key)
			}

			stored := manager.store.Get()
			assert.Equal(t, "r-next", stored.RefreshToken)
			assert.Equal(t, "dogs:read", stored.Scope)
			assert.True(t, stored.ExpiresAt.After(time.Now()))
		})
	}
}

func TestOAuth2TokenManager_ConfiguredAccessToken(t *testing.T) {
	t.Parallel()

	endpoint := newTokenEndpoint(t, http.StatusOK, issued("unused", ""))

	manager := NewOAuth2TokenManager(&OAuth2Config{
		TokenURL:    endpoint.tokenURL(),
		ClientID:    "kennel",
		AccessToken: "preset",
	})

	token, err := manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "preset", token)
	assert.Zero(t, endpoint.requests.Load())
}

func TestOAuth2TokenManager_ExpiredTokenUsesStoredRefreshToken(t *testing.T) {
	t.Parallel()

	endpoint := newTokenEndpoint(t, http.StatusOK, issued("renewed", "r-second"))

	manager := NewOAuth2TokenManager(&OAuth2Config{
		TokenURL:     endpoint.tokenURL(),
		RefreshToken: "r-configured",
	})
	manager.store.Set(&Token{
		AccessToken:  "stale",
		RefreshToken: "r-first",
		ExpiresAt:    time.Now().Add(-time.Minute),
	})

	token, err := manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "renewed", token)
	assert.Equal(t, "r-first", endpoint.lastForm().Get("refresh_token"))
	assert.Equal(t, "r-second", manager.store.Get().RefreshToken)
}

func TestOAuth2TokenManager_RejectedCredentials(t *testing.T) {
	t.Parallel()

	endpoint := newTokenEndpoint(t, http.StatusUnauthorized, map[string]string{
		"error":             "invalid_client",
		"error_description": "unknown kennel",
	})

	manager := NewOAuth2TokenManager(&OAuth2Config{
		TokenURL:     endpoint.tokenURL(),
		ClientID:     "stray",
		ClientSecret: "nope",
	})

	token, err := manager.GetToken(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_client")
	assert.Contains(t, err.Error(), "unknown kennel")
	assert.Empty(t, token)
	assert.Nil(t, manager.store.Get())
}

func TestOAuth2TokenManager_MissingConfiguration(t *testing.T) {
	t.Parallel()

	t.Run("no credentials", func(t *testing.T) {
		t.Parallel()

		manager := NewOAuth2TokenManager(&OAuth2Config{TokenURL: "http://localhost/oauth/token"})

		_, err := manager.GetToken(context.Background())
		require.ErrorIs(t, err, ErrNoValidCredentials)
	})

	t.Run("no token url", func(t *testing.T) {
		t.Parallel()

		manager := NewOAuth2TokenManager(&OAuth2Config{ClientID: "kennel"})

		_, err := manager.GetToken(context.Background())
		require.ErrorIs(t, err, ErrNoTokenURL)
	})
}

func TestOAuth2TokenManager_SetToken(t *testing.T) {
	t.Parallel()

	manager := NewOAuth2TokenManager(&OAuth2Config{RefreshToken: "r-configured"})
	expiresAt := time.Now().Add(time.Hour)

	manager.SetToken("handed-over", expiresAt)

	token, err := manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "handed-over", token)

	stored := manager.store.Get()
	assert.Equal(t, "bearer", stored.TokenType)
	assert.Equal(t, "r-configured", stored.RefreshToken)
	assert.Equal(t, expiresAt.Unix(), stored.ExpiresAt.Unix())
}

func TestOAuth2TokenManager_RefreshToken(t *testing.T) {
	t.Parallel()

	endpoint := newTokenEndpoint(t, http.StatusOK, issued("forced", ""))

	manager := NewOAuth2TokenManager(&OAuth2Config{
		TokenURL:     endpoint.tokenURL(),
		ClientID:     "kennel",
		ClientSecret: "bones",
	})
	manager.SetToken("still-good", time.Now().Add(time.Hour))

	require.NoError(t, manager.RefreshToken(context.Background()))

	token, err := manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "forced", token)
	assert.Equal(t, int32(1), endpoint.requests.Load())
}

func TestOAuth2TokenManager_ConcurrentCallersShareOneFetch(t *testing.T) {
	t.Parallel()

	endpoint := newTokenEndpoint(t, http.StatusOK, issued("shared", ""))

	manager := NewOAuth2TokenManager(&OAuth2Config{
		TokenURL:     endpoint.tokenURL(),
		ClientID:     "kennel",
		ClientSecret: "bones",
		HTTPClient:   endpoint.Client(),
	})

	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			token, err := manager.GetToken(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "shared", token)
		}()
	}

	wg.Wait()
	assert.Equal(t, int32(1), endpoint.requests.Load())
}
