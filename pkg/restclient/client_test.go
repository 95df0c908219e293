package restclient_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venuebook/mappedapi/pkg/mappedapi"
	"github.com/venuebook/mappedapi/pkg/restclient"
)

const dogsMapping = `
dogs:
  shibes:
    get:
      endpoint_base: [dogs, shibes]
      endpoint_ids: [dog_id]
      verb: get
    post:
      endpoint_base: [dogs, shibes]
      endpoint_ids: [dog_id]
      required_args: [name]
      verb: post
`

func loadDogs(t *testing.T) mappedapi.Mapping {
	t.Helper()

	mapping, err := mappedapi.LoadMapping(strings.NewReader(dogsMapping))
	require.NoError(t, err)

	return mapping
}

func TestNew_StaticToken(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dogs/1/shibes", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "tests", r.Header.Get("X-Client"))

		_ = json.NewEncoder(w).Encode(map[string]string{"name": "kabosu"})
	}))
	defer server.Close()

	config := restclient.DefaultConfig()
	config.BaseURL = server.URL
	config.Token = "secret"
	config.Headers = map[string]string{"X-Client": "tests"}

	client, err := restclient.New(context.Background(), config, loadDogs(t))
	require.NoError(t, err)

	resp, err := client.Call(context.Background(), "dogs.shibes.get", mappedapi.Args{"dog_id": 1})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"name":"kabosu"}`, resp.String())
}

func TestNew_AuthTokenOverridesConfig(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token from-auth", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	config := restclient.DefaultConfig()
	config.BaseURL = server.URL
	config.Token = "from-config"
	config.TokenType = "Token"

	client, err := restclient.New(context.Background(), config, loadDogs(t),
		restclient.WithAuth(mappedapi.Auth{"token": "from-auth"}))
	require.NoError(t, err)

	resp, err := client.Call(context.Background(), "dogs.shibes.post", mappedapi.Args{
		"dog_id": "1",
		"data":   map[string]interface{}{"name": "doge"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestNew_OAuth2ClientCredentials(t *testing.T) {
	t.Parallel()

	var tokenRequests int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/token" {
			atomic.AddInt32(&tokenRequests, 1)

			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "client-id", user)
			assert.Equal(t, "client-secret", pass)

			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"access_token":"oauth-token","token_type":"bearer","expires_in":3600}`)

			return
		}

		assert.Equal(t, "Bearer oauth-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	config := restclient.DefaultConfig()
	config.BaseURL = server.URL
	config.ClientID = "client-id"
	config.ClientSecret = "client-secret"
	config.TokenURL = server.URL + "/oauth/token"

	client, err := restclient.New(context.Background(), config, loadDogs(t))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = client.Call(context.Background(), "dogs.shibes.get", mappedapi.Args{"dog_id": "1"})
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenRequests))
}

func TestNew_OAuth2BadCredentialsFailFast(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"invalid_client"}`)
	}))
	defer server.Close()

	config := restclient.DefaultConfig()
	config.BaseURL = server.URL
	config.ClientID = "client-id"
	config.ClientSecret = "wrong"
	config.TokenURL = server.URL + "/oauth/token"

	_, err := restclient.New(context.Background(), config, loadDogs(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_client")
}

func TestNew_Hooks(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "bad dog")
	}))
	defer server.Close()

	var (
		requests  int32
		responses int32
	)

	config := restclient.DefaultConfig()
	config.BaseURL = server.URL
	config.Token = "secret"

	client, err := restclient.New(context.Background(), config, loadDogs(t),
		restclient.WithRequestInterceptor(func(ctx context.Context, req *mappedapi.Request) error {
			atomic.AddInt32(&requests, 1)

			return nil
		}),
		restclient.WithResponseInterceptor(func(ctx context.Context, req *mappedapi.Request, resp *mappedapi.Response) error {
			atomic.AddInt32(&responses, 1)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			return nil
		}),
	)
	require.NoError(t, err)

	_, err = client.Call(context.Background(), "dogs.shibes.get", mappedapi.Args{"dog_id": "1"})
	require.Error(t, err)
	assert.True(t, mappedapi.IsRequestError(err))
	assert.NotContains(t, err.Error(), "secret")
	assert.Contains(t, err.Error(), "bad dog")
	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
	assert.Equal(t, int32(1), atomic.LoadInt32(&responses))
}

func TestNew_ArgumentProcessor(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string

		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "doge", body["name"])
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	config := restclient.DefaultConfig()
	config.BaseURL = server.URL

	client, err := restclient.New(context.Background(), config, loadDogs(t),
		restclient.WithArgumentProcessor(func(ctx context.Context, args mappedapi.Args) (mappedapi.Args, error) {
			return args.With("data", map[string]string{"name": args["name"].(string)}), nil
		}),
	)
	require.NoError(t, err)

	resp, err := client.Call(context.Background(), "dogs.shibes.post", mappedapi.Args{"dog_id": "1", "name": "doge"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestNew_CustomTransport(t *testing.T) {
	t.Parallel()

	config := restclient.DefaultConfig()
	config.BaseURL = "https://api.example.com/v1/"

	var seen *mappedapi.Request

	client, err := restclient.New(context.Background(), config, loadDogs(t),
		restclient.WithTransport(mappedapi.TransportFunc(func(ctx context.Context, req *mappedapi.Request) (*mappedapi.Response, error) {
			seen = req

			return &mappedapi.Response{StatusCode: http.StatusOK, Status: "200 OK"}, nil
		})),
	)
	require.NoError(t, err)

	_, err = client.Call(context.Background(), "dogs.shibes.get", mappedapi.Args{"dog_id": "7"})
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, "https://api.example.com/v1/dogs/7/shibes", seen.URL)
	assert.Empty(t, seen.Headers.Get("Authorization"))
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := restclient.New(context.Background(), nil, loadDogs(t))
	require.Error(t, err)
	assert.True(t, mappedapi.IsConfiguration(err))

	_, err = restclient.New(context.Background(), restclient.DefaultConfig(), loadDogs(t))
	require.Error(t, err)
	assert.True(t, mappedapi.IsConfiguration(err))
	assert.Contains(t, err.Error(), "base_url")

	config := restclient.DefaultConfig()
	config.BaseURL = "https://api.example.com"

	_, err = restclient.New(context.Background(), config, nil)
	require.Error(t, err)
	assert.True(t, mappedapi.IsConfiguration(err))
}

func TestNewFromFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "mapping.yml")
	require.NoError(t, os.WriteFile(path, []byte(dogsMapping), 0o600))

	config := restclient.DefaultConfig()
	config.BaseURL = "https://api.example.com"
	config.MappingFile = path

	client, err := restclient.NewFromFile(context.Background(), config)
	require.NoError(t, err)
	assert.Equal(t, []string{"dogs"}, client.Mapping().Names())

	config.MappingFile = ""

	_, err = restclient.NewFromFile(context.Background(), config)
	require.Error(t, err)
	assert.True(t, mappedapi.IsConfiguration(err))
}

func TestNewWithToken(t *testing.T) {
	t.Parallel()

	client, err := restclient.NewWithToken(context.Background(), "https://api.example.com", "secret", loadDogs(t))
	require.NoError(t, err)

	resource, err := client.Path("dogs.shibes.get")
	require.NoError(t, err)
	assert.True(t, resource.IsLeaf())
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*restclient.Config)
		wantErr string
	}{
		{
			name:   "valid static token",
			mutate: func(c *restclient.Config) { c.Token = "secret" },
		},
		{
			name:    "relative base url",
			mutate:  func(c *restclient.Config) { c.BaseURL = "/v1" },
			wantErr: "base_url",
		},
		{
			name:    "oauth without secret",
			mutate:  func(c *restclient.Config) { c.ClientID = "id"; c.TokenURL = "https://auth.example.com/token" },
			wantErr: "client_secret",
		},
		{
			name:    "oauth without token url",
			mutate:  func(c *restclient.Config) { c.ClientID = "id"; c.ClientSecret = "s" },
			wantErr: "token_url",
		},
		{
			name:    "negative retries",
			mutate:  func(c *restclient.Config) { c.RetryMax = -1 },
			wantErr: "retry_max",
		},
		{
			name: "retry wait max below min",
			mutate: func(c *restclient.Config) {
				c.RetryMax = 2
				c.RetryWaitMin = time.Second
				c.RetryWaitMax = time.Millisecond
			},
			wantErr: "retry_wait_max",
		},
		{
			name:    "negative rate limit",
			mutate:  func(c *restclient.Config) { c.RateLimit = -1 },
			wantErr: "rate_limit",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			config := restclient.DefaultConfig()
			config.BaseURL = "https://api.example.com"
			tt.mutate(config)

			err := config.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.True(t, mappedapi.IsConfiguration(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Redacted(t *testing.T) {
	t.Parallel()

	config := restclient.DefaultConfig()
	config.Token = "secret"
	config.ClientSecret = "also-secret"

	redacted := config.Redacted()
	assert.Equal(t, "***", redacted.Token)
	assert.Equal(t, "***", redacted.ClientSecret)
	assert.Equal(t, "secret", config.Token)
}

func TestLoadConfig(t *testing.T) {
	t.Run("file with defaults", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "mappedapi.yml")
		require.NoError(t, os.WriteFile(path, []byte(`
base_url: https://api.example.com
token: secret
timeout: 5s
retry_max: 2
scopes: [read, write]
headers:
  X-Client: tests
`), 0o600))

		v := viper.New()
		v.SetConfigFile(path)

		config, err := restclient.LoadConfig(v)
		require.NoError(t, err)
		assert.Equal(t, "https://api.example.com", config.BaseURL)
		assert.Equal(t, "secret", config.Token)
		assert.Equal(t, "Bearer", config.TokenType)
		assert.Equal(t, 5*time.Second, config.Timeout)
		assert.Equal(t, 2, config.RetryMax)
		assert.Equal(t, []string{"read", "write"}, config.Scopes)
		assert.Equal(t, "tests", config.Headers["x-client"])
	})

	t.Run("environment only", func(t *testing.T) {
		t.Setenv("MAPPEDAPI_BASE_URL", "https://env.example.com")
		t.Setenv("MAPPEDAPI_DEBUG", "true")

		config, err := restclient.LoadConfig(viper.New())
		require.NoError(t, err)
		assert.Equal(t, "https://env.example.com", config.BaseURL)
		assert.True(t, config.Debug)
	})

	t.Run("missing explicit file", func(t *testing.T) {
		v := viper.New()
		v.SetConfigFile(filepath.Join(t.TempDir(), "missing.yml"))

		_, err := restclient.LoadConfig(v)
		require.Error(t, err)
	})
}
