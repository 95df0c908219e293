// Package restclient provides the main entry point for creating mapped API
// clients from configuration.
package restclient

import (
	"context"
	"fmt"

	apihttp "github.com/venuebook/mappedapi/internal/http"
	"github.com/venuebook/mappedapi/pkg/mappedapi"
)

// Option customizes a client built by New.
type Option func(*options)

type options struct {
	logger       mappedapi.Logger
	transport    mappedapi.Transport
	auth         mappedapi.Auth
	processor    func(ctx context.Context, args mappedapi.Args) (mappedapi.Args, error)
	requestHooks []mappedapi.RequestInterceptor
	hooks        []mappedapi.ResponseInterceptor
}

// WithLogger sets the logger used by the client and the default transport.
func WithLogger(logger mappedapi.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTransport replaces the default retryablehttp transport.
func WithTransport(transport mappedapi.Transport) Option {
	return func(o *options) {
		o.transport = transport
	}
}

// WithAuth sets the credentials handed to the deployment. An Auth "token"
// entry takes precedence over the configured token.
func WithAuth(credentials mappedapi.Auth) Option {
	return func(o *options) {
		o.auth = credentials
	}
}

// WithArgumentProcessor installs a hook that rewrites call arguments before
// validation.
func WithArgumentProcessor(fn func(ctx context.Context, args mappedapi.Args) (mappedapi.Args, error)) Option {
	return func(o *options) {
		o.processor = fn
	}
}

// WithRequestInterceptor adds a hook run before each request is sent.
func WithRequestInterceptor(interceptor mappedapi.RequestInterceptor) Option {
	return func(o *options) {
		o.requestHooks = append(o.requestHooks, interceptor)
	}
}

// WithResponseInterceptor adds a request-lifecycle hook run after every
// response, including failures.
func WithResponseInterceptor(interceptor mappedapi.ResponseInterceptor) Option {
	return func(o *options) {
		o.hooks = append(o.hooks, interceptor)
	}
}

// New creates a client for mapping against the deployment described by config.
//
// When OAuth2 client credentials are configured, an initial token is
// requested so that bad credentials fail here rather than on the first call.
func New(ctx context.Context, config *Config, mapping mappedapi.Mapping, opts ...Option) (*mappedapi.Client, error) {
	if config == nil {
		return nil, &mappedapi.ConfigurationError{Setting: "config"}
	}

	err := config.Validate()
	if err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	deployment := NewDeployment(config)
	deployment.processor = o.processor

	if config.Token == "" && config.ClientID != "" {
		_, err = deployment.tokens.GetToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("authenticating: %w", err)
		}
	}

	transport := o.transport
	if transport == nil {
		transport = newTransport(config, o.logger)
	}

	var requestHooks []mappedapi.RequestInterceptor

	if config.RateLimit > 0 {
		burst := int(config.RateLimit)
		requestHooks = append(requestHooks, mappedapi.RateLimitInterceptor(config.RateLimit, burst))
	}

	requestHooks = append(requestHooks, o.requestHooks...)

	var hooks []mappedapi.ResponseInterceptor

	if o.logger != nil {
		hooks = append(hooks, mappedapi.LoggingResponseInterceptor(o.logger))
	}

	hooks = append(hooks, o.hooks...)

	client, err := mappedapi.New(&mappedapi.Config{
		Mapping:              mapping,
		Deployment:           deployment,
		Auth:                 o.auth,
		Transport:            transport,
		Logger:               o.logger,
		RequestInterceptors:  requestHooks,
		ResponseInterceptors: hooks,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return client, nil
}

// NewFromFile creates a client using the mapping file named by config.MappingFile.
func NewFromFile(ctx context.Context, config *Config, opts ...Option) (*mappedapi.Client, error) {
	if config == nil {
		return nil, &mappedapi.ConfigurationError{Setting: "config"}
	}

	if config.MappingFile == "" {
		return nil, &mappedapi.ConfigurationError{Setting: "mapping_file"}
	}

	mapping, err := mappedapi.LoadMappingFile(config.MappingFile)
	if err != nil {
		return nil, err
	}

	return New(ctx, config, mapping, opts...)
}

// NewWithToken creates a client for a bearer-token API.
func NewWithToken(ctx context.Context, baseURL, token string, mapping mappedapi.Mapping, opts ...Option) (*mappedapi.Client, error) {
	config := DefaultConfig()
	config.BaseURL = baseURL
	config.Token = token

	return New(ctx, config, mapping, opts...)
}

func newTransport(config *Config, logger mappedapi.Logger) *apihttp.Client {
	transportOpts := []apihttp.Option{
		apihttp.WithRetryConfig(config.RetryMax, config.RetryWaitMin, config.RetryWaitMax),
		apihttp.WithDebug(config.Debug),
	}

	if config.Timeout > 0 {
		transportOpts = append(transportOpts, apihttp.WithTimeout(config.Timeout))
	}

	if config.UserAgent != "" {
		transportOpts = append(transportOpts, apihttp.WithUserAgent(config.UserAgent))
	}

	if logger != nil {
		transportOpts = append(transportOpts, apihttp.WithLogger(logger))
	}

	return apihttp.NewClient(transportOpts...)
}
