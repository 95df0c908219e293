package mappedapi

import (
	"context"
)

// Config wires a Client. Mapping, Deployment and Transport are required.
//
// # Request hooks
//
// ResponseInterceptors run after every response, including error statuses
// and transport failures, and are the place for request-lifecycle hooks.
// They are fixed when New returns; configure them once at startup.
//
// # Concurrency
//
// A Client is safe for concurrent calls as long as the Deployment and
// Transport are. Auth is copied by New, so later changes to the caller's map
// are not observed; refreshing credentials belongs to the Deployment.
type Config struct {
	// Mapping is the resource tree. It must not be modified after New.
	Mapping Mapping
	// Deployment supplies the base URL, headers and optional argument processing.
	Deployment Deployment
	// Auth is handed to Deployment.Headers on every call.
	Auth Auth
	// Transport issues the HTTP requests.
	Transport Transport
	// Logger is optional.
	Logger Logger
	// RequestInterceptors run before each request is sent.
	RequestInterceptors []RequestInterceptor
	// ResponseInterceptors run after each response is received.
	ResponseInterceptors []ResponseInterceptor
}

// Client is the entry point into a mapped API.
type Client struct {
	mapping    Mapping
	dispatcher *dispatcher
}

// New creates a Client, failing fast with a ConfigurationError when a
// required piece is missing.
func New(config *Config) (*Client, error) {
	if config == nil {
		return nil, &ConfigurationError{Setting: "config"}
	}

	if len(config.Mapping) == 0 {
		return nil, &ConfigurationError{Setting: "mapping"}
	}

	if config.Deployment == nil {
		return nil, &ConfigurationError{Setting: "deployment"}
	}

	if config.Transport == nil {
		return nil, &ConfigurationError{Setting: "transport"}
	}

	logger := config.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	chain := NewInterceptorChain()
	for _, interceptor := range config.RequestInterceptors {
		chain.AddRequestInterceptor(interceptor)
	}

	for _, interceptor := range config.ResponseInterceptors {
		chain.AddResponseInterceptor(interceptor)
	}

	return &Client{
		mapping: config.Mapping,
		dispatcher: &dispatcher{
			deployment: config.Deployment,
			auth:       config.Auth.clone(),
			transport:  config.Transport,
			chain:      chain,
			logger:     logger,
		},
	}, nil
}

// Resolve returns the top-level resource called name.
func (c *Client) Resolve(name string) (*Resource, error) {
	return resolveIn(c.mapping, "", name, c.dispatcher)
}

// Path resolves a dotted path such as "dogs.shibes.get".
func (c *Client) Path(dotted string) (*Resource, error) {
	return resolvePath(c.mapping, "", dotted, c.dispatcher)
}

// Call resolves a dotted path and calls the resulting endpoint.
func (c *Client) Call(ctx context.Context, dotted string, args Args) (*Response, error) {
	resource, err := c.Path(dotted)
	if err != nil {
		return nil, err
	}

	return resource.Call(ctx, args)
}

// Auth returns a copy of the credentials the client was built with.
func (c *Client) Auth() Auth {
	return c.dispatcher.auth.clone()
}

// Mapping returns the resource tree. Callers must treat it as read-only.
func (c *Client) Mapping() Mapping {
	return c.mapping
}
