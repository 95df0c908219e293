package mappedapi

import (
	"context"
)

// Auth is the opaque credential bundle held by a Client and handed to the
// header hook. The Client keeps a private copy, so it is read-only after New.
type Auth map[string]string

// Get returns the value for key, or "".
func (a Auth) Get(key string) string {
	return a[key]
}

func (a Auth) clone() Auth {
	out := make(Auth, len(a))
	for key, value := range a {
		out[key] = value
	}

	return out
}

// Deployment supplies the API-specific pieces the dispatcher cannot know.
type Deployment interface {
	// BaseURL returns the API root, e.g. "https://api.example.com/v1".
	BaseURL() string
	// Headers returns every header for a call, authorization included.
	Headers(ctx context.Context, auth Auth) (map[string]string, error)
}

// ArgumentProcessor is implemented by deployments that rewrite call
// arguments before validation, for example to condense an "operations"
// argument into the request body.
type ArgumentProcessor interface {
	ProcessCallArguments(ctx context.Context, args Args) (Args, error)
}

// DeploymentFuncs builds a Deployment from plain functions. A nil BaseURLFunc
// or HeadersFunc fails at the first call with a ConfigurationError.
type DeploymentFuncs struct {
	BaseURLFunc     func() string
	HeadersFunc     func(ctx context.Context, auth Auth) (map[string]string, error)
	ProcessArgsFunc func(ctx context.Context, args Args) (Args, error)
}

var (
	_ Deployment        = (*DeploymentFuncs)(nil)
	_ ArgumentProcessor = (*DeploymentFuncs)(nil)
)

// BaseURL implements Deployment.
func (d *DeploymentFuncs) BaseURL() string {
	if d.BaseURLFunc == nil {
		return ""
	}

	return d.BaseURLFunc()
}

// Headers implements Deployment.
func (d *DeploymentFuncs) Headers(ctx context.Context, auth Auth) (map[string]string, error) {
	if d.HeadersFunc == nil {
		return nil, &ConfigurationError{Setting: "headers hook"}
	}

	return d.HeadersFunc(ctx, auth)
}

// ProcessCallArguments implements ArgumentProcessor; identity when unset.
func (d *DeploymentFuncs) ProcessCallArguments(ctx context.Context, args Args) (Args, error) {
	if d.ProcessArgsFunc == nil {
		return args, nil
	}

	return d.ProcessArgsFunc(ctx, args)
}
