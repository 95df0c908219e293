package mappedapi

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Static errors for err113 compliance.
var (
	ErrUnknownResource = errors.New("unknown resource")
	ErrValidation      = errors.New("validation failed")
	ErrRequestFailed   = errors.New("request failed")
	ErrConfiguration   = errors.New("configuration error")
	ErrNotCallable     = errors.New("resource is not callable")
	ErrEmptyPath       = errors.New("empty resource path")
)

// UnknownResourceError is returned when a name is absent from a mapping level.
type UnknownResourceError struct {
	// Name is the name that could not be resolved.
	Name string
	// Path is the dotted path of the node the lookup was made on ("" for the root).
	Path string
}

// Error implements the error interface.
func (e *UnknownResourceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("client has no resource %q", e.Name)
	}

	return fmt.Sprintf("resource %q has no child %q", e.Path, e.Name)
}

// Unwrap allows errors.Is(err, ErrUnknownResource).
func (e *UnknownResourceError) Unwrap() error {
	return ErrUnknownResource
}

// ValidationError is returned before any network I/O when required arguments are missing.
type ValidationError struct {
	// Missing lists the absent argument names in declaration order.
	Missing []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "Missing required arguments: " + strings.Join(e.Missing, ",")
}

// Unwrap allows errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// RequestError wraps a response with status >= 300.
//
// The rendered message never contains the Authorization header. The raw
// request, including its headers, stays reachable through the Request field.
type RequestError struct {
	Request  *Request
	Response *Response
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	var builder strings.Builder

	if e.Response != nil {
		fmt.Fprintf(&builder, "Response: %d: %s", e.Response.StatusCode, e.Response.Reason())
	}

	if e.Request == nil {
		return builder.String()
	}

	fmt.Fprintf(&builder, "\nRequest: %s %s", e.Request.Method, e.Request.FullURL())
	fmt.Fprintf(&builder, "\nRequest Headers: %s", redactedHeaders(e.Request.Headers))

	if e.Request.Method.CarriesBody() && len(e.Request.Body) > 0 {
		fmt.Fprintf(&builder, "\nRequest Body: %s", e.Request.Body)
	}

	if e.Response != nil && len(e.Response.Body) > 0 {
		fmt.Fprintf(&builder, "\nResponse Content:\n%s", e.Response.Body)
	}

	return builder.String()
}

// Unwrap allows errors.Is(err, ErrRequestFailed).
func (e *RequestError) Unwrap() error {
	return ErrRequestFailed
}

// StatusCode returns the response status code, or 0 without a response.
func (e *RequestError) StatusCode() int {
	if e.Response == nil {
		return 0
	}

	return e.Response.StatusCode
}

// ConfigurationError reports a required deployment setting that is unset.
type ConfigurationError struct {
	// Setting names the missing piece, e.g. "mapping" or "base URL".
	Setting string
	// Err optionally carries the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Setting, e.Err)
	}

	return fmt.Sprintf("configuration error: %s is not set", e.Setting)
}

// Unwrap returns both the sentinel and the cause.
func (e *ConfigurationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConfiguration, e.Err}
	}

	return []error{ErrConfiguration}
}

// IsUnknownResource checks if the error is an unknown resource error.
func IsUnknownResource(err error) bool {
	return errors.Is(err, ErrUnknownResource)
}

// IsValidation checks if the error is a required-argument validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsRequestError checks if the error is an HTTP status error.
func IsRequestError(err error) bool {
	return errors.Is(err, ErrRequestFailed)
}

// IsConfiguration checks if the error is a configuration error.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// AsRequestError extracts a *RequestError from err.
func AsRequestError(err error) (*RequestError, bool) {
	reqErr := &RequestError{}
	if errors.As(err, &reqErr) {
		return reqErr, true
	}

	return nil, false
}

func redactedHeaders(headers http.Header) string {
	keys := make([]string, 0, len(headers))

	for key := range headers {
		if http.CanonicalHeaderKey(key) == HeaderAuthorization {
			continue
		}

		keys = append(keys, key)
	}

	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+strings.Join(headers[key], ","))
	}

	return strings.Join(pairs, " ")
}
