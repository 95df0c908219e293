package mappedapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Header names referenced by the dispatcher and its error rendering.
const (
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderAccept        = "Accept"
	ContentTypeJSON     = "application/json"
)

// Verb is a normalized (upper-case) HTTP method.
type Verb string

// Supported verbs.
const (
	VerbGet    Verb = http.MethodGet
	VerbPost   Verb = http.MethodPost
	VerbPut    Verb = http.MethodPut
	VerbPatch  Verb = http.MethodPatch
	VerbDelete Verb = http.MethodDelete
)

// ParseVerb parses a verb case-insensitively.
func ParseVerb(s string) (Verb, error) {
	verb := Verb(strings.ToUpper(strings.TrimSpace(s)))

	switch verb {
	case VerbGet, VerbPost, VerbPut, VerbPatch, VerbDelete:
		return verb, nil
	default:
		return "", fmt.Errorf("%w: unsupported verb %q", ErrConfiguration, s)
	}
}

// String implements fmt.Stringer.
func (v Verb) String() string {
	return string(v)
}

// CarriesBody reports whether request bodies are shown for this verb in error messages.
func (v Verb) CarriesBody() bool {
	return v == VerbPost || v == VerbPut || v == VerbPatch
}

// Request is a fully resolved HTTP request about to be sent by a Transport.
type Request struct {
	// Resource is the dotted mapping path that produced this request.
	Resource string
	Method   Verb
	// URL is the base URL joined with the built path, without query string.
	URL     string
	Headers http.Header
	Query   url.Values
	// Body is the JSON-encoded call "data", nil when no data was given.
	Body     []byte
	Metadata map[string]interface{}
}

// FullURL returns the URL including the encoded query string.
func (r *Request) FullURL() string {
	if len(r.Query) == 0 {
		return r.URL
	}

	separator := "?"
	if strings.Contains(r.URL, "?") {
		separator = "&"
	}

	return r.URL + separator + r.Query.Encode()
}

// Response is the raw HTTP response returned to the caller.
type Response struct {
	StatusCode int
	// Status is the full status line text, e.g. "201 Created".
	Status  string
	Headers http.Header
	Body    []byte
	Request *Request
	// Error is set only when the transport failed; interceptors see it.
	Error error
}

// Reason returns the reason phrase of the status line.
func (r *Response) Reason() string {
	code := strconv.Itoa(r.StatusCode)
	if reason := strings.TrimSpace(strings.TrimPrefix(r.Status, code)); reason != "" {
		return reason
	}

	return http.StatusText(r.StatusCode)
}

// JSON decodes the response body into v.
func (r *Response) JSON(v interface{}) error {
	err := json.Unmarshal(r.Body, v)
	if err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}

	return nil
}

// String returns the body as text.
func (r *Response) String() string {
	return string(r.Body)
}

// Transport issues HTTP requests. It is the external HTTP collaborator:
// timeouts, retries and TLS belong to its configuration, not to the dispatcher.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Do implements Transport.
func (f TransportFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type noopLogger struct{}

func (noopLogger) Debug(string, map[string]interface{}) {}
func (noopLogger) Info(string, map[string]interface{})  {}
func (noopLogger) Warn(string, map[string]interface{})  {}
func (noopLogger) Error(string, map[string]interface{}) {}
