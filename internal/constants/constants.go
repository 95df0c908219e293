package constants

import "time"

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for a single HTTP attempt.
	DefaultHTTPTimeout = 30 * time.Second
)

// Retry limits. Retries are opt-in; the dispatcher itself never retries.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 0

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Authentication.
const (
	// TokenExpirationBuffer is subtracted from a token's expiry when checking validity.
	TokenExpirationBuffer = 30 * time.Second

	// DefaultTokenType is the scheme prefixed to static tokens.
	DefaultTokenType = "Bearer"
)

// Client identification and logging.
const (
	// DefaultUserAgent is sent when the deployment sets no User-Agent.
	DefaultUserAgent = "mappedapi-go/1.0"

	// MaxLoggedBody caps the response bytes included in debug logs.
	MaxLoggedBody = 512

	// MaskedSecret replaces secrets in printed configuration.
	MaskedSecret = "***"
)

// Configuration.
const (
	// EnvPrefix prefixes every environment variable read by LoadConfig.
	EnvPrefix = "MAPPEDAPI"

	// DefaultConfigName is the config file base name searched for by the CLI.
	DefaultConfigName = "mappedapi"
)

// Output formats.
const (
	// FormatJSON selects JSON output.
	FormatJSON = "json"

	// FormatYAML selects YAML output.
	FormatYAML = "yaml"

	// FormatTable selects table output.
	FormatTable = "table"
)
