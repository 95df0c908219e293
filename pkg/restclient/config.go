package restclient

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
	"github.com/venuebook/mappedapi/internal/constants"
	"github.com/venuebook/mappedapi/pkg/mappedapi"
)

// Static errors for err113 compliance.
var (
	ErrInvalidURL = errors.New("must be an absolute http(s) URL")
)

// Config describes one API deployment: where it lives, how to
// authenticate and how the transport behaves.
type Config struct {
	BaseURL string `json:"base_url" mapstructure:"base_url" yaml:"base_url"`

	// Static token authentication.
	Token     string `json:"token,omitempty"      mapstructure:"token"      yaml:"token,omitempty"`
	TokenType string `json:"token_type,omitempty" mapstructure:"token_type" yaml:"token_type,omitempty"`

	// OAuth2 client credentials, used when Token is empty.
	ClientID     string   `json:"client_id,omitempty"     mapstructure:"client_id"     yaml:"client_id,omitempty"`
	ClientSecret string   `json:"client_secret,omitempty" mapstructure:"client_secret" yaml:"client_secret,omitempty"`
	TokenURL     string   `json:"token_url,omitempty"     mapstructure:"token_url"     yaml:"token_url,omitempty"`
	Scopes       []string `json:"scopes,omitempty"        mapstructure:"scopes"        yaml:"scopes,omitempty"`

	// Headers are sent on every call in addition to Authorization.
	Headers     map[string]string `json:"headers,omitempty"      mapstructure:"headers"      yaml:"headers,omitempty"`
	MappingFile string            `json:"mapping_file,omitempty" mapstructure:"mapping_file" yaml:"mapping_file,omitempty"`

	Timeout      time.Duration `json:"timeout"        mapstructure:"timeout"        yaml:"timeout"`
	RetryMax     int           `json:"retry_max"      mapstructure:"retry_max"      yaml:"retry_max"`
	RetryWaitMin time.Duration `json:"retry_wait_min" mapstructure:"retry_wait_min" yaml:"retry_wait_min"`
	RetryWaitMax time.Duration `json:"retry_wait_max" mapstructure:"retry_wait_max" yaml:"retry_wait_max"`
	UserAgent    string        `json:"user_agent"     mapstructure:"user_agent"     yaml:"user_agent"`
	Debug        bool          `json:"debug"          mapstructure:"debug"          yaml:"debug"`

	// RateLimit caps calls per second; zero disables limiting.
	RateLimit float64 `json:"rate_limit" mapstructure:"rate_limit" yaml:"rate_limit"`
}

// DefaultConfig returns a Config with the transport defaults filled in.
func DefaultConfig() *Config {
	return &Config{
		TokenType:    constants.DefaultTokenType,
		Timeout:      constants.DefaultHTTPTimeout,
		RetryMax:     constants.DefaultRetryMax,
		RetryWaitMin: constants.DefaultRetryWaitMin,
		RetryWaitMax: constants.DefaultRetryWaitMax,
		UserAgent:    constants.DefaultUserAgent,
	}
}

// Validate checks the configuration. Errors are reported per field.
func (c *Config) Validate() error {
	oauth := c.Token == "" && c.ClientID != ""

	err := validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&c.ClientSecret, validation.When(oauth, validation.Required)),
		validation.Field(&c.TokenURL, validation.When(oauth, validation.Required), validation.By(absoluteURL)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.RetryMax, validation.Min(0), validation.Max(10)),
		validation.Field(&c.RetryWaitMax, validation.When(c.RetryMax > 0, validation.Min(c.RetryWaitMin))),
		validation.Field(&c.RateLimit, validation.Min(0.0)),
	)
	if err != nil {
		return &mappedapi.ConfigurationError{Setting: "restclient config", Err: err}
	}

	return nil
}

// Redacted returns a copy with secrets masked, suitable for printing.
func (c *Config) Redacted() *Config {
	out := *c

	if out.Token != "" {
		out.Token = constants.MaskedSecret
	}

	if out.ClientSecret != "" {
		out.ClientSecret = constants.MaskedSecret
	}

	return &out
}

func absoluteURL(value interface{}) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return ErrInvalidURL
	}

	return nil
}

// LoadConfig reads a Config from v: the config file it points at or finds
// on its search paths, then MAPPEDAPI_* environment variables, which take
// precedence. A missing file on the search paths is not an error; a missing
// explicit file is.
func LoadConfig(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	defaults := DefaultConfig()

	// Every key needs a default so AutomaticEnv can resolve it on Unmarshal.
	v.SetDefault("base_url", "")
	v.SetDefault("token", "")
	v.SetDefault("token_type", defaults.TokenType)
	v.SetDefault("client_id", "")
	v.SetDefault("client_secret", "")
	v.SetDefault("token_url", "")
	v.SetDefault("scopes", []string{})
	v.SetDefault("mapping_file", "")
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("retry_max", defaults.RetryMax)
	v.SetDefault("retry_wait_min", defaults.RetryWaitMin)
	v.SetDefault("retry_wait_max", defaults.RetryWaitMax)
	v.SetDefault("user_agent", defaults.UserAgent)
	v.SetDefault("debug", false)
	v.SetDefault("rate_limit", 0.0)

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		notFound := viper.ConfigFileNotFoundError{}
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	config := &Config{}

	err = v.Unmarshal(config)
	if err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return config, nil
}
