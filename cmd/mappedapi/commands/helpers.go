package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/venuebook/mappedapi/internal/constants"
	"github.com/venuebook/mappedapi/pkg/mappedapi"
	"github.com/venuebook/mappedapi/pkg/restclient"
	"gopkg.in/yaml.v3"
)

// JSON formatting.
const defaultJSONIndent = 2

// parseKeyValues turns repeated "key=value" flags into a map.
func parseKeyValues(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidKeyValue, pair)
		}

		values[strings.TrimSpace(key)] = value
	}

	return values, nil
}

// parseData decodes a --data value: inline JSON, or @path to read a file.
func parseData(raw string) (interface{}, error) {
	if raw == "" {
		return nil, nil
	}

	content := []byte(raw)

	if strings.HasPrefix(raw, "@") {
		var err error

		content, err = os.ReadFile(filepath.Clean(strings.TrimPrefix(raw, "@")))
		if err != nil {
			return nil, fmt.Errorf("reading data file: %w", err)
		}
	}

	var data interface{}

	err := json.Unmarshal(content, &data)
	if err != nil {
		return nil, fmt.Errorf("parsing data as JSON: %w", err)
	}

	return data, nil
}

// loadConfig reads the client configuration from viper (flags, file, env).
func loadConfig() (*restclient.Config, error) {
	config, err := restclient.LoadConfig(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return config, nil
}

// loadMapping reads the mapping named by path, or by the configured mapping file.
func loadMapping(path string) (mappedapi.Mapping, error) {
	if path == "" {
		path = viper.GetString("mapping_file")
	}

	if path == "" {
		return nil, constants.ErrNoMappingFile
	}

	return mappedapi.LoadMappingFile(path)
}

// outputFormat returns the selected output format.
func outputFormat() (string, error) {
	format := viper.GetString("output")
	if format == "" {
		format = constants.FormatTable
	}

	switch format {
	case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("%w: %s", constants.ErrUnsupportedFormat, format)
	}
}

// writeStructured writes value as JSON or YAML.
func writeStructured(w io.Writer, format string, value interface{}) error {
	switch format {
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)
		defer func() { _ = encoder.Close() }()

		return encoder.Encode(value)
	default:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", strings.Repeat(" ", defaultJSONIndent))

		return encoder.Encode(value)
	}
}

// prettyBody indents JSON bodies and returns anything else unchanged.
func prettyBody(body []byte) string {
	var out bytes.Buffer

	err := json.Indent(&out, body, "", strings.Repeat(" ", defaultJSONIndent))
	if err != nil {
		return string(body)
	}

	return out.String()
}
