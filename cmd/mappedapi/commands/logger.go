package commands

import (
	"io"
	"sort"

	"github.com/hashicorp/go-hclog"
	"github.com/venuebook/mappedapi/pkg/mappedapi"
)

// hclogLogger backs mappedapi.Logger with go-hclog.
type hclogLogger struct {
	logger hclog.Logger
}

var _ mappedapi.Logger = (*hclogLogger)(nil)

// NewLogger creates the CLI logger. Verbose enables debug output.
func NewLogger(output io.Writer, verbose bool) mappedapi.Logger {
	level := hclog.Warn
	if verbose {
		level = hclog.Debug
	}

	return &hclogLogger{
		logger: hclog.New(&hclog.LoggerOptions{
			Name:   "mappedapi",
			Level:  level,
			Output: output,
		}),
	}
}

func (l *hclogLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, pairs(fields)...)
}

func (l *hclogLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, pairs(fields)...)
}

func (l *hclogLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, pairs(fields)...)
}

func (l *hclogLogger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, pairs(fields)...)
}

// pairs flattens fields into sorted key/value arguments.
func pairs(fields map[string]interface{}) []interface{} {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	out := make([]interface{}, 0, 2*len(keys))
	for _, key := range keys {
		out = append(out, key, fields[key])
	}

	return out
}
