//go:build integration

package integration

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	BaseURL     string
	Token       string
	MappingFile string
	// ReadPath is a dotted GET path that succeeds without ids, e.g. "dogs.list".
	ReadPath   string
	BinaryPath string
	Verbose    bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	mappingFile := os.Getenv("MAPPEDAPI_IT_MAPPING_FILE")
	if mappingFile == "" {
		mappingFile = filepath.Join("..", "..", "examples", "dogs", "mapping.yml")
	}

	return &TestConfig{
		BaseURL:     os.Getenv("MAPPEDAPI_IT_BASE_URL"),
		Token:       os.Getenv("MAPPEDAPI_IT_TOKEN"),
		MappingFile: absolute(mappingFile),
		ReadPath:    os.Getenv("MAPPEDAPI_IT_READ_PATH"),
		BinaryPath:  getBinaryPath(),
		Verbose:     os.Getenv("MAPPEDAPI_IT_VERBOSE") == "true",
	}
}

// getBinaryPath determines the path to the mappedapi binary
func getBinaryPath() string {
	if path := os.Getenv("MAPPEDAPI_BINARY_PATH"); path != "" {
		return absolute(path)
	}

	// Try common locations
	candidates := []string{
		"../../mappedapi",
		"./mappedapi",
		"../mappedapi",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return absolute(candidate)
		}
	}

	return "mappedapi" // Fallback to PATH
}

// absolute resolves path so commands can run from a scratch directory.
func absolute(path string) string {
	if !strings.ContainsRune(path, filepath.Separator) {
		return path
	}

	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}

	return path
}

// SkipIfMissingBinary skips the test when the CLI has not been built.
func (config *TestConfig) SkipIfMissingBinary(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath(config.BinaryPath); err != nil {
		t.Skipf("mappedapi binary not found at %s, skipping integration test", config.BinaryPath)
	}
}

// SkipIfMissingAPI skips tests that need a live API.
func (config *TestConfig) SkipIfMissingAPI(t *testing.T) {
	t.Helper()

	config.SkipIfMissingBinary(t)

	if config.BaseURL == "" || config.ReadPath == "" {
		t.Skip("MAPPEDAPI_IT_BASE_URL or MAPPEDAPI_IT_READ_PATH not set, skipping integration test")
	}
}

// CommandRunner provides utilities for running mappedapi commands
type CommandRunner struct {
	config *TestConfig
	t      *testing.T
}

// NewCommandRunner creates a new command runner
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	return &CommandRunner{
		config: config,
		t:      t,
	}
}

// Run executes a mappedapi command with the configured mapping and target.
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	global := []string{"--mapping", runner.config.MappingFile}

	if runner.config.BaseURL != "" {
		global = append(global, "--base-url", runner.config.BaseURL)
	}

	if runner.config.Token != "" {
		global = append(global, "--token", runner.config.Token)
	}

	return runner.RunRaw(append(args, global...)...)
}

// RunRaw executes a mappedapi command exactly as given.
func (runner *CommandRunner) RunRaw(args ...string) (stdout, stderr string, err error) {
	cmd := exec.Command(runner.config.BinaryPath, args...)

	var stdoutBuf, stderrBuf bytes.Buffer

	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	// Keep a developer's config file and environment out of the run.
	cmd.Dir = runner.t.TempDir()
	cmd.Env = []string{"HOME=" + cmd.Dir, "PATH=" + os.Getenv("PATH")}

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.BinaryPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// AssertJSONOutput verifies command output is valid JSON
func AssertJSONOutput(t *testing.T, output string) {
	t.Helper()

	output = strings.TrimSpace(output)
	if !strings.HasPrefix(output, "{") && !strings.HasPrefix(output, "[") {
		t.Errorf("Output does not appear to be JSON: %s", output)
	}
}

// AssertYAMLOutput verifies command output is valid YAML
func AssertYAMLOutput(t *testing.T, output string) {
	t.Helper()

	output = strings.TrimSpace(output)
	if strings.Contains(output, "---") || strings.Contains(output, ":") {
		return // Looks like YAML
	}

	t.Errorf("Output does not appear to be YAML: %s", output)
}
