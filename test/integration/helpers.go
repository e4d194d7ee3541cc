//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	APIURL   string
	APIKey   string
	Username string
	Password string
	NATSURL  string
	CubPath  string
	Verbose  bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		APIURL:   os.Getenv("CUB_API_URL"),
		APIKey:   os.Getenv("CUB_API_KEY"),
		Username: os.Getenv("CUB_USERNAME"),
		Password: os.Getenv("CUB_PASSWORD"),
		NATSURL:  os.Getenv("CUB_NATS_URL"),
		CubPath:  getCubPath(),
		Verbose:  os.Getenv("CUB_VERBOSE") == "true",
	}
}

// getCubPath determines the path to the cub binary
func getCubPath() string {
	if path := os.Getenv("CUB_BINARY_PATH"); path != "" {
		return path
	}

	candidates := []string{
		"../../cub",
		"./cub",
		"../cub",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "cub" // Fallback to PATH
}

// SkipIfMissingAPIKey skips the test without credentials.
func (config *TestConfig) SkipIfMissingAPIKey(t *testing.T) {
	t.Helper()

	if config.APIKey == "" {
		t.Skip("CUB_API_KEY not set, skipping integration test")
	}
}

// SkipIfMissingUser skips the test without user credentials.
func (config *TestConfig) SkipIfMissingUser(t *testing.T) {
	t.Helper()
	config.SkipIfMissingAPIKey(t)

	if config.Username == "" || config.Password == "" {
		t.Skip("CUB_USERNAME or CUB_PASSWORD not set, skipping integration test")
	}
}

// SkipIfMissingBinary skips the test when the cub binary is not built.
func (config *TestConfig) SkipIfMissingBinary(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath(config.CubPath); err != nil {
		t.Skipf("cub binary not found at %s, skipping integration test", config.CubPath)
	}
}

// CommandRunner runs the cub binary against an isolated config file.
type CommandRunner struct {
	config     *TestConfig
	configFile string
	t          *testing.T
}

// NewCommandRunner creates a new command runner
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	t.Helper()

	return &CommandRunner{
		config:     config,
		configFile: filepath.Join(t.TempDir(), "config.yml"),
		t:          t,
	}
}

// Run executes a cub command and returns output
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	return runner.RunWithInput("", args...)
}

// RunWithInput executes a cub command with stdin input
func (runner *CommandRunner) RunWithInput(input string, args ...string) (stdout, stderr string, err error) {
	args = append([]string{"--config", runner.configFile}, args...)

	// #nosec G204 -- the binary path comes from the test environment
	cmd := exec.Command(runner.config.CubPath, args...)
	cmd.Env = append(os.Environ(), "CUB_API_KEY="+runner.config.APIKey)

	if runner.config.APIURL != "" {
		cmd.Env = append(cmd.Env, "CUB_API_URL="+runner.config.APIURL)
	}

	var stdoutBuf, stderrBuf bytes.Buffer

	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	cmd.Stdin = strings.NewReader(input)

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.CubPath, strings.Join(args, " "))
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

	if !json.Valid([]byte(strings.TrimSpace(output))) {
		t.Errorf("Output is not JSON: %s", output)
	}
}

// AssertYAMLOutput verifies command output is valid YAML
func AssertYAMLOutput(t *testing.T, output string) {
	t.Helper()

	var value any

	if err := yaml.Unmarshal([]byte(output), &value); err != nil || value == nil {
		t.Errorf("Output is not YAML: %s", output)
	}
}
