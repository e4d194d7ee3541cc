package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ivelum/cub-client/internal/constants"
	"github.com/ivelum/cub-client/pkg/cub"
)

// ConfigDirName is the directory under $HOME holding config.yml.
const ConfigDirName = ".cub"

// Config represents the CLI configuration file.
type Config struct {
	APIURL  string `json:"api_url,omitempty"  yaml:"api_url,omitempty"`
	APIKey  string `json:"api_key,omitempty"  yaml:"api_key,omitempty"`
	Output  string `json:"output,omitempty"   yaml:"output,omitempty"`
	Backend string `json:"backend,omitempty"  yaml:"backend,omitempty"`
	NATSURL string `json:"nats_url,omitempty" yaml:"nats_url,omitempty"`

	// Sessions maps a normalized API URL to its session token.
	Sessions map[string]string `json:"sessions,omitempty" yaml:"sessions,omitempty"`
}

// configSetters lists the keys accepted by config set and config unset. An
// empty value unsets the key.
var configSetters = map[string]func(config *Config, value string) error{
	"api_url": func(config *Config, value string) error {
		config.APIURL = value

		return nil
	},
	"api_key": func(config *Config, value string) error {
		config.APIKey = value

		return nil
	},
	"output": func(config *Config, value string) error {
		if value != "" && !validOutput(value) {
			return constants.ErrInvalidOutput
		}

		config.Output = value

		return nil
	},
	"backend": func(config *Config, value string) error {
		switch value {
		case "", cub.BackendHTTP, cub.BackendResty, cub.BackendNATS:
			config.Backend = value

			return nil
		default:
			return fmt.Errorf("%w: %s", cub.ErrUnsupportedBackend, value)
		}
	},
	"nats_url": func(config *Config, value string) error {
		config.NATSURL = value

		return nil
	},
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "View and modify the CLI configuration stored in ~/.cub/config.yml",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current CLI configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			masked := maskConfig(config)

			format, err := outputFormat()
			if err != nil {
				return err
			}

			switch format {
			case constants.FormatJSON:
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

				return encoder.Encode(masked)
			case constants.FormatYAML:
				return yaml.NewEncoder(cmd.OutOrStdout()).Encode(masked)
			default:
				return displayConfigTable(cmd.OutOrStdout(), masked)
			}
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. Keys: " + strings.Join(configKeys(), ", "),
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := updateConfigValue(args[0], args[1])
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])

			return nil
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value. Keys: " + strings.Join(configKeys(), ", "),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := updateConfigValue(args[0], "")
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])

			return nil
		},
	}
}

func updateConfigValue(key, value string) error {
	setter, ok := configSetters[key]
	if !ok {
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	config, err := loadConfig()
	if err != nil {
		return err
	}

	err = setter(config, value)
	if err != nil {
		return err
	}

	return saveConfigStruct(config)
}

func configKeys() []string {
	keys := make([]string, 0, len(configSetters))
	for key := range configSetters {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	return keys
}

// configFilePath returns the file viper read, or ~/.cub/config.yml when none
// was found.
func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ConfigDirName, "config.yml"), nil
}

// loadConfig reads the configuration file. A missing file yields an empty
// configuration.
func loadConfig() (*Config, error) {
	configFile, err := configFilePath()
	if err != nil {
		return nil, err
	}

	config := &Config{}

	// #nosec G304 -- the path comes from the --config flag or the home directory
	data, err := os.ReadFile(configFile)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if len(config.Sessions) == 0 {
		config.Sessions = nil
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func maskConfig(config *Config) *Config {
	masked := *config
	masked.APIKey = maskSecret(config.APIKey)

	if len(config.Sessions) > 0 {
		masked.Sessions = make(map[string]string, len(config.Sessions))
		for apiURL, token := range config.Sessions {
			masked.Sessions[apiURL] = maskSecret(token)
		}
	}

	return &masked
}

func maskSecret(value string) string {
	if value == "" {
		return ""
	}

	return constants.MaskedSecret
}

func displayConfigTable(out io.Writer, config *Config) error {
	table := tablewriter.NewWriter(out)
	table.Header("Property", "Value")

	_ = table.Append("API URL", formatConfigValue(config.APIURL))
	_ = table.Append("API Key", formatConfigValue(config.APIKey))
	_ = table.Append("Output", formatConfigValue(config.Output))
	_ = table.Append("Backend", formatConfigValue(config.Backend))
	_ = table.Append("NATS URL", formatConfigValue(config.NATSURL))

	current := currentAPIURL()

	apiURLs := make([]string, 0, len(config.Sessions))
	for apiURL := range config.Sessions {
		apiURLs = append(apiURLs, apiURL)
	}

	slices.Sort(apiURLs)

	for _, apiURL := range apiURLs {
		label := "Session " + apiURL
		if apiURL == current {
			label += " " + constants.CheckMarkSymbol
		}

		_ = table.Append(label, config.Sessions[apiURL])
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func formatConfigValue(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}
