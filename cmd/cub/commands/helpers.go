package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ivelum/cub-client/internal/auth"
	"github.com/ivelum/cub-client/internal/client"
	"github.com/ivelum/cub-client/internal/constants"
	"github.com/ivelum/cub-client/pkg/cub"
	"github.com/ivelum/cub-client/pkg/cubclient"
)

// summaryFields are tried in order to label an object in list tables.
var summaryFields = []string{"name", "username", "email", "domain", "subject", "url", "code"}

func validOutput(format string) bool {
	switch format {
	case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
		return true
	default:
		return false
	}
}

// outputFormat returns the requested output format, table by default.
func outputFormat() (string, error) {
	format := viper.GetString("output")
	if format == "" {
		return constants.FormatTable, nil
	}

	if !validOutput(format) {
		return "", fmt.Errorf("%w: %s", constants.ErrInvalidOutput, format)
	}

	return format, nil
}

// currentAPIURL returns the normalized API URL from flags, environment or
// config file.
func currentAPIURL() string {
	return cubclient.NormalizeAPIURL(viper.GetString("api_url"))
}

func newLogger() cub.Logger {
	level := slog.LevelWarn
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}

	return cub.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// CreateClient creates a client whose session token is read from and saved
// to the config file.
func CreateClient(ctx context.Context) (*client.Client, error) {
	config, err := loadConfig()
	if err != nil {
		return nil, err
	}

	apiURL := currentAPIURL()
	apiKey := viper.GetString("api_key")
	logger := newLogger()

	session := auth.NewSessionTokenManager(apiKey, config.Sessions[apiURL])
	tokenManager := auth.NewConfigTokenManager(session, NewConfigPersister(), apiURL, logger)

	cubClient, err := client.NewWithTokenManager(ctx, &cub.Config{
		APIURL:  apiURL,
		APIKey:  apiKey,
		Backend: viper.GetString("backend"),
		NATSURL: viper.GetString("nats_url"),
		Debug:   viper.GetBool("verbose"),
		Logger:  logger,
	}, tokenManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return cubClient, nil
}

// parseKeyValues turns KEY=VALUE arguments into Params, keeping their order.
func parseKeyValues(args []string) (cub.Params, error) {
	params := make(cub.Params, 0, len(args))

	for _, arg := range args {
		parts := strings.SplitN(arg, "=", constants.KeyValueParts)
		if len(parts) != constants.KeyValueParts || parts[0] == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidKeyValue, arg)
		}

		params = params.Set(parts[0], parts[1])
	}

	return params, nil
}

// toPlain converts decoded models into plain JSON values for the json and
// yaml encoders.
func toPlain(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal output: %w", err)
	}

	var plain any

	err = json.Unmarshal(data, &plain)
	if err != nil {
		return nil, fmt.Errorf("failed to convert output: %w", err)
	}

	return plain, nil
}

// renderValue writes value as JSON or YAML. It returns false for the table
// format, which the caller renders itself.
func renderValue(out io.Writer, format string, value any) (bool, error) {
	switch format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

		return true, encoder.Encode(value)
	case constants.FormatYAML:
		plain, err := toPlain(value)
		if err != nil {
			return true, err
		}

		return true, yaml.NewEncoder(out).Encode(plain)
	default:
		return false, nil
	}
}

func renderModels[T cub.Model](out io.Writer, models []T) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	if done, err := renderValue(out, format, models); done {
		return err
	}

	if len(models) == 0 {
		_, _ = fmt.Fprintln(out, "No objects found")

		return nil
	}

	table := tablewriter.NewWriter(out)
	table.Header("ID", "Kind", "Summary")

	for _, model := range models {
		_ = table.Append(model.ID(), model.Kind(), summarize(model.Base()))
	}

	err = table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func renderModel(out io.Writer, model cub.Model) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	if done, err := renderValue(out, format, model); done {
		return err
	}

	obj := model.Base()

	table := tablewriter.NewWriter(out)
	table.Header("Property", "Value")

	_ = table.Append("object", obj.Kind())
	_ = table.Append("id", obj.ID())

	for _, name := range obj.FieldNames() {
		if name == "id" || name == "object" {
			continue
		}

		value, _ := obj.Get(name)
		_ = table.Append(name, formatField(value))
	}

	err = table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func summarize(obj *cub.Object) string {
	for _, name := range summaryFields {
		if value, ok := obj.String(name); ok && value != "" {
			return value
		}
	}

	return ""
}

func formatField(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case cub.Model:
		return v.Kind() + " " + v.ID()
	case []any:
		return fmt.Sprintf("[%d items]", len(v))
	case map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}

		return string(data)
	default:
		return fmt.Sprint(v)
	}
}
