package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// API defaults.
const (
	// DefaultAPIURL is the production Cub API including the version prefix.
	DefaultAPIURL = "https://id.lexipol.com/v1"

	// DefaultUserAgent is sent when the configuration does not override it.
	DefaultUserAgent = "cub-client-go/" + Version

	// DefaultNATSSubject is the request subject of the NATS gateway.
	DefaultNATSSubject = "cub.api"

	// Version of the client library.
	Version = "1.0.0"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout of a single attempt.
	DefaultHTTPTimeout = 60 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry policy defaults.
const (
	// DefaultRetryMax is the number of retries after the first failed attempt.
	DefaultRetryMax = 3

	// DefaultRetryBaseDelay is the wait before the first retry.
	DefaultRetryBaseDelay = 200 * time.Millisecond

	// DefaultRetryMultiplier is the growth factor of consecutive waits.
	DefaultRetryMultiplier = 2.0

	// DefaultRetryWaitMax caps a single wait.
	DefaultRetryWaitMax = 30 * time.Second
)

// Request headers.
const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-Id"
	HeaderUserAgent     = "User-Agent"
	HeaderAccept        = "Accept"
	HeaderContentType   = "Content-Type"

	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// UI and display constants.
const (
	// CheckMarkSymbol is used to indicate current/active items.
	CheckMarkSymbol = "✓"

	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// JSONIndentSize is the number of spaces for JSON indentation.
	JSONIndentSize = 2
)

// Format constants.
const (
	// FormatTable for table output format.
	FormatTable = "table"

	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"
)

// Boolean string constants.
const (
	// BooleanTrue string representation.
	BooleanTrue = "true"

	// BooleanFalse string representation.
	BooleanFalse = "false"
)

// Command argument counts.
const (
	// MinimumArgumentCount is the minimum number of arguments of key/value commands.
	MinimumArgumentCount = 2

	// KeyValueParts is the number of parts of a KEY=VALUE argument.
	KeyValueParts = 2
)
