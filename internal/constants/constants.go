package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// API versions.
const (
	// DefaultAPIVersion is the merchant API version used when none is configured.
	DefaultAPIVersion = "v2"

	// DefaultTPLAPIVersion is the 3PL API version used when none is configured.
	DefaultTPLAPIVersion = "v1"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 5 * time.Second

	// ExtendedHTTPTimeout is used for export style commands.
	ExtendedHTTPTimeout = 45 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = time.Second
)

// Retry limits.
const (
	// DefaultRetryWaitMin is the minimum wait time between transport retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second

	// ExtendedRetryWaitMax is used for operations that need longer waits.
	ExtendedRetryWaitMax = 30 * time.Second
)

// Batching limits.
const (
	// DefaultBatchSize is the largest page the search endpoint returns.
	DefaultBatchSize = 500

	// DefaultBatchRetries is the number of rate-limit retries per batch window.
	DefaultBatchRetries = 5

	// DefaultCacheSize is the default number of entries kept by the memory cache.
	DefaultCacheSize = 1000

	// DefaultCacheTTL is how long shared count results stay valid.
	DefaultCacheTTL = 5 * time.Minute
)

// HTTP status codes commonly used.
const (
	// HTTPStatusOK represents a successful HTTP response.
	HTTPStatusOK = 200

	// HTTPStatusBadRequest represents a client error.
	HTTPStatusBadRequest = 400

	// HTTPStatusTooManyRequests is returned when the merchant is rate limited.
	HTTPStatusTooManyRequests = 429

	// HTTPStatusInternalServerError represents server errors.
	HTTPStatusInternalServerError = 500

	// HTTPStatusNotImplemented is never retried.
	HTTPStatusNotImplemented = 501
)

// Wire format defaults.
const (
	// DiscriminatorKey marks a tagged JSON value.
	DiscriminatorKey = "__class__"

	// Base64Key holds the payload of binary values.
	Base64Key = "base64"

	// ISOStringKey holds the payload of date, datetime, time and duration values.
	ISOStringKey = "iso_string"

	// DecimalKey holds the payload of decimal values.
	DecimalKey = "decimal"

	// ModelNameKey carries the model name in serialized resources.
	ModelNameKey = "model_name"
)

// Headers.
const (
	// HeaderAPIKey carries personal access tokens.
	HeaderAPIKey = "X-API-KEY"

	// HeaderAuthorization carries OAuth and 3PL bearer tokens.
	HeaderAuthorization = "Authorization"

	// HeaderRequestID identifies a single request in server logs.
	HeaderRequestID = "X-Request-ID"

	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "fulfil-client-go"
)

// Format constants.
const (
	// FormatTable for table output format.
	FormatTable = "table"

	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// JSONIndentSize is the number of spaces for JSON indentation.
	JSONIndentSize = 2
)

// Customer shipments.
const (
	// CustomerShipmentModel is the model name of outgoing customer shipments.
	CustomerShipmentModel = "stock.shipment.out"
)
