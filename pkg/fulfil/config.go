package fulfil

import (
	"time"

	"github.com/fivetwenty-io/fulfil-client/internal/constants"
)

// TokenType selects how an access token is sent to the API.
type TokenType string

const (
	// TokenTypePersonal sends the token as X-API-KEY.
	TokenTypePersonal TokenType = "personal"

	// TokenTypeOAuth sends the token as a Bearer authorization.
	TokenTypeOAuth TokenType = "oauth"
)

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a fulfil.Client.
//
// Config is a plain value. Nothing in this module keeps a process wide or
// per-goroutine copy of it; pass it to fulfilclient.New for every client.
//
// # Endpoint
//
// Requests go to https://<MerchantID>.fulfil.io/api/<APIVersion>/ unless
// BaseURL is set, in which case BaseURL replaces the scheme and host.
//
// # Retries
//
// The transport retries connection failures and 5xx responses only when
// RetryMax > 0. Rate limited responses (429) are never retried by the
// transport; batch iteration owns that policy.
type Config struct {
	// MerchantID is the merchant subdomain.
	MerchantID string
	// APIVersion defaults to "v2".
	APIVersion string
	// BaseURL overrides the merchant URL, e.g. for a fulfiltest server.
	BaseURL string

	// AccessToken authenticates every request.
	AccessToken string
	// TokenType selects the header used for AccessToken. Defaults to personal.
	TokenType TokenType

	// HTTPTimeout bounds a single HTTP exchange. Defaults to 5s.
	HTTPTimeout time.Duration
	// RetryMax is the number of transport retries for 5xx and connection errors.
	RetryMax int
	// RetryWaitMin is the minimum backoff between transport retries.
	RetryWaitMin time.Duration
	// RetryWaitMax is the maximum backoff between transport retries.
	RetryWaitMax time.Duration

	// UserAgent overrides the default User-Agent header.
	UserAgent string
	// Debug enables request/response logging when a Logger is provided.
	Debug bool
	// Logger is used by the transport and the query engine.
	Logger Logger

	// WireFormat names the reserved keys of tagged values. Nil means defaults.
	WireFormat *WireFormat
	// Cache optionally shares count results between relations.
	Cache *CacheConfig
	// TPL configures the 3PL API transport.
	TPL *TPLConfig
}

// TPLConfig configures access to the 3PL API.
type TPLConfig struct {
	// AuthToken is required.
	AuthToken string
	// MerchantID falls back to Config.MerchantID.
	MerchantID string
	// APIVersion defaults to "v1".
	APIVersion string
}

// WithDefaults returns a copy of the configuration with defaults applied.
func (c Config) WithDefaults() Config {
	if c.APIVersion == "" {
		c.APIVersion = constants.DefaultAPIVersion
	}

	if c.TokenType == "" {
		c.TokenType = TokenTypePersonal
	}

	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = constants.DefaultHTTPTimeout
	}

	if c.RetryMax > 0 {
		if c.RetryWaitMin <= 0 {
			c.RetryWaitMin = constants.DefaultRetryWaitMin
		}

		if c.RetryWaitMax <= 0 {
			c.RetryWaitMax = constants.ExtendedRetryWaitMax
		}
	}

	if c.UserAgent == "" {
		c.UserAgent = constants.DefaultUserAgent
	}

	return c
}
