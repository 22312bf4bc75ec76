package fulfilclient

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/fulfil-client/internal/client"
	"github.com/fivetwenty-io/fulfil-client/pkg/fulfil"
)

// TPLTransport is the transport returned by NewTPL. The 3PL API also
// accepts PATCH requests.
type TPLTransport interface {
	fulfil.Transport
	Patch(ctx context.Context, path string, body interface{}) (*fulfil.Response, error)
}

// New creates a Fulfil client for the merchant API.
func New(config *fulfil.Config, opts ...fulfil.Option) (*fulfil.Client, error) {
	transport, err := client.NewMerchantTransport(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	clientOpts := []fulfil.Option{
		fulfil.WithLogger(config.Logger),
		fulfil.WithCacheScope(transport.BaseURL()),
	}

	if config.WireFormat != nil {
		clientOpts = append(clientOpts, fulfil.WithWireFormat(config.WireFormat))
	}

	if config.Cache != nil && config.Cache.Type != fulfil.CacheTypeNone {
		cache, err := fulfil.NewCacheFromConfig(config.Cache)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache: %w", err)
		}

		clientOpts = append(clientOpts, fulfil.WithCache(cache, config.Cache.TTL()))
	}

	clientOpts = append(clientOpts, opts...)

	cli, err := fulfil.NewClient(transport, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return cli, nil
}

// NewWithToken creates a client for merchantID using a personal access token.
func NewWithToken(merchantID, token string) (*fulfil.Client, error) {
	return New(&fulfil.Config{
		MerchantID:  merchantID,
		AccessToken: token,
		TokenType:   fulfil.TokenTypePersonal,
	})
}

// NewWithOAuthToken creates a client for merchantID using an OAuth token.
func NewWithOAuthToken(merchantID, token string) (*fulfil.Client, error) {
	return New(&fulfil.Config{
		MerchantID:  merchantID,
		AccessToken: token,
		TokenType:   fulfil.TokenTypeOAuth,
	})
}

// NewTPL creates a transport for the 3PL carrier API.
func NewTPL(config *fulfil.Config) (TPLTransport, error) {
	transport, err := client.NewTPLTransport(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create 3PL transport: %w", err)
	}

	return transport, nil
}

