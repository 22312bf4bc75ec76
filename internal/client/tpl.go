package client

import (
	"fmt"

	"github.com/fivetwenty-io/fulfil-client/internal/auth"
	"github.com/fivetwenty-io/fulfil-client/internal/constants"
	internalhttp "github.com/fivetwenty-io/fulfil-client/internal/http"
	"github.com/fivetwenty-io/fulfil-client/pkg/fulfil"
)

// NewTPLTransport creates the transport for the 3PL carrier API rooted at
// services/3pl/<version>/. Blank GET parameters are dropped.
func NewTPLTransport(config *fulfil.Config) (*Transport, error) {
	if config == nil {
		return nil, constants.ErrConfigRequired
	}

	cfg := config.WithDefaults()

	if cfg.TPL == nil || cfg.TPL.AuthToken == "" {
		return nil, constants.ErrTPLAuthTokenRequired
	}

	merchantID := cfg.TPL.MerchantID
	if merchantID == "" {
		merchantID = cfg.MerchantID
	}

	if merchantID == "" && cfg.BaseURL == "" {
		return nil, constants.ErrMerchantIDRequired
	}

	version := cfg.TPL.APIVersion
	if version == "" {
		version = constants.DefaultTPLAPIVersion
	}

	tokenManager, err := auth.NewBearerTokenManager(cfg.TPL.AuthToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create 3PL token manager: %w", err)
	}

	baseURL, err := endpoint(cfg.BaseURL, merchantID)
	if err != nil {
		return nil, err
	}

	return &Transport{
		httpClient:    internalhttp.NewClient(baseURL, tokenManager, httpOptions(&cfg)...),
		prefix:        "services/3pl/" + version + "/",
		merchantID:    merchantID,
		dropBlankArgs: true,
	}, nil
}
