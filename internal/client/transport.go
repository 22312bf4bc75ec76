// Package client implements fulfil.Transport for the merchant and 3PL APIs.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fivetwenty-io/fulfil-client/internal/auth"
	"github.com/fivetwenty-io/fulfil-client/internal/constants"
	internalhttp "github.com/fivetwenty-io/fulfil-client/internal/http"
	"github.com/fivetwenty-io/fulfil-client/pkg/fulfil"
)

const (
	TraceAttributeMerchant = "fulfil.merchant"
	TraceAttributePath     = "fulfil.path"
	TraceAttributeStatus   = "http.status_code"
)

var tracer = otel.Tracer("fulfil-client/transport")

// Transport sends model relative requests below a fixed path prefix.
type Transport struct {
	httpClient    *internalhttp.Client
	prefix        string
	merchantID    string
	dropBlankArgs bool
}

// NewMerchantTransport creates the transport for /api/<version>/ requests.
func NewMerchantTransport(config *fulfil.Config) (*Transport, error) {
	if config == nil {
		return nil, constants.ErrConfigRequired
	}

	cfg := config.WithDefaults()

	if cfg.AccessToken == "" {
		return nil, constants.ErrNoAccessToken
	}

	tokenManager, err := auth.NewTokenManager(auth.AccessToken{Value: cfg.AccessToken, Type: string(cfg.TokenType)})
	if err != nil {
		return nil, fmt.Errorf("failed to create token manager: %w", err)
	}

	baseURL, err := endpoint(cfg.BaseURL, cfg.MerchantID)
	if err != nil {
		return nil, err
	}

	return &Transport{
		httpClient: internalhttp.NewClient(baseURL, tokenManager, httpOptions(&cfg)...),
		prefix:     "api/" + cfg.APIVersion + "/",
		merchantID: cfg.MerchantID,
	}, nil
}

// endpoint returns baseURL when set, or the merchant's fulfil.io host.
func endpoint(baseURL, merchantID string) (string, error) {
	if baseURL != "" {
		baseURL = strings.TrimSuffix(baseURL, "/")
		if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
			baseURL = "https://" + baseURL
		}

		return baseURL, nil
	}

	if merchantID == "" {
		return "", constants.ErrMerchantIDRequired
	}

	return "https://" + merchantID + ".fulfil.io", nil
}

// httpOptions builds HTTP client options from config.
func httpOptions(config *fulfil.Config) []internalhttp.Option {
	httpOpts := []internalhttp.Option{
		internalhttp.WithTimeout(config.HTTPTimeout),
		internalhttp.WithUserAgent(config.UserAgent),
	}

	if config.Logger != nil {
		httpOpts = append(httpOpts, internalhttp.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, internalhttp.WithDebug(true))
	}

	if config.RetryMax > 0 {
		httpOpts = append(httpOpts, internalhttp.WithRetryConfig(config.RetryMax, config.RetryWaitMin, config.RetryWaitMax))
	}

	return httpOpts
}

// BaseURL returns the scheme and host requests are sent to.
func (t *Transport) BaseURL() string {
	return t.httpClient.BaseURL()
}

// Get implements fulfil.Transport.
func (t *Transport) Get(ctx context.Context, path string, query url.Values) (*fulfil.Response, error) {
	if t.dropBlankArgs {
		query = withoutBlankValues(query)
	}

	return t.call(ctx, &internalhttp.Request{Method: http.MethodGet, Path: t.expand(path), Query: query})
}

// Post implements fulfil.Transport.
func (t *Transport) Post(ctx context.Context, path string, body interface{}) (*fulfil.Response, error) {
	return t.call(ctx, &internalhttp.Request{Method: http.MethodPost, Path: t.expand(path), Body: body})
}

// Put implements fulfil.Transport.
func (t *Transport) Put(ctx context.Context, path string, body interface{}) (*fulfil.Response, error) {
	return t.call(ctx, &internalhttp.Request{Method: http.MethodPut, Path: t.expand(path), Body: body})
}

// Patch sends a PATCH request. Only the 3PL API accepts it.
func (t *Transport) Patch(ctx context.Context, path string, body interface{}) (*fulfil.Response, error) {
	return t.call(ctx, &internalhttp.Request{Method: http.MethodPatch, Path: t.expand(path), Body: body})
}

// Delete implements fulfil.Transport.
func (t *Transport) Delete(ctx context.Context, path string) (*fulfil.Response, error) {
	return t.call(ctx, &internalhttp.Request{Method: http.MethodDelete, Path: t.expand(path)})
}

// expand joins the prefix and path, collapsing duplicate slashes.
func (t *Transport) expand(path string) string {
	joined := "/" + t.prefix + strings.TrimPrefix(path, "/")
	for strings.Contains(joined, "//") {
		joined = strings.ReplaceAll(joined, "//", "/")
	}

	return joined
}

func (t *Transport) call(ctx context.Context, req *internalhttp.Request) (*fulfil.Response, error) {
	var err error

	ctx, span := tracer.Start(ctx, strings.ToLower(req.Method)+"-model",
		trace.WithAttributes(attribute.String(TraceAttributeMerchant, t.merchantID)),
		trace.WithAttributes(attribute.String(TraceAttributePath, req.Path)),
	)
	defer func() { recordAndEnd(err, span) }()

	resp, err := t.httpClient.Do(ctx, req)
	if resp != nil {
		span.SetAttributes(attribute.Int(TraceAttributeStatus, resp.StatusCode))
	}

	if err != nil {
		// *fulfil.TransportError is returned as is so callers can inspect it.
		return nil, err //nolint:wrapcheck
	}

	return &fulfil.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
	}, nil
}

func recordAndEnd(err error, span trace.Span) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()
}

func withoutBlankValues(query url.Values) url.Values {
	if len(query) == 0 {
		return query
	}

	filtered := url.Values{}

	for key, values := range query {
		for _, value := range values {
			if strings.TrimSpace(value) != "" {
				filtered.Add(key, value)
			}
		}
	}

	return filtered
}
