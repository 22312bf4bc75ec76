package fulfil

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/fivetwenty-io/fulfil-client/internal/constants"
)

// Response is a raw API response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Transport issues requests against model-relative paths such as
// "model/sale.sale/search_read". Implementations return a *TransportError
// for non-success responses.
type Transport interface {
	Get(ctx context.Context, path string, query url.Values) (*Response, error)
	Post(ctx context.Context, path string, body interface{}) (*Response, error)
	Put(ctx context.Context, path string, body interface{}) (*Response, error)
	Delete(ctx context.Context, path string) (*Response, error)
}

// Client is the entry point for queries and resource persistence.
type Client struct {
	transport  Transport
	logger     Logger
	caster     *Caster
	cache      Cache
	cacheTTL   time.Duration
	cacheScope string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for queries and counts.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCache shares count results between relations through cache.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// WithCacheScope keeps shared counts of different accounts apart when they
// use the same cache. fulfilclient scopes by the API base URL, which names
// the merchant.
func WithCacheScope(scope string) Option {
	return func(c *Client) {
		c.cacheScope = scope
	}
}

// WithWireFormat overrides the reserved keys of tagged values.
func WithWireFormat(format *WireFormat) Option {
	return func(c *Client) {
		c.caster = NewCaster(format)
	}
}

// WithInterceptors runs chain around every transport call.
func WithInterceptors(chain *InterceptorChain) Option {
	return func(c *Client) {
		if chain != nil {
			c.transport = &interceptedTransport{next: c.transport, chain: chain}
		}
	}
}

// NewClient creates a client on top of transport.
func NewClient(transport Transport, opts ...Option) (*Client, error) {
	if transport == nil {
		return nil, ErrTransportNil
	}

	client := &Client{
		transport: transport,
		logger:    NoopLogger(),
		caster:    NewCaster(nil),
		cacheTTL:  constants.DefaultCacheTTL,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Transport returns the underlying transport.
func (c *Client) Transport() Transport {
	return c.transport
}

// Query returns an empty relation bound to the client.
func (c *Client) Query() *Relation {
	return newRelation(c)
}

// Model returns a relation over modelName.
func (c *Client) Model(modelName string) *Relation {
	return c.Query().Set(modelName)
}

// NewResource builds a resource attached to the client.
func (c *Client) NewResource(modelName string, attrs map[string]any) (*Resource, error) {
	resource, err := newResource(c.caster, modelName, attrs)
	if err != nil {
		return nil, err
	}

	resource.client = c

	return resource, nil
}

// UpdateResource writes attrs to the record id of modelName.
func (c *Client) UpdateResource(ctx context.Context, modelName string, id int64, attrs map[string]any) (*Resource, error) {
	resource, err := c.NewResource(modelName, attrs)
	if err != nil {
		return nil, err
	}

	resource.attributes = c.caster.AssignAttribute(resource.attributes, "id", id)

	err = resource.Save(ctx)
	if err != nil {
		return resource, err
	}

	return resource, nil
}

// CustomerShipments returns the outbound shipment actions.
func (c *Client) CustomerShipments() *CustomerShipments {
	return &CustomerShipments{client: c}
}
