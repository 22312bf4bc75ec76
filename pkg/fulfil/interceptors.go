package fulfil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Call describes one transport call seen by interceptors.
type Call struct {
	Method   string
	Path     string
	Query    url.Values
	Body     interface{}
	Metadata map[string]interface{}
}

// RequestInterceptor is called before a transport call.
type RequestInterceptor func(ctx context.Context, call *Call) error

// ResponseInterceptor is called after a transport call. resp is nil when the
// transport failed without a response.
type ResponseInterceptor func(ctx context.Context, call *Call, resp *Response, err error) error

// InterceptorChain manages a chain of interceptors.
type InterceptorChain struct {
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
}

// NewInterceptorChain creates a new interceptor chain.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{
		requestInterceptors:  make([]RequestInterceptor, 0),
		responseInterceptors: make([]ResponseInterceptor, 0),
	}
}

// AddRequestInterceptor adds a request interceptor to the chain.
func (c *InterceptorChain) AddRequestInterceptor(interceptor RequestInterceptor) *InterceptorChain {
	c.requestInterceptors = append(c.requestInterceptors, interceptor)

	return c
}

// AddResponseInterceptor adds a response interceptor to the chain.
func (c *InterceptorChain) AddResponseInterceptor(interceptor ResponseInterceptor) *InterceptorChain {
	c.responseInterceptors = append(c.responseInterceptors, interceptor)

	return c
}

// ExecuteRequestInterceptors runs all request interceptors.
func (c *InterceptorChain) ExecuteRequestInterceptors(ctx context.Context, call *Call) error {
	for _, interceptor := range c.requestInterceptors {
		err := interceptor(ctx, call)
		if err != nil {
			return fmt.Errorf("request interceptor failed: %w", err)
		}
	}

	return nil
}

// ExecuteResponseInterceptors runs all response interceptors.
func (c *InterceptorChain) ExecuteResponseInterceptors(ctx context.Context, call *Call, resp *Response, callErr error) error {
	for _, interceptor := range c.responseInterceptors {
		err := interceptor(ctx, call, resp, callErr)
		if err != nil {
			return fmt.Errorf("response interceptor failed: %w", err)
		}
	}

	return nil
}

// LoggingInterceptor logs calls.
func LoggingInterceptor(logger Logger) RequestInterceptor {
	return func(ctx context.Context, call *Call) error {
		logger.Debug("API Request", map[string]interface{}{
			"method": call.Method,
			"path":   call.Path,
		})

		return nil
	}
}

// LoggingResponseInterceptor logs responses.
func LoggingResponseInterceptor(logger Logger) ResponseInterceptor {
	return func(ctx context.Context, call *Call, resp *Response, err error) error {
		fields := map[string]interface{}{
			"method":      call.Method,
			"path":        call.Path,
			"status_code": responseStatus(resp, err),
		}

		if err != nil {
			fields["error"] = err.Error()
			logger.Error("API Response Error", fields)
		} else {
			logger.Debug("API Response", fields)
		}

		return nil
	}
}

// Metrics holds call statistics of one endpoint.
type Metrics struct {
	TotalRequests   int64
	TotalErrors     int64
	RateLimited     int64
	TotalLatency    time.Duration
	AverageLatency  time.Duration
	LastRequestTime time.Time
}

// MetricsCollector collects API metrics per "METHOD path".
type MetricsCollector struct {
	mu      sync.Mutex
	metrics map[string]*Metrics
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics: make(map[string]*Metrics),
	}
}

// GetMetrics returns a copy of the metrics for an endpoint.
func (m *MetricsCollector) GetMetrics(endpoint string) *Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	if metrics, ok := m.metrics[endpoint]; ok {
		snapshot := *metrics

		return &snapshot
	}

	return nil
}

// Endpoints returns every endpoint seen so far.
func (m *MetricsCollector) Endpoints() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	endpoints := make([]string, 0, len(m.metrics))
	for endpoint := range m.metrics {
		endpoints = append(endpoints, endpoint)
	}

	return endpoints
}

// MetricsRequestInterceptor records the call start time.
func MetricsRequestInterceptor(collector *MetricsCollector) RequestInterceptor {
	return func(ctx context.Context, call *Call) error {
		if call.Metadata == nil {
			call.Metadata = make(map[string]interface{})
		}

		call.Metadata["start_time"] = time.Now()

		return nil
	}
}

// MetricsResponseInterceptor records response metrics.
func MetricsResponseInterceptor(collector *MetricsCollector) ResponseInterceptor {
	return func(ctx context.Context, call *Call, resp *Response, err error) error {
		endpoint := fmt.Sprintf("%s %s", call.Method, call.Path)

		collector.mu.Lock()
		defer collector.mu.Unlock()

		metrics, ok := collector.metrics[endpoint]
		if !ok {
			metrics = &Metrics{}
			collector.metrics[endpoint] = metrics
		}

		metrics.TotalRequests++
		metrics.LastRequestTime = time.Now()

		if startTime, ok := call.Metadata["start_time"].(time.Time); ok {
			metrics.TotalLatency += time.Since(startTime)
			metrics.AverageLatency = metrics.TotalLatency / time.Duration(metrics.TotalRequests)
		}

		if err != nil {
			metrics.TotalErrors++
		}

		if responseStatus(resp, err) == http.StatusTooManyRequests {
			metrics.RateLimited++
		}

		return nil
	}
}

func responseStatus(resp *Response, err error) int {
	if resp != nil {
		return resp.StatusCode
	}

	return StatusCode(err)
}

// interceptedTransport runs an InterceptorChain around another Transport.
type interceptedTransport struct {
	next  Transport
	chain *InterceptorChain
}

func (t *interceptedTransport) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return t.run(ctx, &Call{Method: http.MethodGet, Path: path, Query: query}, func() (*Response, error) {
		return t.next.Get(ctx, path, query)
	})
}

func (t *interceptedTransport) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return t.run(ctx, &Call{Method: http.MethodPost, Path: path, Body: body}, func() (*Response, error) {
		return t.next.Post(ctx, path, body)
	})
}

func (t *interceptedTransport) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return t.run(ctx, &Call{Method: http.MethodPut, Path: path, Body: body}, func() (*Response, error) {
		return t.next.Put(ctx, path, body)
	})
}

func (t *interceptedTransport) Delete(ctx context.Context, path string) (*Response, error) {
	return t.run(ctx, &Call{Method: http.MethodDelete, Path: path}, func() (*Response, error) {
		return t.next.Delete(ctx, path)
	})
}

func (t *interceptedTransport) run(ctx context.Context, call *Call, do func() (*Response, error)) (*Response, error) {
	err := t.chain.ExecuteRequestInterceptors(ctx, call)
	if err != nil {
		return nil, err
	}

	resp, callErr := do()

	// A failing response interceptor never hides the transport error, so a
	// 429 still counts as rate limited.
	err = t.chain.ExecuteResponseInterceptors(ctx, call, resp, callErr)
	if err != nil {
		return resp, errors.Join(callErr, err)
	}

	return resp, callErr
}
