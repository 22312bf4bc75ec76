package fulfil_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/fivetwenty-io/fulfil-client/pkg/fulfil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// recordedCall is one call seen by fakeTransport. Body holds the JSON form of
// the request body.
type recordedCall struct {
	Method string
	Path   string
	Body   interface{}
}

// fakeTransport answers calls with handler and records them.
type fakeTransport struct {
	mu      sync.Mutex
	calls   []recordedCall
	handler func(call recordedCall) (*fulfil.Response, error)
}

func newFakeTransport(handler func(call recordedCall) (*fulfil.Response, error)) *fakeTransport {
	return &fakeTransport{handler: handler}
}

func (f *fakeTransport) record(method, path string, body interface{}) (*fulfil.Response, error) {
	call := recordedCall{Method: method, Path: path}

	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}

		err = json.Unmarshal(raw, &call.Body)
		if err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	if f.handler == nil {
		return jsonResponse(nil), nil
	}

	return f.handler(call)
}

func (f *fakeTransport) Get(_ context.Context, path string, _ url.Values) (*fulfil.Response, error) {
	return f.record(http.MethodGet, path, nil)
}

func (f *fakeTransport) Post(_ context.Context, path string, body interface{}) (*fulfil.Response, error) {
	return f.record(http.MethodPost, path, body)
}

func (f *fakeTransport) Put(_ context.Context, path string, body interface{}) (*fulfil.Response, error) {
	return f.record(http.MethodPut, path, body)
}

func (f *fakeTransport) Delete(_ context.Context, path string) (*fulfil.Response, error) {
	return f.record(http.MethodDelete, path, nil)
}

func (f *fakeTransport) Calls() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]recordedCall, len(f.calls))
	copy(out, f.calls)

	return out
}

// MockTransport implements fulfil.Transport with testify/mock.
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Get(ctx context.Context, path string, query url.Values) (*fulfil.Response, error) {
	args := m.Called(ctx, path, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*fulfil.Response), args.Error(1)
}

func (m *MockTransport) Post(ctx context.Context, path string, body interface{}) (*fulfil.Response, error) {
	args := m.Called(ctx, path, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*fulfil.Response), args.Error(1)
}

func (m *MockTransport) Put(ctx context.Context, path string, body interface{}) (*fulfil.Response, error) {
	args := m.Called(ctx, path, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*fulfil.Response), args.Error(1)
}

func (m *MockTransport) Delete(ctx context.Context, path string) (*fulfil.Response, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*fulfil.Response), args.Error(1)
}

func jsonResponse(body interface{}) *fulfil.Response {
	raw, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}

	return &fulfil.Response{StatusCode: http.StatusOK, Headers: http.Header{}, Body: raw}
}

func rawResponse(body string) *fulfil.Response {
	return &fulfil.Response{StatusCode: http.StatusOK, Headers: http.Header{}, Body: []byte(body)}
}

func transportError(status int, body string) *fulfil.TransportError {
	return &fulfil.TransportError{StatusCode: status, Body: []byte(body), Headers: http.Header{}}
}

// rows builds n search rows with ids starting at first.
func rows(first, n int) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, n)
	for i := range n {
		out = append(out, map[string]interface{}{"id": first + i})
	}

	return out
}

// bodyMap returns a recorded body as a JSON object.
func bodyMap(t *testing.T, call recordedCall) map[string]interface{} {
	t.Helper()

	body, ok := call.Body.(map[string]interface{})
	require.True(t, ok, "body is not an object: %#v", call.Body)

	return body
}

func newTestClient(t *testing.T, transport fulfil.Transport, opts ...fulfil.Option) *fulfil.Client {
	t.Helper()

	client, err := fulfil.NewClient(transport, opts...)
	require.NoError(t, err)

	return client
}
