package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/fulfil-client/internal/client"
	"github.com/fivetwenty-io/fulfil-client/internal/constants"
	"github.com/fivetwenty-io/fulfil-client/pkg/fulfil"
)

type capturedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   interface{}
}

func captureServer(t *testing.T, status int, response string) (*httptest.Server, *[]capturedRequest) {
	t.Helper()

	var captured []capturedRequest

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		var body interface{}

		_ = json.NewDecoder(request.Body).Decode(&body)

		captured = append(captured, capturedRequest{
			Method: request.Method,
			Path:   request.URL.Path,
			Query:  request.URL.Query(),
			Header: request.Header.Clone(),
			Body:   body,
		})

		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(status)
		_, _ = writer.Write([]byte(response))
	}))
	t.Cleanup(server.Close)

	return server, &captured
}

func TestNewMerchantTransport_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  *fulfil.Config
		wantErr error
		wantURL string
	}{
		{
			name:    "nil config",
			wantErr: constants.ErrConfigRequired,
		},
		{
			name:    "missing token",
			config:  &fulfil.Config{MerchantID: "acme"},
			wantErr: constants.ErrNoAccessToken,
		},
		{
			name:    "invalid token type",
			config:  &fulfil.Config{MerchantID: "acme", AccessToken: "x", TokenType: "cookie"},
			wantErr: constants.ErrInvalidTokenType,
		},
		{
			name:    "missing merchant",
			config:  &fulfil.Config{AccessToken: "x"},
			wantErr: constants.ErrMerchantIDRequired,
		},
		{
			name:    "merchant host",
			config:  &fulfil.Config{MerchantID: "acme", AccessToken: "x"},
			wantURL: "https://acme.fulfil.io",
		},
		{
			name:    "base URL without scheme",
			config:  &fulfil.Config{BaseURL: "staging.example.com/", AccessToken: "x"},
			wantURL: "https://staging.example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			transport, err := client.NewMerchantTransport(tt.config)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, transport.BaseURL())
		})
	}
}

func TestMerchantTransport_Requests(t *testing.T) {
	t.Parallel()

	server, captured := captureServer(t, http.StatusOK, `[{"id": 1}]`)

	transport, err := client.NewMerchantTransport(&fulfil.Config{
		BaseURL:     server.URL,
		AccessToken: "personal-token",
	})
	require.NoError(t, err)

	ctx := context.Background()

	resp, err := transport.Put(ctx, "model/sale.sale/search_read", map[string]interface{}{"fields": []string{"id"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"id": 1}]`, string(resp.Body))

	_, err = transport.Get(ctx, "/model/sale.sale/1", url.Values{"context": []string{""}})
	require.NoError(t, err)

	_, err = transport.Post(ctx, "model/sale.sale", []interface{}{map[string]interface{}{"reference": "SO1"}})
	require.NoError(t, err)

	_, err = transport.Delete(ctx, "model/sale.sale/1")
	require.NoError(t, err)

	require.Len(t, *captured, 4)

	first := (*captured)[0]
	assert.Equal(t, http.MethodPut, first.Method)
	assert.Equal(t, "/api/v2/model/sale.sale/search_read", first.Path)
	assert.Equal(t, "personal-token", first.Header.Get("X-API-KEY"))
	assert.Empty(t, first.Header.Get("Authorization"))
	assert.Equal(t, map[string]interface{}{"fields": []interface{}{"id"}}, first.Body)

	second := (*captured)[1]
	assert.Equal(t, "/api/v2/model/sale.sale/1", second.Path)
	assert.Equal(t, []string{""}, second.Query["context"])

	assert.Equal(t, http.MethodPost, (*captured)[2].Method)
	assert.Equal(t, http.MethodDelete, (*captured)[3].Method)
}

func TestMerchantTransport_OAuthAndVersion(t *testing.T) {
	t.Parallel()

	server, captured := captureServer(t, http.StatusOK, `1`)

	transport, err := client.NewMerchantTransport(&fulfil.Config{
		BaseURL:     server.URL,
		APIVersion:  "v3",
		AccessToken: "oauth-token",
		TokenType:   fulfil.TokenTypeOAuth,
	})
	require.NoError(t, err)

	_, err = transport.Put(context.Background(), "model/sale.sale/search_count", map[string]interface{}{})
	require.NoError(t, err)

	require.Len(t, *captured, 1)
	assert.Equal(t, "/api/v3/model/sale.sale/search_count", (*captured)[0].Path)
	assert.Equal(t, "Bearer oauth-token", (*captured)[0].Header.Get("Authorization"))
}

func TestMerchantTransport_ReturnsTransportError(t *testing.T) {
	t.Parallel()

	server, _ := captureServer(t, http.StatusTooManyRequests, `{"message":"slow down"}`)

	transport, err := client.NewMerchantTransport(&fulfil.Config{
		BaseURL:     server.URL,
		AccessToken: "x",
		RetryMax:    3,
	})
	require.NoError(t, err)

	resp, err := transport.Put(context.Background(), "model/sale.sale/search_read", map[string]interface{}{})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, fulfil.IsRateLimited(err))

	transportErr, ok := fulfil.AsTransportError(err)
	require.True(t, ok)
	assert.JSONEq(t, `{"message":"slow down"}`, string(transportErr.Body))
}

func TestNewTPLTransport_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  *fulfil.Config
		wantErr error
		wantURL string
	}{
		{
			name:    "no 3PL configuration",
			config:  &fulfil.Config{MerchantID: "acme"},
			wantErr: constants.ErrTPLAuthTokenRequired,
		},
		{
			name:    "blank auth token",
			config:  &fulfil.Config{MerchantID: "acme", TPL: &fulfil.TPLConfig{}},
			wantErr: constants.ErrTPLAuthTokenRequired,
		},
		{
			name:    "missing merchant",
			config:  &fulfil.Config{TPL: &fulfil.TPLConfig{AuthToken: "tpl"}},
			wantErr: constants.ErrMerchantIDRequired,
		},
		{
			name:    "merchant from main config",
			config:  &fulfil.Config{MerchantID: "acme", TPL: &fulfil.TPLConfig{AuthToken: "tpl"}},
			wantURL: "https://acme.fulfil.io",
		},
		{
			name:    "3PL merchant wins",
			config:  &fulfil.Config{MerchantID: "acme", TPL: &fulfil.TPLConfig{AuthToken: "tpl", MerchantID: "carrier"}},
			wantURL: "https://carrier.fulfil.io",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			transport, err := client.NewTPLTransport(tt.config)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, transport.BaseURL())
		})
	}
}

func TestTPLTransport_Requests(t *testing.T) {
	t.Parallel()

	server, captured := captureServer(t, http.StatusOK, `{"ok": true}`)

	transport, err := client.NewTPLTransport(&fulfil.Config{
		BaseURL: server.URL,
		TPL:     &fulfil.TPLConfig{AuthToken: "tpl-token", MerchantID: "acme"},
	})
	require.NoError(t, err)

	ctx := context.Background()

	_, err = transport.Get(ctx, "shipments", url.Values{"page": []string{"1"}, "carrier": []string{" "}})
	require.NoError(t, err)

	_, err = transport.Patch(ctx, "/shipments/7", map[string]interface{}{"tracking_number": "123"})
	require.NoError(t, err)

	require.Len(t, *captured, 2)

	first := (*captured)[0]
	assert.Equal(t, "/services/3pl/v1/shipments", first.Path)
	assert.Equal(t, url.Values{"page": []string{"1"}}, first.Query)
	assert.Equal(t, "Bearer tpl-token", first.Header.Get("Authorization"))

	second := (*captured)[1]
	assert.Equal(t, http.MethodPatch, second.Method)
	assert.Equal(t, "/services/3pl/v1/shipments/7", second.Path)
	assert.Equal(t, "application/json", second.Header.Get("Content-Type"))
}

func TestTPLTransport_CustomVersion(t *testing.T) {
	t.Parallel()

	server, captured := captureServer(t, http.StatusOK, `[]`)

	transport, err := client.NewTPLTransport(&fulfil.Config{
		BaseURL: server.URL,
		TPL:     &fulfil.TPLConfig{AuthToken: "tpl-token", MerchantID: "acme", APIVersion: "v2"},
	})
	require.NoError(t, err)

	_, err = transport.Get(context.Background(), "shipments", nil)
	require.NoError(t, err)

	require.Len(t, *captured, 1)
	assert.Equal(t, "/services/3pl/v2/shipments", (*captured)[0].Path)
}
