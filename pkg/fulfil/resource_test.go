package fulfil_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/fivetwenty-io/fulfil-client/pkg/fulfil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewResource_RequiresModelName(t *testing.T) {
	t.Parallel()

	_, err := fulfil.NewResource("", nil)
	require.ErrorIs(t, err, fulfil.ErrModelNameMissing)

	_, err = fulfil.NewResource("   ", map[string]any{"id": 1})
	require.ErrorIs(t, err, fulfil.ErrModelNameMissing)
}

func TestNewResource_EmptyAttributes(t *testing.T) {
	t.Parallel()

	resource, err := fulfil.NewResource("sale.sale", nil)
	require.NoError(t, err)

	assert.Equal(t, "sale.sale", resource.ModelName())
	assert.Empty(t, resource.ToMap())

	_, ok := resource.ID()
	assert.False(t, ok)
	assert.True(t, resource.Errors().Empty())
}

func TestResource_Accessors(t *testing.T) {
	t.Parallel()

	resource, err := fulfil.NewResource("sale.sale", map[string]any{
		"id":             int64(42),
		"reference":      "SO42",
		"warehouse":      3,
		"warehouse.name": "Toronto",
	})
	require.NoError(t, err)

	id, ok := resource.ID()
	require.True(t, ok)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "SO42", resource.Get("reference"))
	assert.Nil(t, resource.Get("missing"))

	name, ok := resource.Dig("warehouse.name")
	require.True(t, ok)
	assert.Equal(t, "Toronto", name)

	warehouseID, ok := resource.Dig("warehouse.id")
	require.True(t, ok)
	assert.Equal(t, int64(3), warehouseID)
}

func TestResource_ToMapIsShared(t *testing.T) {
	t.Parallel()

	resource, err := fulfil.NewResource("sale.sale", map[string]any{"id": 1})
	require.NoError(t, err)

	resource.ToMap()["state"] = "done"

	assert.Equal(t, "done", resource.Get("state"))
}

func TestResource_ErrorsIsSingleton(t *testing.T) {
	t.Parallel()

	resource, err := fulfil.NewResource("sale.sale", nil)
	require.NoError(t, err)

	resource.Errors().Add("1", fulfil.ErrorKindUser, "first")

	assert.Same(t, resource.Errors(), resource.Errors())
	assert.Equal(t, 1, resource.Errors().Len())
}

func TestResource_SaveWithoutIDIssuesNoRequest(t *testing.T) {
	t.Parallel()

	transport := &MockTransport{}
	client := newTestClient(t, transport)

	resource, err := client.NewResource("sale.sale", map[string]any{"reference": "SO1"})
	require.NoError(t, err)

	require.NoError(t, resource.Save(context.Background()))
	assert.True(t, resource.TrySave(context.Background()))

	transport.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
}

func TestResource_SavePutsFullTree(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport(func(call recordedCall) (*fulfil.Response, error) {
		return jsonResponse(nil), nil
	})
	client := newTestClient(t, transport)

	resource, err := client.NewResource("sale.sale", map[string]any{
		"id":             7,
		"reference":      "SO7",
		"warehouse":      3,
		"warehouse.name": "Toronto",
	})
	require.NoError(t, err)

	require.NoError(t, resource.Save(context.Background()))

	calls := transport.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPut, calls[0].Method)
	assert.Equal(t, "model/sale.sale/7", calls[0].Path)
	assert.Equal(t, map[string]interface{}{
		"id":        float64(7),
		"reference": "SO7",
		"warehouse": map[string]interface{}{"id": float64(3), "name": "Toronto"},
	}, calls[0].Body)
}

func TestResource_SaveTagsCastValues(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport(func(call recordedCall) (*fulfil.Response, error) {
		return jsonResponse(nil), nil
	})
	client := newTestClient(t, transport)

	resource, err := client.NewResource("sale.sale", map[string]any{
		"id":        1,
		"sale_date": map[string]any{"__class__": "date", "iso_string": "2024-12-12"},
		"ship_time": map[string]any{"__class__": "time", "iso_string": "10:20:30"},
		"confirmed": map[string]any{"__class__": "datetime", "iso_string": "2024-12-12T10:30:00"},
		"total":     map[string]any{"__class__": "decimal", "decimal": "12.50"},
		"label":     map[string]any{"__class__": "bytes", "base64": "aGk="},
	})
	require.NoError(t, err)

	require.IsType(t, time.Time{}, resource.Get("sale_date"))

	require.True(t, resource.TryUpdate(context.Background(), map[string]any{"reference": "SO1"}))

	calls := transport.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, map[string]interface{}{
		"id":        float64(1),
		"reference": "SO1",
		"sale_date": map[string]interface{}{"__class__": "date", "iso_string": "2024-12-12"},
		"ship_time": map[string]interface{}{"__class__": "time", "iso_string": "10:20:30"},
		"confirmed": map[string]interface{}{"__class__": "datetime", "iso_string": "2024-12-12T10:30:00"},
		"total":     map[string]interface{}{"__class__": "decimal", "decimal": "12.50"},
		"label":     map[string]interface{}{"__class__": "bytes", "base64": "aGk="},
	}, calls[0].Body)
}

func TestResource_JSONRoundTripKeepsCastValues(t *testing.T) {
	t.Parallel()

	resource, err := fulfil.NewResource("sale.sale", map[string]any{
		"id":        5,
		"sale_date": map[string]any{"__class__": "date", "iso_string": "2024-12-12"},
		"total":     map[string]any{"__class__": "decimal", "decimal": "12.50"},
	})
	require.NoError(t, err)

	raw, err := json.Marshal(resource)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": 5,
		"model_name": "sale.sale",
		"sale_date": {"__class__": "date", "iso_string": "2024-12-12"},
		"total": {"__class__": "decimal", "decimal": "12.50"}
	}`, string(raw))

	restored, err := fulfil.ResourceFromJSON(raw, false)
	require.NoError(t, err)
	assert.Equal(t, resource.Get("sale_date"), restored.Get("sale_date"))

	again, err := json.Marshal(restored)
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(again))
}

func TestResource_SaveReturnsTransportError(t *testing.T) {
	t.Parallel()

	transport := &MockTransport{}
	transport.On("Put", mock.Anything, "model/sale.sale/1", mock.Anything).
		Return(nil, transportError(http.StatusInternalServerError, `{"message":"boom"}`)).Once()

	client := newTestClient(t, transport)

	resource, err := client.NewResource("sale.sale", map[string]any{"id": 1})
	require.NoError(t, err)

	err = resource.Save(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, fulfil.StatusCode(err))
	assert.True(t, resource.Errors().Empty())

	transport.AssertExpectations(t)
}

func TestResource_TrySaveClassifiesErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		kind    fulfil.ErrorKind
		code    string
		message string
	}{
		{
			name:    "user error",
			status:  http.StatusBadRequest,
			body:    `{"type":"UserError","code":"f1","message":"Reference is required"}`,
			kind:    fulfil.ErrorKindUser,
			code:    "f1",
			message: "Reference is required",
		},
		{
			name:    "authorization error",
			status:  http.StatusUnauthorized,
			body:    `{"code":401,"name":"Unauthorized","description":"Token expired"}`,
			kind:    fulfil.ErrorKindAuthorization,
			code:    "401",
			message: "Token expired",
		},
		{
			name:   "system error",
			status: http.StatusInternalServerError,
			body:   `<html>oops</html>`,
			kind:   fulfil.ErrorKindSystem,
			code:   "500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			transport := newFakeTransport(func(call recordedCall) (*fulfil.Response, error) {
				return nil, transportError(tt.status, tt.body)
			})
			client := newTestClient(t, transport)

			resource, err := client.NewResource("sale.sale", map[string]any{"id": 1})
			require.NoError(t, err)

			assert.False(t, resource.TrySave(context.Background()))
			require.Equal(t, 1, resource.Errors().Len())

			entry := resource.Errors().Entries()[0]
			assert.Equal(t, tt.kind, entry.Kind)
			assert.Equal(t, tt.code, entry.Code)

			if tt.message != "" {
				assert.Equal(t, tt.message, entry.Message)
			} else {
				assert.NotEmpty(t, entry.Message)
			}
		})
	}
}

func TestResource_TrySaveClearsPreviousErrors(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport(nil)
	client := newTestClient(t, transport)

	resource, err := client.NewResource("sale.sale", map[string]any{"id": 1})
	require.NoError(t, err)

	resource.Errors().Add("500", fulfil.ErrorKindSystem, "stale")

	assert.True(t, resource.TrySave(context.Background()))
	assert.True(t, resource.Errors().Empty())
}

func TestResource_DetachedSave(t *testing.T) {
	t.Parallel()

	resource, err := fulfil.NewResource("sale.sale", map[string]any{"id": 1})
	require.NoError(t, err)

	require.ErrorIs(t, resource.Save(context.Background()), fulfil.ErrTransportRequired)
	assert.False(t, resource.TrySave(context.Background()))
	assert.Equal(t, 1, resource.Errors().Len())
}

func TestResource_Update(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport(nil)
	client := newTestClient(t, transport)

	resource, err := client.NewResource("sale.sale", map[string]any{"id": 1, "state": "draft"})
	require.NoError(t, err)

	require.NoError(t, resource.Update(context.Background(), map[string]any{"state": "quotation"}))
	assert.Equal(t, "quotation", resource.Get("state"))

	calls := transport.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "quotation", bodyMap(t, calls[0])["state"])
}

func TestResource_TryUpdateRecordsFailure(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport(func(call recordedCall) (*fulfil.Response, error) {
		return nil, transportError(http.StatusBadRequest, `{"type":"UserError","code":"x","message":"Nope"}`)
	})
	client := newTestClient(t, transport)

	resource, err := client.NewResource("sale.sale", map[string]any{"id": 1})
	require.NoError(t, err)

	assert.False(t, resource.TryUpdate(context.Background(), map[string]any{"state": "done"}))
	assert.Equal(t, []string{"Nope"}, resource.Errors().FullMessages())
}

func TestClient_UpdateResource(t *testing.T) {
	t.Parallel()

	transport := newFakeTransport(nil)
	client := newTestClient(t, transport)

	resource, err := client.UpdateResource(context.Background(), "sale.sale", 9, map[string]any{"comment": "rush"})
	require.NoError(t, err)

	id, ok := resource.ID()
	require.True(t, ok)
	assert.Equal(t, int64(9), id)

	calls := transport.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "model/sale.sale/9", calls[0].Path)
	assert.Equal(t, map[string]interface{}{"id": float64(9), "comment": "rush"}, calls[0].Body)
}

func TestResource_JSONEnvelope(t *testing.T) {
	t.Parallel()

	resource, err := fulfil.NewResource("sale.sale", map[string]any{"id": 5})
	require.NoError(t, err)

	raw, err := json.Marshal(resource)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":5,"model_name":"sale.sale"}`, string(raw))

	assert.Equal(t, map[string]any{
		"sales_order": map[string]any{"id": 5, "model_name": "sale.sale"},
	}, resource.AsMap("sales_order"))

	restored, err := fulfil.ResourceFromJSON(raw, false)
	require.NoError(t, err)
	assert.Equal(t, "sale.sale", restored.ModelName())

	id, ok := restored.ID()
	require.True(t, ok)
	assert.Equal(t, int64(5), id)
}

func TestResourceFromJSON_RootIncluded(t *testing.T) {
	t.Parallel()

	restored, err := fulfil.ResourceFromJSON([]byte(`{"sales_order":{"id":5,"model_name":"sale.sale"}}`), true)
	require.NoError(t, err)

	assert.Equal(t, "sale.sale", restored.ModelName())
	assert.Equal(t, fulfil.Attributes{"id": int64(5)}, restored.ToMap())
}

func TestResourceFromJSON_MissingModelName(t *testing.T) {
	t.Parallel()

	_, err := fulfil.ResourceFromJSON([]byte(`{"id":5}`), false)
	require.ErrorIs(t, err, fulfil.ErrModelNameMissing)

	var resource fulfil.Resource

	err = json.Unmarshal([]byte(`{"id":5}`), &resource)
	require.True(t, errors.Is(err, fulfil.ErrModelNameMissing))
}

func TestResource_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	var resource fulfil.Resource

	err := json.Unmarshal([]byte(`{"id":5,"warehouse":2,"warehouse.name":"Toronto","model_name":"sale.sale"}`), &resource)
	require.NoError(t, err)

	assert.Equal(t, "sale.sale", resource.ModelName())

	name, ok := resource.Dig("warehouse.name")
	require.True(t, ok)
	assert.Equal(t, "Toronto", name)
}

func TestResource_Equal(t *testing.T) {
	t.Parallel()

	first, err := fulfil.NewResource("sale.sale", map[string]any{"id": 1})
	require.NoError(t, err)

	second, err := fulfil.NewResource("sale.sale", map[string]any{"id": 1})
	require.NoError(t, err)

	third, err := fulfil.NewResource("sale.sale", map[string]any{"id": 2})
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
	assert.False(t, first.Equal(third))
	assert.False(t, first.Equal(nil))
}

func TestResource_Decode(t *testing.T) {
	t.Parallel()

	type warehouse struct {
		ID   int64  `mapstructure:"id"`
		Name string `mapstructure:"name"`
	}

	type order struct {
		ID        int64     `mapstructure:"id"`
		Reference string    `mapstructure:"reference"`
		Warehouse warehouse `mapstructure:"warehouse"`
	}

	resource, err := fulfil.NewResource("sale.sale", map[string]any{
		"id":             json.Number("12"),
		"reference":      "SO12",
		"warehouse":      json.Number("4"),
		"warehouse.name": "Toronto",
	})
	require.NoError(t, err)

	var decoded order

	require.NoError(t, resource.Decode(&decoded))
	assert.Equal(t, order{
		ID:        12,
		Reference: "SO12",
		Warehouse: warehouse{ID: 4, Name: "Toronto"},
	}, decoded)
}
