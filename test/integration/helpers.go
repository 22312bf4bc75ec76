// Package integration exercises the whole client stack, from fulfilclient
// down to HTTP, against the fulfiltest fake API.
package integration

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/fulfil-client/pkg/fulfil"
	"github.com/fivetwenty-io/fulfil-client/pkg/fulfilclient"
	"github.com/fivetwenty-io/fulfil-client/pkg/fulfiltest"
)

// Environment is a fake API plus a client configured against it.
type Environment struct {
	Server *fulfiltest.Server
	Client *fulfil.Client
	Config *fulfil.Config
}

// NewEnvironment starts a fake API and builds a client for it. configure may
// adjust the configuration before the client is built.
func NewEnvironment(t *testing.T, configure func(*fulfil.Config), opts ...fulfil.Option) *Environment {
	t.Helper()

	server := fulfiltest.NewServer()
	t.Cleanup(server.Close)

	config := server.Config()
	if configure != nil {
		configure(config)
	}

	client, err := fulfilclient.New(config, opts...)
	require.NoError(t, err)

	return &Environment{Server: server, Client: client, Config: config}
}

// SeedOrders stores n sale orders, alternating between draft and confirmed.
func (e *Environment) SeedOrders(n int) []int64 {
	return e.Server.SeedN("sale.sale", n, func(i int) map[string]interface{} {
		state := "draft"
		if i%2 == 1 {
			state = "confirmed"
		}

		return map[string]interface{}{
			"reference":      fmt.Sprintf("SO%04d", i+1),
			"state":          state,
			"total_amount":   map[string]interface{}{"__class__": "decimal", "decimal": fmt.Sprintf("%d.50", i+10)},
			"warehouse":      3,
			"warehouse.name": "Main",
		}
	})
}
