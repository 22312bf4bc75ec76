// Package fulfilclient builds fulfil.Client values from a fulfil.Config.
//
// It wires the merchant transport (authentication header, retries of
// connection failures and 5xx responses, tracing) and the optional shared
// count cache, then returns a ready to use client.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/fulfil-client/pkg/fulfil"
//	  "github.com/fivetwenty-io/fulfil-client/pkg/fulfilclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // Personal access token, sent as X-API-KEY.
//	  cli, err := fulfilclient.New(&fulfil.Config{
//	    MerchantID:  "acme",
//	    AccessToken: "...",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  order, err := cli.Model("sale.sale").FindBy(ctx, "reference", "=", "SO1234")
//	  if err != nil { log.Fatal(err) }
//	  _ = order
//	}
//
// # 3PL API
//
// NewTPL returns a transport for the 3PL carrier API. It needs a TPLConfig
// with an auth token and uses Bearer authentication.
package fulfilclient
