// Package fulfil provides a lazy query layer and resource model for the
// Fulfil API, a schema-less REST API where every record belongs to a named
// model such as "sale.sale" or "stock.shipment.out".
//
// # Overview
//
// A Client wraps a Transport, usually built by the fulfilclient package, and
// hands out Relations and Resources. Relations describe a search and only
// talk to the API when rows are needed. Resources hold one record as a nested
// attribute tree.
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
//	  cli, err := fulfilclient.New(&fulfil.Config{MerchantID: "acme", AccessToken: "..."})
//	  if err != nil { log.Fatal(err) }
//
//	  orders := cli.Model("sale.sale").
//	    Select("reference", "warehouse.name").
//	    Where("state", "=", "draft").
//	    Limit(50)
//
//	  rows, err := orders.All(ctx)
//	  if err != nil { log.Fatal(err) }
//	  _ = rows
//	}
//
// # Attributes
//
// Search rows report a linked record as its bare id under the relation name
// and any requested sub-fields under dotted names ("warehouse.name"). Both
// are merged into one nested mapping holding "id". Tagged values carrying the
// "__class__" discriminator are cast to time.Time, decimal.Decimal or []byte;
// see WireFormat for the reserved key names.
//
// # Batches
//
// InBatches and FindEach walk a relation window by window. Rate limited
// windows (HTTP 429) are retried in place up to a limit; no other error is
// retried.
//
// # Errors
//
// Query failures are returned to the caller. Save, Update and the shipment
// actions come in two flavours: the plain one returns the error, the Try one
// classifies it into the resource's Errors and reports false.
package fulfil
