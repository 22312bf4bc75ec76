package fulfil

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/fulfil-client/internal/constants"
)

// HoldOptions describes why shipments are put on hold.
type HoldOptions struct {
	Note   string
	Reason string
}

// body returns the action payload without blank keys.
func (o HoldOptions) body() map[string]any {
	body := map[string]any{}
	if o.Note != "" {
		body["note"] = o.Note
	}

	if o.Reason != "" {
		body["hold_reason"] = o.Reason
	}

	return body
}

// CustomerShipments runs actions on outbound shipments.
type CustomerShipments struct {
	client *Client
}

// Query returns a relation over customer shipments.
func (s *CustomerShipments) Query() *Relation {
	return s.client.Model(constants.CustomerShipmentModel)
}

// Hold puts the shipments ids on hold.
func (s *CustomerShipments) Hold(ctx context.Context, ids []int64, opts HoldOptions) error {
	return s.act(ctx, "hold", ids, opts.body())
}

// Unhold releases the shipments ids.
func (s *CustomerShipments) Unhold(ctx context.Context, ids []int64, note string) error {
	return s.act(ctx, "unhold", ids, HoldOptions{Note: note}.body())
}

func (s *CustomerShipments) act(ctx context.Context, action string, ids []int64, body map[string]any) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := s.client.transport.Put(ctx, modelPath(constants.CustomerShipmentModel, action), []any{ids, body})
	if err != nil {
		return fmt.Errorf("failed to %s shipments %v: %w", action, ids, err)
	}

	return nil
}

// CustomerShipment is a shipment resource with hold actions.
type CustomerShipment struct {
	*Resource
}

// NewCustomerShipment builds a shipment attached to the client.
func (c *Client) NewCustomerShipment(attrs map[string]any) (*CustomerShipment, error) {
	resource, err := c.NewResource(constants.CustomerShipmentModel, attrs)
	if err != nil {
		return nil, err
	}

	return &CustomerShipment{Resource: resource}, nil
}

// Hold puts the shipment on hold. It reports false without a request when
// the shipment has no id.
func (s *CustomerShipment) Hold(ctx context.Context, opts HoldOptions) (bool, error) {
	return s.act(func(shipments *CustomerShipments, id int64) error {
		return shipments.Hold(ctx, []int64{id}, opts)
	})
}

// TryHold is Hold that records a failure in Errors.
func (s *CustomerShipment) TryHold(ctx context.Context, opts HoldOptions) bool {
	held, err := s.Hold(ctx, opts)
	if err != nil {
		return s.recordFailure(err)
	}

	return held
}

// Unhold releases the shipment. It reports false without a request when the
// shipment has no id.
func (s *CustomerShipment) Unhold(ctx context.Context, note string) (bool, error) {
	return s.act(func(shipments *CustomerShipments, id int64) error {
		return shipments.Unhold(ctx, []int64{id}, note)
	})
}

// TryUnhold is Unhold that records a failure in Errors.
func (s *CustomerShipment) TryUnhold(ctx context.Context, note string) bool {
	released, err := s.Unhold(ctx, note)
	if err != nil {
		return s.recordFailure(err)
	}

	return released
}

func (s *CustomerShipment) act(do func(*CustomerShipments, int64) error) (bool, error) {
	id, ok := s.ID()
	if !ok {
		return false, nil
	}

	if s.client == nil {
		return false, ErrTransportRequired
	}

	err := do(s.client.CustomerShipments(), id)
	if err != nil {
		return false, err
	}

	return true, nil
}
