package fulfil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
)

// Condition is one filter triple such as ["state", "=", "draft"].
type Condition []any

// Relation is a lazy search over one model. Builder methods return a new
// relation and never modify the receiver. The first call that needs rows
// issues a single search request; the rows are then cached on that relation.
//
// A relation is not safe for concurrent use.
type Relation struct {
	client     *Client
	modelName  string
	conditions []Condition
	fields     []string
	limit      *int
	offset     *int

	loaded    bool
	resources []*Resource
	count     *int64
}

type searchRequest struct {
	Filters []Condition `json:"filters,omitempty"`
	Fields  []string    `json:"fields,omitempty"`
	Limit   *int        `json:"limit,omitempty"`
	Offset  *int        `json:"offset,omitempty"`
}

func newRelation(client *Client) *Relation {
	return &Relation{
		client: client,
		fields: []string{"id"},
	}
}

// clone copies the query description. The copy starts unloaded.
func (r *Relation) clone() *Relation {
	return &Relation{
		client:     r.client,
		modelName:  r.modelName,
		conditions: slices.Clone(r.conditions),
		fields:     r.projection(),
		limit:      cloneInt(r.limit),
		offset:     cloneInt(r.offset),
	}
}

// ModelName returns the model the relation searches.
func (r *Relation) ModelName() string {
	return r.modelName
}

// Conditions returns a copy of the filter triples.
func (r *Relation) Conditions() []Condition {
	out := make([]Condition, len(r.conditions))
	for i, condition := range r.conditions {
		out[i] = slices.Clone(condition)
	}

	return out
}

// Fields returns a copy of the projected fields.
func (r *Relation) Fields() []string {
	return r.projection()
}

// projection copies fields. A zero Relation projects only "id".
func (r *Relation) projection() []string {
	if len(r.fields) == 0 {
		return []string{"id"}
	}

	return slices.Clone(r.fields)
}

// LimitValue returns the limit, if set.
func (r *Relation) LimitValue() (int, bool) {
	if r.limit == nil {
		return 0, false
	}

	return *r.limit, true
}

// OffsetValue returns the offset, if set.
func (r *Relation) OffsetValue() (int, bool) {
	if r.offset == nil {
		return 0, false
	}

	return *r.offset, true
}

// Loaded reports whether the rows have been fetched.
func (r *Relation) Loaded() bool {
	return r.loaded
}

// Load fetches the rows unless they are already loaded. It is never retried.
func (r *Relation) Load(ctx context.Context) error {
	if r.loaded {
		return nil
	}

	if r.modelName == "" {
		return ErrModelNameMissing
	}

	if r.client == nil {
		return ErrTransportRequired
	}

	body := searchRequest{
		Filters: r.conditions,
		Fields:  r.projection(),
		Limit:   r.limit,
		Offset:  r.offset,
	}

	r.client.logger.Debug("Loading relation", map[string]interface{}{
		"model":   r.modelName,
		"filters": len(r.conditions),
		"fields":  r.projection(),
	})

	resp, err := r.client.transport.Put(ctx, modelPath(r.modelName, "search_read"), body)
	if err != nil {
		return fmt.Errorf("failed to search %s: %w", r.modelName, err)
	}

	var rows []map[string]any

	err = decodeJSON(resp.Body, &rows)
	if err != nil {
		return fmt.Errorf("failed to parse %s search response: %w", r.modelName, err)
	}

	resources := make([]*Resource, 0, len(rows))

	for _, row := range rows {
		resource, err := r.client.NewResource(r.modelName, row)
		if err != nil {
			return err
		}

		resources = append(resources, resource)
	}

	r.resources = resources
	r.loaded = true

	return nil
}

// Reload drops the cached rows and loads again.
func (r *Relation) Reload(ctx context.Context) error {
	r.loaded = false
	r.resources = nil

	return r.Load(ctx)
}

// All returns the rows, loading them on first use.
func (r *Relation) All(ctx context.Context) ([]*Resource, error) {
	err := r.Load(ctx)
	if err != nil {
		return nil, err
	}

	return r.resources, nil
}

// Each calls fn for every row in order. An error from fn stops the loop.
func (r *Relation) Each(ctx context.Context, fn func(*Resource) error) error {
	resources, err := r.All(ctx)
	if err != nil {
		return err
	}

	for _, resource := range resources {
		err = fn(resource)
		if err != nil {
			return err
		}
	}

	return nil
}

// Size returns the number of loaded rows.
func (r *Relation) Size(ctx context.Context) (int, error) {
	resources, err := r.All(ctx)
	if err != nil {
		return 0, err
	}

	return len(resources), nil
}

// First returns the first row, or nil when there is none.
func (r *Relation) First(ctx context.Context) (*Resource, error) {
	resources, err := r.All(ctx)
	if err != nil {
		return nil, err
	}

	if len(resources) == 0 {
		return nil, nil //nolint:nilnil // no row is not an error
	}

	return resources[0], nil
}

func modelPath(modelName, action string) string {
	if action == "" {
		return "model/" + modelName
	}

	return "model/" + modelName + "/" + action
}

func decodeJSON(data []byte, out any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	return decoder.Decode(out)
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}

	out := *value

	return &out
}
