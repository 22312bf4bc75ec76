package fulfil

import (
	"context"
	"fmt"
	"reflect"
	"slices"
)

// Set returns a relation over modelName.
func (r *Relation) Set(modelName string) *Relation {
	relation := r.clone()
	relation.modelName = modelName

	return relation
}

// Where returns a relation with one more filter triple. The triple is given
// either as separate values or as one Condition; a triple wrapped in one
// extra level is unwrapped. Identical triples are stored once.
func (r *Relation) Where(condition ...any) *Relation {
	relation := r.clone()

	triple := toCondition(condition)
	if len(triple) == 0 {
		return relation
	}

	for _, existing := range relation.conditions {
		if reflect.DeepEqual(existing, triple) {
			return relation
		}
	}

	relation.conditions = append(relation.conditions, triple)

	return relation
}

// Select returns a relation that also fetches fields.
func (r *Relation) Select(fields ...string) *Relation {
	relation := r.clone()

	for _, field := range fields {
		if !slices.Contains(relation.fields, field) {
			relation.fields = append(relation.fields, field)
		}
	}

	return relation
}

// Limit returns a relation fetching at most n rows.
func (r *Relation) Limit(n int) *Relation {
	relation := r.clone()
	relation.limit = &n

	return relation
}

// Offset returns a relation skipping the first n rows.
func (r *Relation) Offset(n int) *Relation {
	relation := r.clone()
	relation.offset = &n

	return relation
}

// FindBy fetches the first row matching condition right away. It returns nil
// when nothing matches.
func (r *Relation) FindBy(ctx context.Context, condition ...any) (*Resource, error) {
	return r.Where(condition...).Limit(1).First(ctx)
}

// FindByStrict is FindBy returning ErrNotFound when nothing matches.
func (r *Relation) FindByStrict(ctx context.Context, condition ...any) (*Resource, error) {
	resource, err := r.FindBy(ctx, condition...)
	if err != nil {
		return nil, err
	}

	if resource == nil {
		return nil, fmt.Errorf("%w: %s where %v", ErrNotFound, r.modelName, toCondition(condition))
	}

	return resource, nil
}

// Create posts records to the model and returns the ids of the new records.
func (r *Relation) Create(ctx context.Context, records ...map[string]any) ([]int64, error) {
	if r.modelName == "" {
		return nil, ErrModelNameMissing
	}

	if r.client == nil {
		return nil, ErrTransportRequired
	}

	resp, err := r.client.transport.Post(ctx, modelPath(r.modelName, ""), r.client.caster.Encode(records))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", r.modelName, err)
	}

	var created []any

	err = decodeJSON(resp.Body, &created)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s create response: %w", r.modelName, err)
	}

	ids := make([]int64, 0, len(created))

	for _, item := range created {
		if record, ok := item.(map[string]any); ok {
			item = record["id"]
		}

		if id, ok := RelationID(item); ok {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

func toCondition(values []any) Condition {
	var triple Condition

	if len(values) == 1 {
		triple = asCondition(values[0])
	} else {
		triple = Condition(values)
	}

	if len(triple) == 1 && isSequence(triple[0]) {
		triple = asCondition(triple[0])
	}

	return slices.Clone(triple)
}

// isSequence reports whether value is a slice or array of any element type
// other than raw bytes.
func isSequence(value any) bool {
	if _, ok := value.([]byte); ok || value == nil {
		return false
	}

	kind := reflect.ValueOf(value).Kind()

	return kind == reflect.Slice || kind == reflect.Array
}

func asCondition(value any) Condition {
	switch v := value.(type) {
	case Condition:
		return v
	case []any:
		return Condition(v)
	}

	if !isSequence(value) {
		return Condition{value}
	}

	items := reflect.ValueOf(value)
	out := make(Condition, items.Len())

	for i := range out {
		out[i] = items.Index(i).Interface()
	}

	return out
}
