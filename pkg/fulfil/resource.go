package fulfil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"strings"

	"github.com/fivetwenty-io/fulfil-client/internal/constants"
	"github.com/go-viper/mapstructure/v2"
)

// Resource is one remote record: a model name, an attribute tree and the
// errors recovered while persisting it.
type Resource struct {
	modelName  string
	attributes Attributes
	errors     *Errors
	client     *Client
	caster     *Caster
}

// NewResource builds a detached resource. Dotted keys in attrs are expanded
// into nested attributes. Detached resources can be read and serialized but
// not saved; use Client.NewResource for that.
func NewResource(modelName string, attrs map[string]any) (*Resource, error) {
	return newResource(defaultCaster, modelName, attrs)
}

func newResource(caster *Caster, modelName string, attrs map[string]any) (*Resource, error) {
	if strings.TrimSpace(modelName) == "" {
		return nil, ErrModelNameMissing
	}

	return &Resource{
		modelName:  modelName,
		attributes: caster.AssignAttributes(Attributes{}, attrs),
		caster:     caster,
	}, nil
}

// ModelName returns the model the resource belongs to.
func (r *Resource) ModelName() string {
	return r.modelName
}

// ID returns the record id, if the resource has one.
func (r *Resource) ID() (int64, bool) {
	value, ok := r.attributes["id"]
	if !ok || value == nil {
		return 0, false
	}

	if _, isString := value.(string); isString {
		return 0, false
	}

	return RelationID(value)
}

// Get returns the attribute stored under name.
func (r *Resource) Get(name string) any {
	return r.attributes[name]
}

// Dig returns the attribute at a dotted path such as "warehouse.name".
func (r *Resource) Dig(path string) (any, bool) {
	return Dig(r.attributes, path)
}

// ToMap returns the attribute tree. The tree is shared with the resource.
func (r *Resource) ToMap() Attributes {
	return r.attributes
}

// Errors returns the errors recovered by the Try variants.
func (r *Resource) Errors() *Errors {
	if r.errors == nil {
		r.errors = &Errors{}
	}

	return r.errors
}

// AssignAttribute merges one possibly dotted assignment into the resource.
func (r *Resource) AssignAttribute(name string, value any) *Resource {
	r.attributes = r.caster.AssignAttribute(r.attributes, name, value)

	return r
}

// AssignAttributes merges attrs into the resource.
func (r *Resource) AssignAttributes(attrs map[string]any) *Resource {
	r.attributes = r.caster.AssignAttributes(r.attributes, attrs)

	return r
}

// Equal reports whether other is a resource with the same attributes.
func (r *Resource) Equal(other *Resource) bool {
	if other == nil {
		return false
	}

	return reflect.DeepEqual(r.attributes, other.attributes)
}

// Decode copies the attributes into out, a pointer to a struct or map. Struct
// fields are matched by their `mapstructure` tag or name.
func (r *Resource) Decode(out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	err = decoder.Decode(map[string]any(r.attributes))
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", r.modelName, err)
	}

	return nil
}

// Save writes the full attribute tree of the resource, with cast values
// tagged again for the wire. A resource without an id is left untouched.
// Errors are returned as is.
func (r *Resource) Save(ctx context.Context) error {
	r.Errors().Clear()

	id, ok := r.ID()
	if !ok {
		return nil
	}

	if r.client == nil {
		return ErrTransportRequired
	}

	_, err := r.client.transport.Put(ctx, recordPath(r.modelName, id), r.wireCaster().Encode(r.attributes))
	if err != nil {
		return fmt.Errorf("failed to update %s %d: %w", r.modelName, id, err)
	}

	return nil
}

// TrySave is Save that records a failure in Errors and reports success.
func (r *Resource) TrySave(ctx context.Context) bool {
	return r.recordFailure(r.Save(ctx))
}

// Update assigns attrs and saves the resource.
func (r *Resource) Update(ctx context.Context, attrs map[string]any) error {
	r.AssignAttributes(attrs)

	return r.Save(ctx)
}

// TryUpdate assigns attrs and calls TrySave.
func (r *Resource) TryUpdate(ctx context.Context, attrs map[string]any) bool {
	r.AssignAttributes(attrs)

	return r.TrySave(ctx)
}

func (r *Resource) recordFailure(err error) bool {
	if err == nil {
		return true
	}

	r.Errors().AddEntry(Classify(err))

	return false
}

// AsMap returns the JSON envelope of the resource, nested under root when
// root is not empty.
func (r *Resource) AsMap(root string) map[string]any {
	envelope := make(map[string]any, len(r.attributes)+1)
	maps.Copy(envelope, r.attributes)
	envelope[constants.ModelNameKey] = r.modelName

	if root == "" {
		return envelope
	}

	return map[string]any{root: envelope}
}

// MarshalJSON encodes the attributes in wire form together with the model
// name, so UnmarshalJSON casts them back to the same values.
func (r *Resource) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.wireCaster().Encode(r.AsMap("")))
}

// UnmarshalJSON restores a resource encoded by MarshalJSON.
func (r *Resource) UnmarshalJSON(data []byte) error {
	restored, err := ResourceFromJSON(data, false)
	if err != nil {
		return err
	}

	r.modelName = restored.modelName
	r.attributes = restored.attributes
	r.caster = restored.caster

	return nil
}

// ResourceFromJSON restores a resource from its JSON envelope. With
// rootIncluded the envelope is the value of the single top-level key.
func ResourceFromJSON(data []byte, rootIncluded bool) (*Resource, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var envelope map[string]any

	err := decoder.Decode(&envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to decode resource: %w", err)
	}

	if rootIncluded {
		envelope = firstNestedMap(envelope)
	}

	modelName, _ := envelope[constants.ModelNameKey].(string)
	attrs := make(map[string]any, len(envelope))

	for key, value := range envelope {
		if key != constants.ModelNameKey {
			attrs[key] = value
		}
	}

	return NewResource(modelName, attrs)
}

func firstNestedMap(envelope map[string]any) map[string]any {
	for _, value := range envelope {
		if nested, ok := value.(map[string]any); ok {
			return nested
		}
	}

	return nil
}

func (r *Resource) wireCaster() *Caster {
	if r.caster == nil {
		return defaultCaster
	}

	return r.caster
}

func recordPath(modelName string, id int64) string {
	return fmt.Sprintf("model/%s/%d", modelName, id)
}
