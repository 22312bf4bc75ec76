package fulfil

import (
	"encoding/json"
	"maps"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Attributes is the attribute tree of a resource. Nested records are stored
// as map[string]any.
type Attributes map[string]any

// Pair is one named assignment. Name may be a dotted path.
type Pair struct {
	Name  string
	Value any
}

// relationRefPattern matches references such as "stock.shipment.out,12".
var relationRefPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*,(\d+)$`)

var defaultCaster = NewCaster(nil)

// AssignAttribute merges one possibly dotted assignment into tree using the
// default wire format. The input tree is not modified.
func AssignAttribute(tree Attributes, name string, raw any) Attributes {
	return defaultCaster.AssignAttribute(tree, name, raw)
}

// AssignAttributes merges every entry of attrs into tree using the default
// wire format. Keys are applied in sorted order.
func AssignAttributes(tree Attributes, attrs map[string]any) Attributes {
	return defaultCaster.AssignAttributes(tree, attrs)
}

// AssignPairs merges pairs into tree in the given order using the default wire
// format.
func AssignPairs(tree Attributes, pairs ...Pair) Attributes {
	return defaultCaster.AssignPairs(tree, pairs...)
}

// AssignAttribute merges one possibly dotted assignment into tree. The leaf
// value is cast first. When a bare id (or a relation reference) meets the
// expanded record of the same relation, both collapse into one mapping holding
// "id", whichever arrives first.
func (c *Caster) AssignAttribute(tree Attributes, name string, raw any) Attributes {
	segments := strings.Split(name, ".")

	var branch any = c.castValue(raw)
	for i := len(segments) - 1; i >= 0; i-- {
		branch = map[string]any{segments[i]: branch}
	}

	merged := deepMerge(map[string]any(tree), branch.(map[string]any))

	return Attributes(merged)
}

// AssignAttributes merges every entry of attrs into tree in sorted key order.
func (c *Caster) AssignAttributes(tree Attributes, attrs map[string]any) Attributes {
	for _, name := range slices.Sorted(maps.Keys(attrs)) {
		tree = c.AssignAttribute(tree, name, attrs[name])
	}

	if tree == nil {
		tree = Attributes{}
	}

	return tree
}

// AssignPairs merges pairs into tree in the given order.
func (c *Caster) AssignPairs(tree Attributes, pairs ...Pair) Attributes {
	for _, pair := range pairs {
		tree = c.AssignAttribute(tree, pair.Name, pair.Value)
	}

	if tree == nil {
		tree = Attributes{}
	}

	return tree
}

// castValue casts sequences element-wise and plain mappings key by key.
// json.Number leaves become int64 or float64.
func (c *Caster) castValue(value any) any {
	switch v := value.(type) {
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = c.castValue(item)
		}

		return out

	case Attributes:
		return c.castValue(map[string]any(v))

	case map[string]any:
		if c.IsTagged(v) {
			return c.Cast(v)
		}

		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = c.castValue(item)
		}

		return out

	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}

		if f, err := v.Float64(); err == nil {
			return f
		}

		return v

	default:
		return value
	}
}

// deepMerge returns a new mapping holding the union of base and overlay.
// Subtrees that are not merged are shared with the inputs.
func deepMerge(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for key, value := range base {
		out[key] = value
	}

	for key, value := range overlay {
		existing, ok := out[key]
		if !ok {
			out[key] = value

			continue
		}

		out[key] = mergeValue(existing, value)
	}

	return out
}

func mergeValue(existing, incoming any) any {
	existingMap, existingIsMap := asMap(existing)
	incomingMap, incomingIsMap := asMap(incoming)

	switch {
	case existingIsMap && incomingIsMap:
		return deepMerge(existingMap, incomingMap)

	case existingIsMap:
		if id, ok := RelationID(incoming); ok {
			return deepMerge(existingMap, map[string]any{"id": id})
		}

	case incomingIsMap:
		if id, ok := RelationID(existing); ok {
			return deepMerge(map[string]any{"id": id}, incomingMap)
		}
	}

	return incoming
}

func asMap(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case Attributes:
		return map[string]any(v), true
	default:
		return nil, false
	}
}

// RelationID extracts a record id from a bare integer or from a relation
// reference string like "sale.sale,1".
func RelationID(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true //nolint:gosec // record ids fit in int64
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true //nolint:gosec // record ids fit in int64
	case float32:
		return integralFloat(float64(v))
	case float64:
		return integralFloat(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true
		}

		if f, err := v.Float64(); err == nil {
			return integralFloat(f)
		}

		return 0, false
	case string:
		match := relationRefPattern.FindStringSubmatch(v)
		if match == nil {
			return 0, false
		}

		id, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			return 0, false
		}

		return id, true
	default:
		return 0, false
	}
}

func integralFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}

	return int64(f), true
}

// Dig walks a dotted path through nested mappings.
func Dig(tree Attributes, path string) (any, bool) {
	var current any = map[string]any(tree)

	for _, segment := range strings.Split(path, ".") {
		node, ok := asMap(current)
		if !ok {
			return nil, false
		}

		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}
