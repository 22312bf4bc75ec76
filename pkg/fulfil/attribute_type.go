package fulfil

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/fivetwenty-io/fulfil-client/internal/constants"
	"github.com/shopspring/decimal"
)

// TypeKind identifies a tagged wire value.
type TypeKind string

const (
	KindBytes     TypeKind = "bytes"
	KindDate      TypeKind = "date"
	KindDateTime  TypeKind = "datetime"
	KindTime      TypeKind = "time"
	KindTimeDelta TypeKind = "timedelta"
	KindDecimal   TypeKind = "decimal"
)

// WireFormat names the reserved keys of tagged values. A tagged value is a
// mapping carrying Discriminator; its payload lives under the key registered
// for the kind in PayloadKeys.
type WireFormat struct {
	Discriminator string
	PayloadKeys   map[TypeKind]string
}

// DefaultWireFormat returns the key names used by the Fulfil API.
func DefaultWireFormat() *WireFormat {
	return &WireFormat{
		Discriminator: constants.DiscriminatorKey,
		PayloadKeys: map[TypeKind]string{
			KindBytes:     constants.Base64Key,
			KindDate:      constants.ISOStringKey,
			KindDateTime:  constants.ISOStringKey,
			KindTime:      constants.ISOStringKey,
			KindTimeDelta: constants.ISOStringKey,
			KindDecimal:   constants.DecimalKey,
		},
	}
}

// base64Noise strips line breaks, including escaped ones, from encoded payloads.
var base64Noise = strings.NewReplacer(`\n`, "", "\n", "", "\r", "", " ", "")

var (
	dateLayouts     = []string{time.DateOnly}
	dateTimeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", time.DateTime, "2006-01-02 15:04:05.999999999"}
	timeLayouts     = []string{"15:04:05.999999999", time.TimeOnly, "15:04"}
)

// Caster converts wire values into their in-memory representation.
type Caster struct {
	format *WireFormat
}

// NewCaster creates a caster for the given wire format. A nil format means
// DefaultWireFormat.
func NewCaster(format *WireFormat) *Caster {
	if format == nil {
		format = DefaultWireFormat()
	}

	return &Caster{format: format}
}

// Cast returns the typed value of a tagged mapping. Every other value,
// including tagged mappings of an unknown kind or with an unparsable payload,
// is returned unchanged.
func (c *Caster) Cast(value any) any {
	tagged, ok := value.(map[string]any)
	if !ok {
		return value
	}

	kind, ok := tagged[c.format.Discriminator].(string)
	if !ok {
		return value
	}

	key, ok := c.format.PayloadKeys[TypeKind(kind)]
	if !ok {
		return value
	}

	payload, ok := payloadString(tagged[key])
	if !ok {
		return value
	}

	cast, ok := c.castKind(TypeKind(kind), payload)
	if !ok {
		return value
	}

	return cast
}

// IsTagged reports whether value is a mapping carrying the discriminator.
func (c *Caster) IsTagged(value any) bool {
	tagged, ok := value.(map[string]any)
	if !ok {
		return false
	}

	_, ok = tagged[c.format.Discriminator]

	return ok
}

func (c *Caster) castKind(kind TypeKind, payload string) (any, bool) {
	switch kind {
	case KindBytes:
		decoded, err := base64.StdEncoding.DecodeString(base64Noise.Replace(payload))
		if err != nil {
			return nil, false
		}

		return decoded, true

	case KindDate:
		return parseTime(payload, dateLayouts)

	case KindDateTime:
		return parseTime(payload, dateTimeLayouts)

	case KindTime:
		return parseTime(payload, timeLayouts)

	case KindDecimal:
		d, err := decimal.NewFromString(strings.TrimSpace(payload))
		if err != nil {
			return nil, false
		}

		return d, true

	case KindTimeDelta:
		return payload, true

	default:
		return nil, false
	}
}

func parseTime(value string, layouts []string) (any, bool) {
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed, true
		}
	}

	return nil, false
}

// Encode returns value in wire form, the inverse of Cast. time.Time values
// on 0000-01-01 are sent as time, values at UTC midnight as date and every
// other instant as a naive UTC datetime. Decimals keep their scale. Mappings
// and sequences are encoded element-wise.
func (c *Caster) Encode(value any) any {
	switch v := value.(type) {
	case time.Time:
		kind, payload := encodeTime(v)

		return c.tag(kind, payload)

	case decimal.Decimal:
		return c.tag(KindDecimal, decimalString(v))

	case []byte:
		return c.tag(KindBytes, base64.StdEncoding.EncodeToString(v))

	case Attributes:
		return c.Encode(map[string]any(v))

	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = c.Encode(item)
		}

		return out

	case []map[string]any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = c.Encode(item)
		}

		return out

	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = c.Encode(item)
		}

		return out

	default:
		return value
	}
}

func (c *Caster) tag(kind TypeKind, payload string) map[string]any {
	return map[string]any{
		c.format.Discriminator:     string(kind),
		c.format.PayloadKeys[kind]: payload,
	}
}

func encodeTime(t time.Time) (TypeKind, string) {
	if t.Year() == 0 && t.Month() == time.January && t.Day() == 1 {
		return KindTime, t.Format(timeLayouts[0])
	}

	utc := t.UTC()
	if t.Location() == time.UTC && utc.Hour() == 0 && utc.Minute() == 0 && utc.Second() == 0 && utc.Nanosecond() == 0 {
		return KindDate, utc.Format(time.DateOnly)
	}

	return KindDateTime, utc.Format(dateTimeLayouts[1])
}

// decimalString keeps trailing zeros so "12.50" goes back out as "12.50".
func decimalString(d decimal.Decimal) string {
	if d.Exponent() < 0 {
		return d.StringFixed(-d.Exponent())
	}

	return d.String()
}

// payloadString accepts strings and json.Number (decimal payloads are
// sometimes sent unquoted).
func payloadString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}
