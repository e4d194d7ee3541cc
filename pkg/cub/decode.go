package cub

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Decoder turns parsed JSON into domain objects using a Registry.
// It is stateless apart from the registry and safe for concurrent use.
type Decoder struct {
	registry *Registry
}

var defaultDecoder = NewDecoder(nil)

// NewDecoder creates a decoder over registry; nil means DefaultRegistry.
func NewDecoder(registry *Registry) *Decoder {
	if registry == nil {
		registry = DefaultRegistry
	}

	return &Decoder{registry: registry}
}

// Decode is Decoder.Decode over DefaultRegistry.
func Decode(raw any) any {
	return defaultDecoder.Decode(raw)
}

// DecodeJSON is Decoder.DecodeJSON over DefaultRegistry.
func DecodeJSON(data []byte) (any, error) {
	return defaultDecoder.DecodeJSON(data)
}

// Registry returns the registry the decoder resolves kinds with.
func (d *Decoder) Registry() *Registry {
	return d.registry
}

// Decode builds typed values from a parsed JSON tree, depth first:
//
//   - a mapping with a string "object" field becomes the registered model for
//     that kind, or a generic *Object when the kind is unknown;
//   - any other mapping becomes a new map with decoded values;
//   - a sequence becomes a []any of decoded elements, in order;
//   - scalars are returned unchanged.
//
// Decode never fails and never modifies raw.
func (d *Decoder) Decode(raw any) any {
	switch v := raw.(type) {
	case map[string]any:
		kind, ok := v[DiscriminatorField].(string)
		if !ok {
			return d.decodeMap(v)
		}

		return d.decodeObject(kind, v)
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = d.Decode(item)
		}

		return items
	default:
		return raw
	}
}

func (d *Decoder) decodeMap(raw map[string]any) map[string]any {
	decoded := make(map[string]any, len(raw))
	for key, value := range raw {
		decoded[key] = d.Decode(value)
	}

	return decoded
}

func (d *Decoder) decodeObject(kind string, raw map[string]any) Model {
	fields := make(map[string]any, len(raw))

	for key, value := range raw {
		if key == DiscriminatorField || key == IDField {
			continue
		}

		fields[key] = d.Decode(value)
	}

	obj := NewObject(kind, raw[IDField], fields)

	ctor, ok := d.registry.Lookup(kind)
	if !ok {
		return obj
	}

	return ctor(obj)
}

// DecodeJSON parses data, keeping numbers as json.Number, and decodes it.
func (d *Decoder) DecodeJSON(data []byte) (any, error) {
	raw, err := ParseJSON(data)
	if err != nil {
		return nil, err
	}

	return d.Decode(raw), nil
}

// ParseJSON parses data into a generic tree with numbers kept as json.Number.
func ParseJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any

	err := dec.Decode(&raw)
	if err != nil {
		return nil, fmt.Errorf("parsing JSON payload: %w", err)
	}

	return raw, nil
}

// As asserts a decoded value to the model type T.
func As[T Model](value any) (T, bool) {
	model, ok := value.(T)

	return model, ok
}

// DecodeAs decodes a single object payload into T.
func DecodeAs[T Model](d *Decoder, data []byte) (T, error) {
	var zero T

	value, err := d.DecodeJSON(data)
	if err != nil {
		return zero, err
	}

	model, ok := As[T](value)
	if !ok {
		return zero, fmt.Errorf("%w: want %T, got %s", ErrUnexpectedKind, zero, describe(value))
	}

	return model, nil
}

// DecodeListAs decodes a list payload into []T. The payload is either a JSON
// array or an object wrapping the array under "data". Elements of another
// kind are reported as an error rather than dropped.
func DecodeListAs[T Model](d *Decoder, data []byte) ([]T, error) {
	value, err := d.DecodeJSON(data)
	if err != nil {
		return nil, err
	}

	items, ok := value.([]any)
	if !ok {
		if wrapper, isMap := value.(map[string]any); isMap {
			items, ok = wrapper["data"].([]any)
		}
	}

	if !ok {
		return nil, fmt.Errorf("%w: want a list, got %s", ErrUnexpectedPayload, describe(value))
	}

	models := make([]T, 0, len(items))

	for i, item := range items {
		model, ok := As[T](item)
		if !ok {
			var zero T

			return nil, fmt.Errorf("%w: item %d: want %T, got %s", ErrUnexpectedKind, i, zero, describe(item))
		}

		models = append(models, model)
	}

	return models, nil
}

func describe(value any) string {
	if model, ok := value.(Model); ok {
		return fmt.Sprintf("object %q", model.Kind())
	}

	return fmt.Sprintf("%T", value)
}

// Slice collects the elements of a decoded sequence that are of model type T.
// It reports false when value is not a sequence.
func Slice[T Model](value any) ([]T, bool) {
	items, ok := value.([]any)
	if !ok {
		return nil, false
	}

	models := make([]T, 0, len(items))

	for _, item := range items {
		if model, ok := As[T](item); ok {
			models = append(models, model)
		}
	}

	return models, true
}
