package cub

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"sync"
	"time"
)

// Reserved payload fields.
const (
	// DiscriminatorField names the payload field holding the object kind.
	DiscriminatorField = "object"

	// IDField names the payload field holding the object identifier.
	IDField = "id"
)

// Identifier is implemented by anything that can stand in for a domain object
// in request parameters.
type Identifier interface {
	ID() string
}

// Model is implemented by every decoded domain object.
type Model interface {
	Identifier
	Kind() string
	Base() *Object
}

// Object is the decoded representation of a tagged JSON payload. Fields keep
// every payload field except "id" and "object", with nested objects already
// decoded; those two are exposed through RawID/ID and Kind, and MarshalJSON
// writes them back. This holds for unregistered kinds too.
// Accessors report absence explicitly instead of failing, because partial
// responses omit fields that were not requested.
//
// Object is safe for concurrent reads; Replace swaps its state in place so
// that every holder of the pointer observes a reload.
type Object struct {
	mu     sync.RWMutex
	kind   string
	id     any
	fields map[string]any
}

// NewObject builds an object of the given kind. A nil id leaves the object
// unidentified until the first Replace.
func NewObject(kind string, id any, fields map[string]any) *Object {
	if fields == nil {
		fields = make(map[string]any)
	}

	return &Object{kind: kind, id: id, fields: fields}
}

// ObjectRef returns an unidentified-kind object carrying only an identifier,
// useful to reference existing objects in request parameters.
func ObjectRef(id string) *Object {
	return &Object{id: id, fields: make(map[string]any)}
}

// Kind returns the discriminator value the object was decoded from.
func (o *Object) Kind() string {
	return o.kind
}

// Base returns the object itself; typed models embed *Object.
func (o *Object) Base() *Object {
	return o
}

// ID returns the identifier rendered as a string, or "" when unset.
func (o *Object) ID() string {
	if o == nil {
		return ""
	}

	o.mu.RLock()
	defer o.mu.RUnlock()

	return formatScalar(o.id)
}

// RawID returns the identifier as it appeared in the payload.
func (o *Object) RawID() any {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.id
}

// Get returns the named field and whether the payload contained it.
func (o *Object) Get(name string) (any, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	value, ok := o.fields[name]

	return value, ok
}

// Has reports whether the payload contained the named field.
func (o *Object) Has(name string) bool {
	_, ok := o.Get(name)

	return ok
}

// Fields returns a shallow copy of all fields.
func (o *Object) Fields() map[string]any {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return maps.Clone(o.fields)
}

// FieldNames returns the field names in sorted order.
func (o *Object) FieldNames() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return slices.Sorted(maps.Keys(o.fields))
}

// String returns a string field. Numbers are rendered as text.
func (o *Object) String(name string) (string, bool) {
	value, ok := o.Get(name)
	if !ok || value == nil {
		return "", false
	}

	switch v := value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	}

	return "", false
}

// Bool returns a boolean field.
func (o *Object) Bool(name string) (bool, bool) {
	value, ok := o.Get(name)
	if !ok {
		return false, false
	}

	b, ok := value.(bool)

	return b, ok
}

// Int returns an integer field.
func (o *Object) Int(name string) (int64, bool) {
	value, ok := o.Get(name)
	if !ok {
		return 0, false
	}

	switch v := value.(type) {
	case json.Number:
		n, err := v.Int64()

		return n, err == nil
	case float64:
		return int64(v), v == float64(int64(v))
	case int:
		return int64(v), true
	case int64:
		return v, true
	}

	return 0, false
}

// Time returns a timestamp field parsed as RFC 3339.
func (o *Object) Time(name string) (time.Time, bool) {
	s, ok := o.String(name)
	if !ok {
		return time.Time{}, false
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}

// Related returns a nested decoded object. Relations that were not expanded
// arrive as bare identifiers; they are reported as an unkinded reference.
func (o *Object) Related(name string) (Model, bool) {
	value, ok := o.Get(name)
	if !ok || value == nil {
		return nil, false
	}

	switch v := value.(type) {
	case Model:
		return v, true
	case string, json.Number:
		return ObjectRef(formatScalar(v)), true
	}

	return nil, false
}

// RelatedList returns a nested sequence of decoded objects, skipping elements
// that are not objects.
func (o *Object) RelatedList(name string) ([]Model, bool) {
	value, ok := o.Get(name)
	if !ok {
		return nil, false
	}

	items, ok := value.([]any)
	if !ok {
		return nil, false
	}

	models := make([]Model, 0, len(items))

	for _, item := range items {
		if model, ok := item.(Model); ok {
			models = append(models, model)
		}
	}

	return models, true
}

// Replace swaps in the state of fresh, keeping o's identity. It is the
// in-place refresh used by reload operations.
func (o *Object) Replace(fresh *Object) error {
	if fresh == o {
		return nil
	}

	fresh.mu.RLock()
	kind, id, fields := fresh.kind, fresh.id, maps.Clone(fresh.fields)
	fresh.mu.RUnlock()

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.id != nil && id != nil && formatScalar(o.id) != formatScalar(id) {
		return fmt.Errorf("%w: have %v, got %v", ErrIdentityMismatch, o.id, id)
	}

	if o.id == nil {
		o.id = id
	}

	if kind != "" {
		o.kind = kind
	}

	o.fields = fields

	return nil
}

// MarshalJSON renders the object back into its payload form.
func (o *Object) MarshalJSON() ([]byte, error) {
	o.mu.RLock()
	payload := maps.Clone(o.fields)
	kind, id := o.kind, o.id
	o.mu.RUnlock()

	if payload == nil {
		payload = make(map[string]any, 2)
	}

	if kind != "" {
		payload[DiscriminatorField] = kind
	}

	if id != nil {
		payload[IDField] = id
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s object: %w", kind, err)
	}

	return data, nil
}

func formatScalar(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}

	return fmt.Sprint(value)
}
