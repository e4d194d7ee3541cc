package cub

import "fmt"

// Param is a single entry of an insertion-ordered parameter mapping.
type Param struct {
	Key   string
	Value any
}

// Params is an insertion-ordered mapping from string keys to parameter nodes.
// Use it instead of map[string]any whenever the order of the encoded keys
// matters; plain maps are encoded in sorted key order.
type Params []Param

// List is an ordered sequence of parameter nodes.
type List []any

// P builds Params from alternating key/value arguments. A trailing key without
// a value is paired with nil, non-string keys are rendered with fmt.Sprint and
// a repeated key keeps its first position with the last value.
func P(kv ...any) Params {
	params := make(Params, 0, (len(kv)+1)/2)

	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}

		var value any
		if i+1 < len(kv) {
			value = kv[i+1]
		}

		params = params.Set(key, value)
	}

	return params
}

// Set replaces the value of an existing key in place or appends a new entry.
func (p Params) Set(key string, value any) Params {
	for i := range p {
		if p[i].Key == key {
			p[i].Value = value

			return p
		}
	}

	return append(p, Param{Key: key, Value: value})
}

// Get returns the value stored under key.
func (p Params) Get(key string) (any, bool) {
	for _, param := range p {
		if param.Key == key {
			return param.Value, true
		}
	}

	return nil, false
}

// Delete removes key, keeping the order of the remaining entries.
func (p Params) Delete(key string) Params {
	for i := range p {
		if p[i].Key == key {
			return append(p[:i:i], p[i+1:]...)
		}
	}

	return p
}

// Merge returns a new Params with the entries of other applied over p.
func (p Params) Merge(other Params) Params {
	merged := make(Params, len(p), len(p)+len(other))
	copy(merged, p)

	for _, param := range other {
		merged = merged.Set(param.Key, param.Value)
	}

	return merged
}

// Keys returns the keys in insertion order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for _, param := range p {
		keys = append(keys, param.Key)
	}

	return keys
}
