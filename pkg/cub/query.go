package cub

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Bare literal tokens. A string parameter equal to one of them, or to any other
// JSON literal, is sent quoted so the server does not read it back as a
// boolean, null or number.
const (
	literalTrue  = "true"
	literalFalse = "false"
	literalNull  = "null"
)

// FlatParam is a single bracket-notation key with its rendered value.
type FlatParam struct {
	Key   string
	Value string
}

// FlatParams is the ordered output of Encode.
type FlatParams []FlatParam

// Encode flattens a parameter tree into bracket-notation pairs:
//
//	{"a": {"b": "val"}}            -> a[b]=val
//	{"list": [1, "str", nil]}      -> list[0]=1 list[1]=str list[2]=null
//	{"number": "1"}                -> number="1"
//
// Mapping keys keep their insertion order (use Params); plain Go maps are
// visited in sorted key order. Empty mappings and sequences produce nothing.
// Values Encode cannot classify are rendered with fmt.Sprint; use EncodeStrict
// to reject them instead. The input must be acyclic.
func Encode(node any) FlatParams {
	enc := &encoder{}
	enc.flatten("", node)

	return enc.out
}

// EncodeStrict is Encode that fails on values with no parameter form, such as
// funcs, channels or structs.
func EncodeStrict(node any) (FlatParams, error) {
	enc := &encoder{strict: true}
	enc.flatten("", node)

	if enc.err != nil {
		return nil, enc.err
	}

	return enc.out, nil
}

type encoder struct {
	out    FlatParams
	strict bool
	err    error
}

func (e *encoder) emit(key, value string) {
	e.out = append(e.out, FlatParam{Key: key, Value: value})
}

func (e *encoder) flatten(prefix string, value any) {
	if e.err != nil {
		return
	}

	switch v := value.(type) {
	case nil:
		e.emit(prefix, literalNull)
	case Identifier:
		if isNilPointer(v) {
			e.emit(prefix, literalNull)

			return
		}

		e.emit(prefix, v.ID())
	case bool:
		if v {
			e.emit(prefix, literalTrue)
		} else {
			e.emit(prefix, literalFalse)
		}
	case string:
		e.emit(prefix, quoteIfAmbiguous(v))
	case json.Number:
		e.emit(prefix, v.String())
	case int:
		e.emit(prefix, strconv.Itoa(v))
	case int64:
		e.emit(prefix, strconv.FormatInt(v, 10))
	case float64:
		e.emit(prefix, strconv.FormatFloat(v, 'f', -1, 64))
	case time.Time:
		e.emit(prefix, v.Format(time.RFC3339))
	case Params:
		for _, param := range v {
			e.flatten(childKey(prefix, param.Key), param.Value)
		}
	case List:
		for i, item := range v {
			e.flatten(indexKey(prefix, i), item)
		}
	case []any:
		for i, item := range v {
			e.flatten(indexKey(prefix, i), item)
		}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}

		slices.Sort(keys)

		for _, key := range keys {
			e.flatten(childKey(prefix, key), v[key])
		}
	default:
		e.flattenReflect(prefix, reflect.ValueOf(value))
	}
}

// flattenReflect handles named types, typed slices and maps, and pointers.
func (e *encoder) flattenReflect(prefix string, rv reflect.Value) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			e.emit(prefix, literalNull)

			return
		}

		e.flatten(prefix, rv.Elem().Interface())
	case reflect.String:
		e.emit(prefix, quoteIfAmbiguous(rv.String()))
	case reflect.Bool:
		e.flatten(prefix, rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.emit(prefix, strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		e.emit(prefix, strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32:
		e.emit(prefix, strconv.FormatFloat(rv.Float(), 'f', -1, 32))
	case reflect.Float64:
		e.emit(prefix, strconv.FormatFloat(rv.Float(), 'f', -1, 64))
	case reflect.Slice:
		if rv.IsNil() {
			e.emit(prefix, literalNull)

			return
		}

		if rv.Type().Elem().Kind() == reflect.Uint8 {
			e.emit(prefix, quoteIfAmbiguous(string(rv.Bytes())))

			return
		}

		e.flattenSequence(prefix, rv)
	case reflect.Array:
		e.flattenSequence(prefix, rv)
	case reflect.Map:
		if rv.IsNil() {
			e.emit(prefix, literalNull)

			return
		}

		e.flattenMap(prefix, rv)
	default:
		if e.strict {
			e.err = fmt.Errorf("%w: %s of kind %s", ErrUnsupportedParam, prefix, rv.Kind())

			return
		}

		e.emit(prefix, fmt.Sprint(rv.Interface()))
	}
}

func (e *encoder) flattenSequence(prefix string, rv reflect.Value) {
	for i := range rv.Len() {
		e.flatten(indexKey(prefix, i), rv.Index(i).Interface())
	}
}

func (e *encoder) flattenMap(prefix string, rv reflect.Value) {
	type entry struct {
		key   string
		value reflect.Value
	}

	entries := make([]entry, 0, rv.Len())

	iter := rv.MapRange()
	for iter.Next() {
		entries = append(entries, entry{key: fmt.Sprint(iter.Key().Interface()), value: iter.Value()})
	}

	slices.SortFunc(entries, func(a, b entry) int {
		return strings.Compare(a.key, b.key)
	})

	for _, item := range entries {
		e.flatten(childKey(prefix, item.key), item.value.Interface())
	}
}

func childKey(prefix, key string) string {
	if prefix == "" {
		return key
	}

	return prefix + "[" + key + "]"
}

func indexKey(prefix string, index int) string {
	return prefix + "[" + strconv.Itoa(index) + "]"
}

// quoteIfAmbiguous quotes s when the server would otherwise read it as a
// non-string value: JSON literals such as "true", "null", "-1.5" or "[1]",
// and anything that parses as a decimal integer, including "007" and "+1".
// Plain words and the empty string are sent as is.
func quoteIfAmbiguous(s string) string {
	if _, err := strconv.ParseInt(s, 10, 64); err != nil && !json.Valid([]byte(s)) {
		return s
	}

	return jsonString(s)
}

// jsonString renders s as a JSON string literal without HTML escaping.
func jsonString(s string) string {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	// Encoding a string cannot fail.
	_ = enc.Encode(s)

	return strings.TrimSuffix(buf.String(), "\n")
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)

	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// Values converts the pairs to url.Values. Keys are unique, so every entry
// holds a single value.
func (p FlatParams) Values() url.Values {
	values := make(url.Values, len(p))
	for _, param := range p {
		values.Add(param.Key, param.Value)
	}

	return values
}

// Map returns the pairs as a plain map.
func (p FlatParams) Map() map[string]string {
	m := make(map[string]string, len(p))
	for _, param := range p {
		m[param.Key] = param.Value
	}

	return m
}

// Encode renders the pairs as an application/x-www-form-urlencoded string,
// keeping their order (url.Values.Encode would sort them).
func (p FlatParams) Encode() string {
	var buf strings.Builder

	for i, param := range p {
		if i > 0 {
			buf.WriteByte('&')
		}

		buf.WriteString(url.QueryEscape(param.Key))
		buf.WriteByte('=')
		buf.WriteString(url.QueryEscape(param.Value))
	}

	return buf.String()
}

// JSON renders the pairs as a flat JSON object with bracketed keys, keeping
// their order.
func (p FlatParams) JSON() []byte {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, param := range p {
		if i > 0 {
			buf.WriteByte(',')
		}

		buf.WriteString(jsonString(param.Key))
		buf.WriteByte(':')
		buf.WriteString(jsonString(param.Value))
	}

	buf.WriteByte('}')

	return buf.Bytes()
}
