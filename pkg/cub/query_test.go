package cub_test

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/ivelum/cub-client/pkg/cub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func flat(kv ...string) cub.FlatParams {
	params := make(cub.FlatParams, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		params = append(params, cub.FlatParam{Key: kv[i], Value: kv[i+1]})
	}

	return params
}

//nolint:funlen // Test functions can be longer for detailed testing
func TestEncode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    any
		expected cub.FlatParams
	}{
		{
			name:     "nested mapping",
			input:    cub.P("a", cub.P("b", "val")),
			expected: flat("a[b]", "val"),
		},
		{
			name:     "list with scalars and null",
			input:    cub.P("list", cub.List{1, "str", nil}),
			expected: flat("list[0]", "1", "list[1]", "str", "list[2]", "null"),
		},
		{
			name:     "object reference",
			input:    cub.P("obj", cub.ObjectRef("cub_1")),
			expected: flat("obj", "cub_1"),
		},
		{
			name:     "mapping order follows insertion",
			input:    cub.P("list", cub.List{1, "str", nil}, "dict", cub.P("dkey", "dval"), "key", "val"),
			expected: flat("list[0]", "1", "list[1]", "str", "list[2]", "null", "dict[dkey]", "dval", "key", "val"),
		},
		{
			name:     "empty containers",
			input:    cub.P("empty_list", cub.List{}, "empty_dict", cub.Params{}),
			expected: nil,
		},
		{
			name:     "list inside mapping",
			input:    cub.P("root", cub.P("dict", cub.List{"val1", "val2"})),
			expected: flat("root[dict][0]", "val1", "root[dict][1]", "val2"),
		},
		{
			name:     "sibling lists",
			input:    cub.P("root", cub.P("dict1", cub.List{"val1"}, "dict2", cub.List{"val2"})),
			expected: flat("root[dict1][0]", "val1", "root[dict2][0]", "val2"),
		},
		{
			name:     "mapping inside list",
			input:    cub.P("root", cub.List{cub.P("key", "val")}),
			expected: flat("root[0][key]", "val"),
		},
		{
			name:     "deeply nested lists",
			input:    cub.P("root", cub.List{cub.List{cub.List{1}, 1}, 1}),
			expected: flat("root[0][0][0]", "1", "root[0][1]", "1", "root[1]", "1"),
		},
		{
			name: "list of records",
			input: cub.P("list", cub.List{
				cub.P("name", "John", "age", 20),
				cub.P("name", "Kate", "age", 18),
				cub.P("name", "Smith", "age", 30),
			}),
			expected: flat(
				"list[0][name]", "John", "list[0][age]", "20",
				"list[1][name]", "Kate", "list[1][age]", "18",
				"list[2][name]", "Smith", "list[2][age]", "30",
			),
		},
		{
			name:     "plain map is visited in sorted order",
			input:    map[string]any{"b": 2, "a": map[string]any{"y": true, "x": false}},
			expected: flat("a[x]", "false", "a[y]", "true", "b", "2"),
		},
		{
			name:     "typed slices and pointers",
			input:    cub.P("ids", []string{"u1", "u2"}, "count", ptr(3), "missing", (*int)(nil)),
			expected: flat("ids[0]", "u1", "ids[1]", "u2", "count", "3", "missing", "null"),
		},
		{
			name:     "time is rendered as RFC 3339",
			input:    cub.P("since", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
			expected: flat("since", "2024-05-01T12:00:00Z"),
		},
		{
			name:     "json numbers pass through",
			input:    cub.P("n", json.Number("12.50")),
			expected: flat("n", "12.50"),
		},
		{
			name:     "empty top level mapping",
			input:    cub.Params{},
			expected: nil,
		},
		{
			name:     "empty top level list",
			input:    cub.List{},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, cub.Encode(tt.input))
		})
	}
}

func TestEncode_ReservedLiterals(t *testing.T) {
	t.Parallel()

	input := cub.P(
		"str", "str", "int", 1,
		"True", true, "False", false, "None", nil,
		"true", "true", "false", "false", "null", "null", "number", "1",
	)

	expected := map[string]string{
		"str": "str", "int": "1",
		"True": "true", "False": "false", "None": "null",
		"true": `"true"`, "false": `"false"`, "null": `"null"`,
		"number": `"1"`,
	}

	assert.Equal(t, expected, cub.Encode(input).Map())
}

func TestEncode_QuotingBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"1", `"1"`},
		{"-1", `"-1"`},
		{"1.5", `"1.5"`},
		{"1e3", `"1e3"`},
		{"0", `"0"`},
		{"[1]", `"[1]"`},
		{`"quoted"`, `"\"quoted\""`},
		{"007", `"007"`},
		{"01", `"01"`},
		{"+1", `"+1"`},
		{"-007", `"-007"`},
		{"1.", "1."},
		{"", ""},
		{"abc", "abc"},
		{"True", "True"},
		{"1 apple", "1 apple"},
		{"<b>", "<b>"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.input), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, flat("v", tt.expected), cub.Encode(cub.P("v", tt.input)))
		})
	}
}

func TestEncode_TopLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, flat("[0]", "a", "[1]", "b"), cub.Encode(cub.List{"a", "b"}))
	assert.Equal(t, flat("", "x"), cub.Encode("x"))
}

func TestP_KeysAreUnique(t *testing.T) {
	t.Parallel()

	params := cub.P("a", 1, "b", 2, "a", 3, 7, "seven", "tail")

	assert.Equal(t, cub.Params{
		{Key: "a", Value: 3},
		{Key: "b", Value: 2},
		{Key: "7", Value: "seven"},
		{Key: "tail", Value: nil},
	}, params)
	assert.Equal(t, flat("a", "3", "b", "2", "7", "seven", "tail", "null"), cub.Encode(params))
}

func TestEncode_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	input := map[string]any{"a": []any{"1", map[string]any{"b": nil}}}
	snapshot, err := json.Marshal(input)
	require.NoError(t, err)

	cub.Encode(input)

	after, err := json.Marshal(input)
	require.NoError(t, err)
	assert.JSONEq(t, string(snapshot), string(after))
}

func TestEncodeStrict(t *testing.T) {
	t.Parallel()

	_, err := cub.EncodeStrict(cub.P("fn", func() {}))
	require.ErrorIs(t, err, cub.ErrUnsupportedParam)

	params, err := cub.EncodeStrict(cub.P("ok", "yes"))
	require.NoError(t, err)
	assert.Equal(t, flat("ok", "yes"), params)
}

func TestFlatParams_Renderers(t *testing.T) {
	t.Parallel()

	params := cub.Encode(cub.P("z", "1", "a", cub.P("b c", "x&y")))

	assert.Equal(t, `z=%221%22&a%5Bb+c%5D=x%26y`, params.Encode())
	assert.Equal(t, []string{`"1"`}, params.Values()["z"])

	data := params.JSON()
	assert.JSONEq(t, `{"z":"\"1\"","a[b c]":"x&y"}`, string(data))
	assert.Equal(t, `{"z":"\"1\"","a[b c]":"x&y"}`, string(data))
}

func TestEncode_LeafCountProperty(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		node := drawNode(rt, 3)

		params := cub.Encode(node)

		assert.Len(rt, params, countLeaves(node))

		seen := make(map[string]bool, len(params))
		for _, param := range params {
			assert.False(rt, seen[param.Key], "duplicate key %q", param.Key)
			seen[param.Key] = true
		}
	})
}

// drawNode generates a parameter tree without empty containers.
func drawNode(rt *rapid.T, depth int) any {
	kind := 0
	if depth > 0 {
		kind = rapid.IntRange(0, 2).Draw(rt, "kind")
	}

	switch kind {
	case 1:
		size := rapid.IntRange(1, 3).Draw(rt, "list_size")

		list := make(cub.List, 0, size)
		for range size {
			list = append(list, drawNode(rt, depth-1))
		}

		return list
	case 2:
		keys := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-z]{1,6}`), 1, 3, rapid.ID[string]).Draw(rt, "keys")

		params := make(cub.Params, 0, len(keys))
		for _, key := range keys {
			params = append(params, cub.Param{Key: key, Value: drawNode(rt, depth-1)})
		}

		return params
	}

	switch rapid.IntRange(0, 3).Draw(rt, "scalar") {
	case 0:
		return rapid.String().Draw(rt, "string")
	case 1:
		return rapid.Int().Draw(rt, "int")
	case 2:
		return rapid.Bool().Draw(rt, "bool")
	default:
		return nil
	}
}

func countLeaves(node any) int {
	switch v := node.(type) {
	case cub.List:
		total := 0
		for _, item := range v {
			total += countLeaves(item)
		}

		return total
	case cub.Params:
		total := 0
		for _, param := range v {
			total += countLeaves(param.Value)
		}

		return total
	default:
		return 1
	}
}

func ptr[T any](v T) *T {
	return &v
}
