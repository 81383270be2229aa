package rowset

import (
	"encoding/json"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		input    string
		expected any
	}{
		{"12", 12.0},
		{"  3.5 ", 3.5},
		{"-0.25", -0.25},
		{"1e3", 1000.0},
		{"abc", "abc"},
		{"  padded text ", "padded text"},
		{"", ""},
		{"   ", ""},
		{"Inf", "Inf"},
		{"NaN", "NaN"},
		{"12abc", "12abc"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Coerce(tt.input))
		})
	}
}

func TestCoerce_NumericRoundTrip(t *testing.T) {
	for _, s := range []string{"0.1", "123456.789", "-42", "6.02e23"} {
		v, ok := Coerce(s).(float64)
		require.True(t, ok, s)

		again, ok := Coerce(Format(v)).(float64)
		require.True(t, ok)
		assert.InDelta(t, v, again, math.Abs(v)*1e-12)
	}
}

func TestRowSet_JSONKeepsHeaderOrder(t *testing.T) {
	rs := RowSet{
		Headers: []string{"time", "temp", "label"},
		Rows: []Record{
			{"time": 1.0, "temp": 20.0, "label": "a"},
			{"time": 2.0, "temp": 22.0, "label": "b"},
		},
	}

	data, err := json.Marshal(rs)
	require.NoError(t, err)
	assert.Equal(t, `[{"time":1,"temp":20,"label":"a"},{"time":2,"temp":22,"label":"b"}]`, string(data))

	var back RowSet
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, rs, back)
}

func TestRowSet_UnmarshalEmpty(t *testing.T) {
	var rs RowSet
	require.NoError(t, json.Unmarshal([]byte(`[]`), &rs))
	assert.True(t, rs.IsEmpty())

	require.NoError(t, json.Unmarshal([]byte(`null`), &rs))
	assert.True(t, rs.IsEmpty())

	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &rs))
}

func TestRowSet_HeadAndNumbers(t *testing.T) {
	rs := RowSet{Headers: []string{"v"}}
	for i := 0; i < 10; i++ {
		rs.Rows = append(rs.Rows, Record{"v": float64(i)})
	}
	rs.Rows = append(rs.Rows, Record{"v": "n/a"})

	head := rs.Head(3)
	assert.Equal(t, 3, head.Len())
	assert.Equal(t, 0.0, head.Rows[0]["v"])
	assert.Equal(t, 2.0, head.Rows[2]["v"])
	assert.Equal(t, rs.Len(), rs.Head(100).Len())
	assert.Equal(t, 0, rs.Head(-1).Len())

	assert.Len(t, rs.Numbers("v"), 10)
	assert.Empty(t, rs.Numbers("missing"))
}

func TestRowSet_WithRowIDs(t *testing.T) {
	rs := RowSet{
		Headers: []string{"a"},
		Rows:    []Record{{"a": "x"}, {"a": "y"}},
	}

	keyed := rs.WithRowIDs()
	assert.Equal(t, []string{IDKey, "a"}, keyed.Headers)
	for i, row := range keyed.Rows {
		assert.Equal(t, i, row[IDKey])
	}
	_, mutated := rs.Rows[0][IDKey]
	assert.False(t, mutated)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "20", Format(20.0))
	assert.Equal(t, "0.5", Format(0.5))
	assert.Equal(t, "7", Format(7))
	assert.Equal(t, "x", Format("x"))
	assert.Equal(t, "", Format(nil))
	assert.Equal(t, strconv.FormatBool(true), Format(true))
}

func TestParseLeading(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"12", 12, true},
		{"  3.5kPa", 3.5, true},
		{"-.25", -0.25, true},
		{"1e3x", 1000, true},
		{"2e", 2, true},
		{"abc", 0, false},
		{"", 0, false},
		{"1e999", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseLeading(tt.input)
		assert.Equal(t, tt.ok, ok, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}
