package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromGoDemotesIntegralFloat(t *testing.T) {
	v := FromGo(float64(42))
	assert.Equal(t, KindInt, v.Kind)
	assert.Equal(t, int64(42), v.Int)
}

func TestFromGoKeepsFractionalFloat(t *testing.T) {
	v := FromGo(float64(4.5))
	assert.Equal(t, KindFloat, v.Kind)
	assert.Equal(t, 4.5, v.Float)
}

func TestFromGoNestedArrayAndTable(t *testing.T) {
	in := map[string]interface{}{
		"name": "alice",
		"tags": []interface{}{"a", "b"},
	}
	v := FromGo(in)
	assert.Equal(t, KindTable, v.Kind)
	assert.Equal(t, Str("alice"), v.Table["name"])
	assert.Equal(t, KindArray, v.Table["tags"].Kind)
	assert.Equal(t, Str("a"), v.Table["tags"].Array[0])
}

func TestToAnyFromAnyRoundTrip(t *testing.T) {
	original := map[string]interface{}{
		"n":    int64(7),
		"flag": true,
		"list": []interface{}{int64(1), int64(2)},
	}
	v := FromAny(original)
	back := ToAny(v)
	assert.Equal(t, original, back)
}

func TestUndefinedRoundTrip(t *testing.T) {
	v := FromGo(nil)
	assert.Equal(t, KindUndefined, v.Kind)
	assert.Nil(t, ToAny(v))
}
