package httpparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuery(t *testing.T) {
	q := parseQuery("a=1&b=hello%20world&c=")
	assert.Equal(t, "1", q["a"])
	assert.Equal(t, "hello world", q["b"])
	assert.Equal(t, "", q["c"])
}

func TestParseQueryLastWins(t *testing.T) {
	q := parseQuery("a=1&a=2")
	assert.Equal(t, "2", q["a"])
}

func TestParseFormBodyPlusAsSpace(t *testing.T) {
	f := parseFormBody("name=John+Doe")
	assert.Equal(t, "John Doe", f["name"])
}

func TestDecodeURLComponentPreservesInvalidEscape(t *testing.T) {
	assert.Equal(t, "100%", decodeURLComponent("100%25", false))
	assert.Equal(t, "a%zzb", decodeURLComponent("a%zzb", false))
}
