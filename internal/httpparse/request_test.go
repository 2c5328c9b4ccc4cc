package httpparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestParamQueryOverridesPost(t *testing.T) {
	r := NewRequest()
	r.PostParams["name"] = "from-post"
	r.Query["name"] = "from-query"

	v, ok := r.Param("name")
	assert.True(t, ok)
	assert.Equal(t, "from-query", v)
}

func TestRequestParamFallsBackToPost(t *testing.T) {
	r := NewRequest()
	r.PostParams["only"] = "post-value"

	v, ok := r.Param("only")
	assert.True(t, ok)
	assert.Equal(t, "post-value", v)
}

func TestRequestHeaderCaseInsensitive(t *testing.T) {
	r := NewRequest()
	r.Headers["content-type"] = "text/plain"

	v, ok := r.Header("Content-Type")
	assert.True(t, ok)
	assert.Equal(t, "text/plain", v)
}
