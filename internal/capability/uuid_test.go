package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDBase62RoundTrip(t *testing.T) {
	c := NewUUIDCodec()
	id := c.NewUUID()

	enc, err := c.ToBase62(id)
	require.NoError(t, err)

	dec, err := c.FromBase62(enc)
	require.NoError(t, err)
	assert.Equal(t, id, dec)
}

func TestUUIDFromBase62Invalid(t *testing.T) {
	c := NewUUIDCodec()
	_, err := c.FromBase62("not-base62!!")
	assert.Error(t, err)
}
