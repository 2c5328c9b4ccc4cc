package httpparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkReaderReassemblesWikipediaExample(t *testing.T) {
	ep := pipeEndpoint(t, "4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n")
	cr := NewChunkReader(newLineReader(ep), 0)

	got, err := cr.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "Wikipedia", string(got))
}

func TestChunkReaderStripsChunkExtensions(t *testing.T) {
	ep := pipeEndpoint(t, "4;ext=val\r\nWiki\r\n0\r\n\r\n")
	cr := NewChunkReader(newLineReader(ep), 0)

	got, err := cr.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "Wiki", string(got))
}

func TestChunkReaderRejectsOversizePayload(t *testing.T) {
	ep := pipeEndpoint(t, "4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n")
	cr := NewChunkReader(newLineReader(ep), 4)

	_, err := cr.ReadAll()
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestChunkReaderRejectsMalformedHexSize(t *testing.T) {
	ep := pipeEndpoint(t, "zz\r\nWiki\r\n0\r\n\r\n")
	cr := NewChunkReader(newLineReader(ep), 0)

	_, err := cr.ReadAll()
	assert.ErrorIs(t, err, ErrMalformedChunk)
}

func TestParseRequestChunkedBodyReassemblesWikipediaExample(t *testing.T) {
	raw := "POST /upload HTTP/1.1\r\n" +
		"Host: example.com\r\n" +
		"Transfer-Encoding: chunked\r\n\r\n" +
		"4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n"

	ep := pipeEndpoint(t, raw)
	req, err := ParseRequest(ep, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Wikipedia", string(req.RawBody))
}
