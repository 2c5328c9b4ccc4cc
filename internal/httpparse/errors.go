// Package httpparse turns bytes read from a wire.Endpoint into a
// populated Request: request line, headers, cookies, query string,
// url-encoded and multipart bodies, and chunked transfer bodies.
package httpparse

import "errors"

// Sentinel parse failures, mapped to HTTP status codes by the worker
// (internal/worker's statusForParseError) before it closes the
// connection.
var (
	ErrRequestURITooLong = errors.New("httpparse: request-uri too long")
	ErrLineTooLong       = errors.New("httpparse: header line too long")
	ErrPayloadTooLarge   = errors.New("httpparse: payload too large")
	ErrBadRequest        = errors.New("httpparse: malformed request")
	ErrMalformedChunk    = errors.New("httpparse: malformed chunked encoding")
)

const (
	maxURILength    = 64 << 10
	maxLineLength   = 64 << 10
	maxHexChunkSize = 16 // hex digits in a uint64
)
