package httpparse

import (
	"bufio"
	"fmt"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/cserve/cserve/internal/wire"
)

// lineReader wraps a wire.Endpoint in a bufio.Reader sized to enforce
// the maximum header-line length, matching the teacher's readChunkLine
// discipline (bufio.ErrBufferFull maps to a too-long error instead of
// silently truncating).
type lineReader struct {
	br *bufio.Reader
}

func newLineReader(ep wire.Endpoint) *lineReader {
	return &lineReader{br: bufio.NewReaderSize(epReader{ep}, maxLineLength+1)}
}

// epReader adapts wire.Endpoint.ReadSome to io.Reader.
type epReader struct{ ep wire.Endpoint }

func (r epReader) Read(p []byte) (int, error) { return r.ep.ReadSome(p) }

func (l *lineReader) readLine(maxLen int) (string, error) {
	p, err := l.br.ReadSlice('\n')
	if err == bufio.ErrBufferFull || len(p) > maxLen {
		return "", ErrLineTooLong
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(p), "\r\n"), nil
}

// ParseRequestLine parses "METHOD SP URI SP HTTP/version CRLF".
func ParseRequestLine(l *lineReader) (method Method, uri, version string, err error) {
	line, err := l.readLine(maxURILength + 256)
	if err != nil {
		if err == ErrLineTooLong {
			return 0, "", "", ErrRequestURITooLong
		}
		return 0, "", "", err
	}
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return 0, "", "", ErrBadRequest
	}
	if len(parts[1]) > maxURILength {
		return 0, "", "", ErrRequestURITooLong
	}
	if !strings.HasPrefix(parts[2], "HTTP/") {
		return 0, "", "", ErrBadRequest
	}
	return ParseMethod(parts[0]), parts[1], parts[2], nil
}

// ParseHeaders reads header lines up to the terminating empty line,
// lowercasing names and applying last-wins on duplicates.
func ParseHeaders(l *lineReader) (map[string]string, error) {
	headers := map[string]string{}
	for {
		line, err := l.readLine(maxLineLength)
		if err != nil {
			return nil, err
		}
		if line == "" {
			return headers, nil
		}
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			return nil, fmt.Errorf("%w: missing colon in header %q", ErrBadRequest, line)
		}
		name := strings.TrimSpace(line[:colon])
		val := strings.TrimSpace(line[colon+1:])
		if !httpguts.ValidHeaderFieldName(name) || !httpguts.ValidHeaderFieldValue(val) {
			return nil, fmt.Errorf("%w: invalid header %q", ErrBadRequest, line)
		}
		headers[lowerASCII(name)] = val
	}
}
