package httpparse

import (
	"io"
	"strconv"
	"strings"

	"github.com/cserve/cserve/internal/wire"
)

// Options configures body-size limits and the upload scratch directory;
// all come from the resolved server configuration.
type Options struct {
	MaxPostSize int64
	TempDir     string
}

// ParseRequest reads one HTTP/1.1 request from ep and populates a Request.
func ParseRequest(ep wire.Endpoint, opts Options) (*Request, error) {
	lr := newLineReader(ep)

	method, uri, version, err := ParseRequestLine(lr)
	if err != nil {
		return nil, err
	}
	headers, err := ParseHeaders(lr)
	if err != nil {
		return nil, err
	}

	req := NewRequest()
	req.Method = method
	req.Version = version
	req.Headers = headers
	req.PeerIP = ep.PeerIP()
	req.PeerPort = ep.PeerPort()
	req.Secure = ep.Secure()

	if host, ok := headers["host"]; ok {
		req.Host = host
	}

	path, query := splitURI(uri)
	req.Path = path
	req.Query = parseQuery(query)

	if cookieHdr, ok := headers["cookie"]; ok {
		req.Cookies = parseCookieHeader(cookieHdr)
	}

	if ct, ok := headers["content-type"]; ok {
		req.ContentType, _ = ParseHeaderOptions(ct)
	}
	if cl, ok := headers["content-length"]; ok {
		if n, convErr := strconv.ParseInt(cl, 10, 64); convErr == nil {
			req.ContentLength = n
		}
	}

	if method != PUT && method != POST {
		return req, nil
	}

	chunked := strings.EqualFold(headers["transfer-encoding"], "chunked")

	var body []byte
	if chunked {
		cr := NewChunkReader(lr, opts.MaxPostSize)
		body, err = cr.ReadAll()
		if err != nil {
			return nil, err
		}
	} else {
		if opts.MaxPostSize > 0 && req.ContentLength > opts.MaxPostSize {
			return nil, ErrPayloadTooLarge
		}
		body = make([]byte, req.ContentLength)
		if req.ContentLength > 0 {
			if _, err := readFull(lr, body); err != nil {
				return nil, err
			}
		}
	}

	switch {
	case req.ContentType == "application/x-www-form-urlencoded":
		req.PostParams = parseFormBody(string(body))
	case req.ContentType == "multipart/form-data":
		_, opts2 := ParseHeaderOptions(headers["content-type"])
		boundary := opts2["boundary"]
		if boundary == "" {
			return nil, ErrBadRequest
		}
		mp := newMultipartParser(&bodyReader{body}, boundary, opts.TempDir)
		params, uploads, err := mp.Parse(opts.MaxPostSize)
		if err != nil {
			return nil, err
		}
		req.PostParams = params
		req.Uploads = uploads
	default:
		if opts.MaxPostSize > 0 && int64(len(body)) > opts.MaxPostSize {
			return nil, ErrPayloadTooLarge
		}
		req.RawBody = body
	}

	return req, nil
}

func splitURI(uri string) (path, query string) {
	if i := strings.IndexByte(uri, '?'); i >= 0 {
		return uri[:i], uri[i+1:]
	}
	return uri, ""
}

func readFull(l *lineReader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := l.br.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// bodyReader adapts an in-memory byte slice to io.Reader for the
// multipart parser, since the whole body is already materialised for
// chunked or content-length-delimited requests by the time we get here.
type bodyReader struct{ b []byte }

func (r *bodyReader) Read(p []byte) (int, error) {
	if len(r.b) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.b)
	r.b = r.b[n:]
	return n, nil
}
