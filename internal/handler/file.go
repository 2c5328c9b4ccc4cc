package handler

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cserve/cserve/internal/conn"
	"github.com/cserve/cserve/internal/dispatch"
	"github.com/cserve/cserve/internal/script"
)

// File serves static files rooted at Root, grounded on the teacher's
// filetransport.fileHandler: clean the URL path, strip the matched
// route prefix, join under the root, and stream the whole file (or a
// single byte range, per filetransport/http_range.go's httpRange
// contentRange/mimeHeader shape) via Connection.SendFile.
type File struct {
	Root string
}

func (File) Name() string { return "file" }

func (f File) Handle(c *conn.Connection, _ *script.Bridge, route dispatch.Route) error {
	upath := c.Request.Path
	if !strings.HasPrefix(upath, "/") {
		upath = "/" + upath
	}
	upath = strings.TrimPrefix(upath, route.Prefix)
	clean := path.Clean("/" + upath)

	full := filepath.Join(f.Root, filepath.FromSlash(clean))
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		if err2 := c.SetStatus(404, ""); err2 != nil {
			return err2
		}
		return c.Flush()
	}

	from, to, partial, err := rangeFor(c, info.Size())
	if err != nil {
		if err2 := c.SetStatus(416, ""); err2 != nil {
			return err2
		}
		if err2 := c.SetHeader("content-range", fmt.Sprintf("bytes */%d", info.Size())); err2 != nil {
			return err2
		}
		return c.Flush()
	}

	status := 200
	if partial {
		status = 206
		if err := c.SetHeader("content-range", fmt.Sprintf("bytes %d-%d/%d", from, to-1, info.Size())); err != nil {
			return err
		}
	}
	if err := c.SetStatus(status, ""); err != nil {
		return err
	}
	if err := c.SendFile(full, from, to); err != nil {
		return err
	}
	return c.Flush()
}

// rangeFor parses a single "bytes=start-end" Range header, the one-range
// subset of RFC 7233 the original's httpRange type models. No Range
// header, or one this parser doesn't recognise, serves the whole file.
func rangeFor(c *conn.Connection, size int64) (from, to int64, partial bool, err error) {
	raw, ok := c.Request.Header("range")
	if !ok || !strings.HasPrefix(raw, "bytes=") {
		return 0, size, false, nil
	}
	spec := strings.TrimPrefix(raw, "bytes=")
	if strings.Contains(spec, ",") {
		return 0, size, false, nil
	}
	dash := strings.IndexByte(spec, '-')
	if dash < 0 {
		return 0, size, false, nil
	}
	startStr, endStr := spec[:dash], spec[dash+1:]

	if startStr == "" {
		n, convErr := strconv.ParseInt(endStr, 10, 64)
		if convErr != nil || n <= 0 {
			return 0, 0, false, fmt.Errorf("handler: invalid suffix range %q", raw)
		}
		if n > size {
			n = size
		}
		return size - n, size, true, nil
	}

	start, convErr := strconv.ParseInt(startStr, 10, 64)
	if convErr != nil || start < 0 || start >= size {
		return 0, 0, false, fmt.Errorf("handler: invalid range start %q", raw)
	}
	end := size - 1
	if endStr != "" {
		e, convErr := strconv.ParseInt(endStr, 10, 64)
		if convErr != nil || e < start {
			return 0, 0, false, fmt.Errorf("handler: invalid range end %q", raw)
		}
		if e < end {
			end = e
		}
	}
	return start, end + 1, true, nil
}
