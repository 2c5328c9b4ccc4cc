package httpparse

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// multipartParser splits a multipart/form-data body into fields and
// file uploads, tolerating both CRLF and bare-LF part boundaries per
// specification §4.2.
type multipartParser struct {
	br       *bufio.Reader
	boundary []byte
	tmpDir   string
}

func newMultipartParser(r io.Reader, boundary, tmpDir string) *multipartParser {
	return &multipartParser{
		br:       bufio.NewReaderSize(r, 32<<10),
		boundary: []byte("--" + boundary),
		tmpDir:   tmpDir,
	}
}

// Parse consumes the whole body and returns post params plus uploaded
// files. maxSize bounds the total bytes read from non-file parts; 0
// means no bound.
func (p *multipartParser) Parse(maxSize int64) (map[string]string, []UploadedFile, error) {
	postParams := map[string]string{}
	var uploads []UploadedFile
	var totalMem int64

	final, err := p.readBoundaryLine()
	if err != nil {
		return nil, nil, err
	}
	for !final {
		headers, err := p.readPartHeaders()
		if err != nil {
			return nil, nil, err
		}
		disposition, opts := ParseHeaderOptions(headers["content-disposition"])
		fieldName := unquote(opts["name"])
		filename, isFile := opts["filename"]

		if disposition == "form-data" && isFile && unquote(filename) != "" {
			upload, isFinal, err := p.streamFilePart(fieldName, unquote(filename))
			if err != nil {
				return nil, nil, err
			}
			uploads = append(uploads, upload)
			final = isFinal
			continue
		}

		var buf bytes.Buffer
		limit := int64(-1)
		if maxSize > 0 {
			limit = maxSize - totalMem
		}
		isFinal, err := p.readPartBody(&buf, limit)
		if err != nil {
			return nil, nil, err
		}
		if disposition == "form-data" {
			totalMem += int64(buf.Len())
			postParams[fieldName] = string(stripTrailingCRLF(buf.Bytes()))
		}
		final = isFinal
	}
	return postParams, uploads, nil
}

// readBoundaryLine reads up to and including the next boundary line and
// reports whether it was the final ("--B--") boundary.
func (p *multipartParser) readBoundaryLine() (final bool, err error) {
	for {
		line, err := p.readLineRaw()
		if err != nil {
			return false, ErrBadRequest
		}
		content := trimCRLF(line)
		if bytes.HasPrefix(content, p.boundary) {
			rest := content[len(p.boundary):]
			return bytes.HasPrefix(rest, []byte("--")), nil
		}
	}
}

func (p *multipartParser) readPartHeaders() (map[string]string, error) {
	headers := map[string]string{}
	for {
		line, err := p.readLineRaw()
		if err != nil {
			return nil, ErrBadRequest
		}
		trimmed := trimCRLF(line)
		if len(trimmed) == 0 {
			return headers, nil
		}
		colon := bytes.IndexByte(trimmed, ':')
		if colon < 0 {
			return nil, ErrBadRequest
		}
		name := lowerASCII(string(bytes.TrimSpace(trimmed[:colon])))
		val := string(bytes.TrimSpace(trimmed[colon+1:]))
		headers[name] = val
	}
}

// readLineRaw reads a line including its terminator, tolerating "\n"
// without a preceding "\r".
func (p *multipartParser) readLineRaw() ([]byte, error) {
	return p.br.ReadBytes('\n')
}

func trimCRLF(b []byte) []byte {
	b = bytes.TrimSuffix(b, []byte("\n"))
	b = bytes.TrimSuffix(b, []byte("\r"))
	return b
}

func stripTrailingCRLF(b []byte) []byte {
	b = bytes.TrimSuffix(b, []byte("\r\n"))
	return bytes.TrimSuffix(b, []byte("\n"))
}

// readPartBody copies lines into sink until it hits a boundary line,
// reporting whether that boundary was final. The boundary line's own
// preceding CRLF is left attached to the last data line; the caller
// strips it (stripTrailingCRLF for fields, trailingLineTerminatorSize
// for file parts).
func (p *multipartParser) readPartBody(sink io.Writer, limit int64) (final bool, err error) {
	var written int64
	for {
		line, err := p.readLineRaw()
		if err != nil {
			return false, ErrBadRequest
		}
		content := trimCRLF(line)
		if bytes.HasPrefix(content, p.boundary) {
			rest := content[len(p.boundary):]
			return bytes.HasPrefix(rest, []byte("--")), nil
		}
		if limit >= 0 {
			written += int64(len(line))
			if written > limit {
				return false, ErrPayloadTooLarge
			}
		}
		if _, err := sink.Write(line); err != nil {
			return false, err
		}
	}
}

// trailingLineTerminatorSize returns size minus the length of the line
// terminator ("\r\n" or "\n") ending the file at the given size, or size
// unchanged if there is no such terminator.
func trailingLineTerminatorSize(f *os.File, size int64) int64 {
	if size == 0 {
		return 0
	}
	tail := make([]byte, 2)
	n := 2
	if size < 2 {
		n = 1
	}
	if _, err := f.ReadAt(tail[:n], size-int64(n)); err != nil {
		return size
	}
	if n == 2 && tail[0] == '\r' && tail[1] == '\n' {
		return size - 2
	}
	if tail[n-1] == '\n' {
		return size - 1
	}
	return size
}

func (p *multipartParser) streamFilePart(fieldName, filename string) (UploadedFile, bool, error) {
	tmpName := filepath.Join(p.tmpDir, uuid.NewString())
	f, err := os.Create(tmpName)
	if err != nil {
		return UploadedFile{}, false, err
	}

	final, err := p.readPartBody(f, -1)
	if err != nil {
		f.Close()
		return UploadedFile{}, false, err
	}
	size, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		f.Close()
		return UploadedFile{}, false, err
	}
	// The line terminator immediately before the boundary delimiter
	// belongs to the delimiter, not the file content; it may be a bare
	// "\n" or a "\r\n" (§4.2 tolerates both).
	trimmed := trailingLineTerminatorSize(f, size)
	if err := f.Truncate(trimmed); err != nil {
		f.Close()
		return UploadedFile{}, false, err
	}
	if err := f.Close(); err != nil {
		return UploadedFile{}, false, err
	}

	mtype, mErr := mimetype.DetectFile(tmpName)
	mimeStr := ""
	if mErr == nil {
		mimeStr = mtype.String()
	}
	return UploadedFile{
		FieldName:    fieldName,
		OriginalName: filename,
		TempPath:     tmpName,
		MimeType:     mimeStr,
		SizeBytes:    trimmed,
	}, final, nil
}
