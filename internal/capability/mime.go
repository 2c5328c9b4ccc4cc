package capability

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MimeInspector wraps content-sniffing MIME detection, grounded on
// lua_parse_mimetype / lua_file_mimetype / lua_file_mimeconsistency.
type MimeInspector struct{}

func NewMimeInspector() *MimeInspector { return &MimeInspector{} }

// Parse returns the media type and subtype split on '/', mirroring
// lua_parse_mimetype's header-string parsing (no sniffing involved).
func (MimeInspector) Parse(header string) (mediaType, subType string) {
	for i := 0; i < len(header); i++ {
		if header[i] == '/' {
			rest := header[i+1:]
			if semi := strings.IndexByte(rest, ';'); semi >= 0 {
				rest = rest[:semi]
			}
			return header[:i], strings.TrimSpace(rest)
		}
		if header[i] == ';' {
			break
		}
	}
	return header, ""
}

// FileMimeType sniffs path's content and returns its detected MIME type.
func (MimeInspector) FileMimeType(path string) (string, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}
	return mt.String(), nil
}

// FileMimeConsistency reports whether path's sniffed content type agrees
// with claimedType, the capability behind lua_file_mimeconsistency's
// upload-validation use.
func (m MimeInspector) FileMimeConsistency(path, claimedType string) (bool, error) {
	detected, err := m.FileMimeType(path)
	if err != nil {
		return false, err
	}
	wantMedia, wantSub := m.Parse(claimedType)
	gotMedia, gotSub := m.Parse(detected)
	return wantMedia == gotMedia && wantSub == gotSub, nil
}
