package httpparse

import "strings"

// decodeURLComponent percent-decodes s. Invalid '%' escapes (not followed
// by two hex digits) are preserved verbatim rather than rejected, per
// specification. When formEncoded is true, '+' decodes to a space.
func decodeURLComponent(s string, formEncoded bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '%':
			if i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
				b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
				i += 2
			} else {
				b.WriteByte(c)
			}
		case '+':
			if formEncoded {
				b.WriteByte(' ')
			} else {
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

// parseKVPairs splits a "k=v&k2=v2"-style string on sep, url-decodes
// each side, and returns a last-wins map. Keys without '=' map to "".
func parseKVPairs(s string, pairSep byte, formEncoded bool) map[string]string {
	out := map[string]string{}
	if s == "" {
		return out
	}
	for _, part := range strings.Split(s, string(pairSep)) {
		if part == "" {
			continue
		}
		var key, val string
		if eq := strings.IndexByte(part, '='); eq >= 0 {
			key, val = part[:eq], part[eq+1:]
		} else {
			key = part
		}
		out[decodeURLComponent(strings.TrimSpace(key), formEncoded)] = decodeURLComponent(val, formEncoded)
	}
	return out
}

// parseQuery parses the portion of a URI after '?'.
func parseQuery(raw string) map[string]string {
	return parseKVPairs(raw, '&', true)
}

// parseFormBody parses an application/x-www-form-urlencoded body.
func parseFormBody(raw string) map[string]string {
	return parseKVPairs(raw, '&', true)
}
