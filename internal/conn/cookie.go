package conn

import (
	"strconv"
	"strings"
	"time"
)

// Cookie holds the Set-Cookie attributes. The script bridge's
// sendCookie capability fills it from the option keys name, value,
// path, domain, maxAge, secure and httpOnly; a positive maxAge also
// sets Expires. The keys expires and http_only are not read.
type Cookie struct {
	Name     string
	Value    string
	Path     string
	Domain   string
	Expires  time.Time
	MaxAge   int
	Secure   bool
	HttpOnly bool
}

// String serialises the cookie for a Set-Cookie header.
func (c Cookie) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('=')
	b.WriteString(c.Value)
	if c.Path != "" {
		b.WriteString("; Path=")
		b.WriteString(c.Path)
	}
	if c.Domain != "" {
		b.WriteString("; Domain=")
		b.WriteString(c.Domain)
	}
	if !c.Expires.IsZero() {
		b.WriteString("; Expires=")
		b.WriteString(c.Expires.UTC().Format(TimeFormat))
	}
	if c.MaxAge != 0 {
		b.WriteString("; Max-Age=")
		b.WriteString(strconv.Itoa(c.MaxAge))
	}
	if c.Secure {
		b.WriteString("; Secure")
	}
	if c.HttpOnly {
		b.WriteString("; HttpOnly")
	}
	return b.String()
}

// TimeFormat is the wire format for cookie and response Date-like
// headers: RFC1123 with a hard-coded GMT zone, matching the teacher's
// TimeFormat constant.
const TimeFormat = "Mon, 02 Jan 2006 15:04:05 GMT"
