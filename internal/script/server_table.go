package script

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cserve/cserve/internal/capability"
	"github.com/cserve/cserve/internal/conn"
)

// buildServerTable assembles the "server" object every request script
// sees, mirroring the capability surface original_source/lib/LuaServer.cpp
// registers (print, setBuffer/sendHeader/sendCookie/sendStatus,
// copyTmpfile, fs.*, http, generate_jwt/decode_jwt, table_to_json/
// json_to_table, uuid/uuid_base62/uuid_to_base62/base62_to_uuid,
// parse_mimetype/file_mimetype/file_mimeconsistency, log, shutdown,
// requireAuth), § 4.7/4.10.
func (b *Bridge) buildServerTable() map[string]interface{} {
	c := b.conn
	d := b.deps

	table := map[string]interface{}{
		"print": func(args ...interface{}) {
			for _, a := range args {
				fmt.Fprint(bufferSink{b}, a)
			}
		},
		"setBuffer": func(initial, growth int) {
			if err := c.SetBuffered(initial, growth); err != nil {
				b.throw(err)
			}
		},
		"setChunked": func() {
			if err := c.SetChunked(); err != nil {
				b.throw(err)
			}
		},
		"sendHeader": func(name, value string) {
			if err := c.SetHeader(name, value); err != nil {
				b.throw(err)
			}
		},
		"sendStatus": func(code int, phrase string) {
			if err := c.SetStatus(code, phrase); err != nil {
				b.throw(err)
			}
		},
		"sendCookie": func(opts map[string]interface{}) {
			ck := conn.Cookie{
				Name:     stringOpt(opts, "name"),
				Value:    stringOpt(opts, "value"),
				Path:     stringOpt(opts, "path"),
				Domain:   stringOpt(opts, "domain"),
				MaxAge:   intOpt(opts, "maxAge"),
				Secure:   boolOpt(opts, "secure"),
				HttpOnly: boolOpt(opts, "httpOnly"),
			}
			if maxAge, ok := opts["maxAge"]; ok {
				if n, ok := maxAge.(int64); ok && n > 0 {
					ck.Expires = time.Now().Add(time.Duration(n) * time.Second)
				}
			}
			if err := c.AddCookie(ck); err != nil {
				b.throw(err)
			}
		},
		"requestParam": func(name string) interface{} {
			if v, ok := c.Request.Param(name); ok {
				return v
			}
			return nil
		},
		"requestHeader": func(name string) interface{} {
			if v, ok := c.Request.Header(name); ok {
				return v
			}
			return nil
		},
		"copyTmpfile": func(idx int, dst string) {
			if d.FS == nil {
				b.throw(errors.New("capability: fs not configured"))
				return
			}
			if idx < 0 || idx >= len(c.Request.Uploads) {
				b.throw(fmt.Errorf("capability: upload index %d out of range", idx))
				return
			}
			if err := d.FS.CopyTmpfile(c.Request.Uploads[idx].TempPath, dst); err != nil {
				b.throw(err)
			}
		},
		"log": func(level, msg string) {
			logAtLevel(d.Log, level, msg)
		},
		"shutdown": func() {
			if d.Shutdown != nil {
				d.Shutdown()
			}
		},
		"requireAuth": func() interface{} {
			header, _ := c.Request.Header("authorization")
			return parseAuthorization(header)
		},
		"generate_jwt": func(claims map[string]interface{}, ttlSeconds int64) interface{} {
			if d.JWT == nil {
				b.throw(errors.New("capability: jwt not configured"))
				return nil
			}
			tok, err := d.JWT.Generate(claims, time.Duration(ttlSeconds)*time.Second)
			if err != nil {
				b.throw(err)
				return nil
			}
			return tok
		},
		"decode_jwt": func(token string) interface{} {
			if d.JWT == nil {
				b.throw(errors.New("capability: jwt not configured"))
				return nil
			}
			claims, err := d.JWT.Decode(token)
			if err != nil {
				b.throw(err)
				return nil
			}
			return claims
		},
		"table_to_json": func(v interface{}) interface{} {
			s, err := d.JSON.TableToJSON(v)
			if err != nil {
				b.throw(err)
				return nil
			}
			return s
		},
		"json_to_table": func(s string) interface{} {
			v, err := d.JSON.JSONToTable(s)
			if err != nil {
				b.throw(err)
				return nil
			}
			return v
		},
		"uuid": func() string { return d.UUID.NewUUID() },
		"uuid_base62": func() interface{} {
			s, err := d.UUID.ToBase62(d.UUID.NewUUID())
			if err != nil {
				b.throw(err)
				return nil
			}
			return s
		},
		"uuid_to_base62": func(id string) interface{} {
			s, err := d.UUID.ToBase62(id)
			if err != nil {
				b.throw(err)
				return nil
			}
			return s
		},
		"base62_to_uuid": func(s string) interface{} {
			id, err := d.UUID.FromBase62(s)
			if err != nil {
				b.throw(err)
				return nil
			}
			return id
		},
		"parse_mimetype": func(header string) map[string]interface{} {
			media, sub := d.Mime.Parse(header)
			return map[string]interface{}{"type": media, "subtype": sub}
		},
		"file_mimetype": func(path string) interface{} {
			mt, err := d.Mime.FileMimeType(path)
			if err != nil {
				b.throw(err)
				return nil
			}
			return mt
		},
		"file_mimeconsistency": func(path, claimed string) interface{} {
			ok, err := d.Mime.FileMimeConsistency(path, claimed)
			if err != nil {
				b.throw(err)
				return nil
			}
			return ok
		},
		"http":   b.httpCall,
		"fs":     b.buildFSTable(),
		"sqlite": b.buildSQLiteTable(),
	}
	return table
}

// httpCall is "server.http(method, url, headers?, timeout?)" (§4.7):
// headers and timeout (milliseconds) are both optional and may appear
// in either order, mirroring lua_http_client's own flexible argument
// handling.
func (b *Bridge) httpCall(method, url string, rest ...interface{}) interface{} {
	d := b.deps
	if d.HTTP == nil {
		b.throw(errors.New("capability: http client not configured"))
		return nil
	}

	var headers map[string]string
	var timeout time.Duration
	for _, arg := range rest {
		switch v := arg.(type) {
		case map[string]interface{}:
			headers = make(map[string]string, len(v))
			for k, hv := range v {
				headers[k] = fmt.Sprint(hv)
			}
		case int64:
			timeout = time.Duration(v) * time.Millisecond
		case int:
			timeout = time.Duration(v) * time.Millisecond
		case float64:
			timeout = time.Duration(v) * time.Millisecond
		}
	}

	resp, err := d.HTTP.Do(method, url, headers, timeout)
	if err != nil {
		b.throw(err)
		return nil
	}
	return map[string]interface{}{
		"status_code": resp.StatusCode,
		"body":        resp.Body,
		"header":      resp.Header,
		"duration":    resp.DurationMs,
	}
}

func (b *Bridge) buildFSTable() map[string]interface{} {
	d := b.deps
	fs := d.FS
	return map[string]interface{}{
		"ftype":        func(p string) string { return fs.FType(p) },
		"exists":       func(p string) bool { return fs.Exists(p) },
		"isReadable":   func(p string) bool { return fs.IsReadable(p) },
		"isWriteable":  func(p string) bool { return fs.IsWriteable(p) },
		"isExecutable": func(p string) bool { return fs.IsExecutable(p) },
		"readdir": func(p string) interface{} {
			names, err := fs.ReadDir(p)
			if err != nil {
				b.throw(err)
				return nil
			}
			return names
		},
		"modtime": func(p string) interface{} {
			t, err := fs.ModTime(p)
			if err != nil {
				b.throw(err)
				return nil
			}
			return t.Unix()
		},
		"unlink": func(p string) { checkErr(b, fs.Unlink(p)) },
		"mkdir":  func(p string) { checkErr(b, fs.Mkdir(p, 0o755)) },
		"rmdir":  func(p string) { checkErr(b, fs.Rmdir(p)) },
		"getcwd": func() interface{} {
			cwd, err := fs.Getcwd()
			if err != nil {
				b.throw(err)
				return nil
			}
			return cwd
		},
		"chdir":    func(p string) { checkErr(b, fs.Chdir(p)) },
		"copyfile": func(src, dst string) { checkErr(b, fs.Copyfile(src, dst)) },
		"mvfile":   func(src, dst string) { checkErr(b, fs.Mvfile(src, dst)) },
	}
}

func checkErr(b *Bridge, err error) {
	if err != nil {
		b.throw(err)
	}
}

func logAtLevel(log *zap.Logger, level, msg string) {
	if log == nil {
		return
	}
	switch level {
	case "debug":
		log.Debug(msg)
	case "warn", "warning":
		log.Warn(msg)
	case "error":
		log.Error(msg)
	default:
		log.Info(msg)
	}
}

func stringOpt(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func intOpt(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func boolOpt(m map[string]interface{}, key string) bool {
	v, _ := m[key].(bool)
	return v
}

// bufferSink adapts Bridge.conn.Write to io.Writer for "print".
type bufferSink struct{ b *Bridge }

func (s bufferSink) Write(p []byte) (int, error) { return s.b.conn.Write(p) }

// buildSQLiteTable exposes §4.10's open(path, mode) -> db, with db/stmt
// handles modeled as method tables rather than Lua's "<<"/"()"/"~"
// operator overloads, since goja has no operator-overload equivalent.
func (b *Bridge) buildSQLiteTable() map[string]interface{} {
	d := b.deps
	return map[string]interface{}{
		"open": func(path, modeStr string) interface{} {
			if d.SQLiteOpen == nil {
				b.throw(errors.New("capability: sqlite not configured"))
				return nil
			}
			mode, err := capability.ParseSQLiteMode(modeStr)
			if err != nil {
				b.throw(err)
				return nil
			}
			store, err := d.SQLiteOpen(path, mode)
			if err != nil {
				b.throw(err)
				return nil
			}
			return b.buildSQLiteDBTable(store)
		},
	}
}

func (b *Bridge) buildSQLiteDBTable(store *capability.SQLiteStore) map[string]interface{} {
	return map[string]interface{}{
		// prepare is the script-facing form of "db << sql -> stmt".
		"prepare": func(sqlText string) interface{} {
			stmt, err := store.Prepare(sqlText)
			if err != nil {
				b.throw(err)
				return nil
			}
			return b.buildSQLiteStmtTable(stmt)
		},
		// close is the script-facing form of "~db".
		"close": func() { checkErr(b, store.Close()) },
	}
}

func (b *Bridge) buildSQLiteStmtTable(stmt *capability.Stmt) map[string]interface{} {
	return map[string]interface{}{
		// exec is the script-facing form of "stmt(args...) -> row | nil";
		// the row is a 0-indexed array of column values, or nil when the
		// statement produced no rows.
		"exec": func(args ...interface{}) interface{} {
			row, err := stmt.Exec(args...)
			if err != nil {
				b.throw(err)
				return nil
			}
			if row == nil {
				return nil
			}
			return row
		},
		// release is the script-facing form of "~stmt".
		"release": func() { checkErr(b, stmt.Release()) },
	}
}

// parseAuthorization implements requireAuth() (§4.7): hand-rolled
// against the raw Authorization header string, since there is no
// *http.Request here for net/http's own BasicAuth helper to parse.
func parseAuthorization(header string) map[string]interface{} {
	if header == "" {
		return map[string]interface{}{"status": "NOAUTH"}
	}

	scheme, rest, ok := strings.Cut(header, " ")
	if !ok {
		return map[string]interface{}{"status": "ERROR"}
	}
	rest = strings.TrimSpace(rest)

	switch {
	case strings.EqualFold(scheme, "Basic"):
		decoded, err := base64.StdEncoding.DecodeString(rest)
		if err != nil {
			return map[string]interface{}{"status": "ERROR"}
		}
		username, password, ok := strings.Cut(string(decoded), ":")
		if !ok {
			return map[string]interface{}{"status": "ERROR"}
		}
		return map[string]interface{}{
			"status":   "BASIC",
			"username": username,
			"password": password,
		}
	case strings.EqualFold(scheme, "Bearer"):
		if rest == "" {
			return map[string]interface{}{"status": "ERROR"}
		}
		return map[string]interface{}{"status": "BEARER", "token": rest}
	default:
		return map[string]interface{}{"status": "ERROR"}
	}
}
