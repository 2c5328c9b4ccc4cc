// Package capability implements the native-Go side of every "server.*"
// function scripts can call (§4.7/§4.10): filesystem access, an HTTP
// client, JWT signing/verification, JSON<->table conversion, UUID/base62
// codecs, MIME inspection, and a SQLite store with plain and prepared
// SQL statements. Each
// capability is grounded on the corresponding lua_* binding in
// original_source/lib/LuaServer.cpp, reimplemented with the pack's Go
// ecosystem libraries rather than the C libraries the original links.
package capability

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWT signs and verifies HS256 tokens, grounded on lua_generate_jwt /
// lua_decode_jwt.
type JWT struct {
	secret []byte
}

func NewJWT(secret []byte) *JWT { return &JWT{secret: secret} }

// Generate signs claims into a compact HS256 token. ttl <= 0 means no
// expiry claim is added.
func (j *JWT) Generate(claims map[string]interface{}, ttl time.Duration) (string, error) {
	mc := jwt.MapClaims{}
	for k, v := range claims {
		mc[k] = v
	}
	if ttl > 0 {
		mc["exp"] = time.Now().Add(ttl).Unix()
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, mc)
	return tok.SignedString(j.secret)
}

// Decode verifies signature and expiry, returning the claim set.
func (j *JWT) Decode(token string) (map[string]interface{}, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("capability: unexpected signing method %v", t.Header["alg"])
		}
		return j.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("capability: invalid token")
	}
	return map[string]interface{}(claims), nil
}
