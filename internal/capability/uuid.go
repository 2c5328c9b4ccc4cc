package capability

import (
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// UUIDCodec generates UUIDs and converts them to/from a base62
// representation, grounded on lua_uuid / lua_uuid_base62 /
// lua_uuid_to_base62 / lua_base62_to_uuid.
type UUIDCodec struct{}

func NewUUIDCodec() *UUIDCodec { return &UUIDCodec{} }

const base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

func (UUIDCodec) NewUUID() string { return uuid.NewString() }

// ToBase62 packs a UUID's 128 bits into a base62 string.
func (UUIDCodec) ToBase62(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", err
	}
	n := new(big.Int).SetBytes(u[:])
	if n.Sign() == 0 {
		return "0", nil
	}
	base := big.NewInt(62)
	mod := new(big.Int)
	var out []byte
	for n.Sign() > 0 {
		n.DivMod(n, base, mod)
		out = append([]byte{base62Alphabet[mod.Int64()]}, out...)
	}
	return string(out), nil
}

// FromBase62 is the inverse of ToBase62, reconstructing the canonical
// UUID string form.
func (UUIDCodec) FromBase62(s string) (string, error) {
	n := new(big.Int)
	base := big.NewInt(62)
	for _, c := range s {
		idx := indexOfBase62(byte(c))
		if idx < 0 {
			return "", fmt.Errorf("capability: %q is not valid base62", s)
		}
		n.Mul(n, base)
		n.Add(n, big.NewInt(int64(idx)))
	}
	b := n.Bytes()
	if len(b) < 16 {
		padded := make([]byte, 16)
		copy(padded[16-len(b):], b)
		b = padded
	}
	var u uuid.UUID
	copy(u[:], b[len(b)-16:])
	return u.String(), nil
}

func indexOfBase62(c byte) int {
	for i := 0; i < len(base62Alphabet); i++ {
		if base62Alphabet[i] == c {
			return i
		}
	}
	return -1
}
