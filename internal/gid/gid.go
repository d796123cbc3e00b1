package gid

import (
	"encoding/base64"
	"strings"

	"github.com/pkg/errors"
)

// Error kinds surfaced to the request layer. Handlers map these onto HTTP
// statuses; everything else is treated as an internal failure.
var (
	ErrMalformedIdentifier = errors.New("malformed global identifier")
	ErrUnknownType         = errors.New("unknown type")
	ErrMalformedCursor     = errors.New("malformed cursor")
)

// Разделитель между именем типа и локальным id внутри токена.
// Имена типов с ":" отклоняются при загрузке реестра.
const idSeparator = ":"

// TypeFunc reports whether a type name is registered.
type TypeFunc func(name string) bool

// Codec mints and parses opaque global identifiers. The token is an
// obfuscation convenience for API clients, not a security boundary: it is a
// reversible base64url form of "<type>:<localID>" and must never be treated
// as proof of access.
type Codec struct {
	known TypeFunc
}

func NewCodec(known TypeFunc) *Codec {
	return &Codec{known: known}
}

// EncodeID returns the opaque token for a (typeName, localID) pair.
// Encoding is deterministic: the same pair always yields the same token.
func (c *Codec) EncodeID(typeName, localID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(typeName + idSeparator + localID))
}

// DecodeID recovers the (typeName, localID) pair from a token. It fails with
// ErrMalformedIdentifier when the token is not a base64url pair, and with
// ErrUnknownType when the recovered type name is not registered.
func (c *Codec) DecodeID(token string) (typeName, localID string, err error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", "", errors.Wrapf(ErrMalformedIdentifier, "token %q", token)
	}
	parts := strings.SplitN(string(raw), idSeparator, 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.Wrapf(ErrMalformedIdentifier, "token %q", token)
	}
	if c.known != nil && !c.known(parts[0]) {
		return "", "", errors.Wrapf(ErrUnknownType, "type %q in identifier", parts[0])
	}
	return parts[0], parts[1], nil
}
