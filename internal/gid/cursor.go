package gid

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Cursors are 0-based offsets into an already filtered and ordered sequence.
// The "c:" payload prefix keeps cursors and global identifiers from being
// accepted in each other's place.
const cursorPrefix = "c:"

// EncodeCursor returns the opaque token for a position.
func EncodeCursor(pos uint64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.FormatUint(pos, 10)))
}

// DecodeCursor recovers the position from a token, failing with
// ErrMalformedCursor when the token does not decode to a non-negative integer.
func DecodeCursor(token string) (uint64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedCursor, "cursor %q", token)
	}
	payload, ok := strings.CutPrefix(string(raw), cursorPrefix)
	if !ok {
		return 0, errors.Wrapf(ErrMalformedCursor, "cursor %q", token)
	}
	pos, err := strconv.ParseUint(payload, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedCursor, "cursor %q", token)
	}
	return pos, nil
}
