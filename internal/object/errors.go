package object

import "errors"

// Error kinds for the Object namespace (§7). Command-layer callers wrap
// these with field-path context before returning to the client.
var (
	ErrWrongType       = errors.New("object: wrong type")
	ErrMaxKeysExceeded = errors.New("object: max keys exceeded")
	ErrNotFound        = errors.New("object: key not found")
)

// MaxKeys bounds the number of top-level keys a single Object may hold,
// matching the Object-namespace "max-keys-exceeded" error kind in §7.
const MaxKeys = 1 << 16
