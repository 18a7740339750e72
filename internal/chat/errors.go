package chat

import "errors"

// ErrInvalidArgument marks requests with missing or empty required fields.
// It is surfaced before any store operation is attempted, and callers map
// it to a 400-class response. All other errors from mutating operations
// indicate the store itself failed.
var ErrInvalidArgument = errors.New("chat: invalid argument")
