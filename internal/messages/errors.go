package messages

import "errors"

// ErrNotFound indicates the requested message does not exist.
var ErrNotFound = errors.New("message not found")

// ErrInvalidInput indicates a create request failed validation.
var ErrInvalidInput = errors.New("invalid message input")
