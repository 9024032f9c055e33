package conversations

import "errors"

// ErrNotFound indicates the requested conversation does not exist.
var ErrNotFound = errors.New("conversation not found")
