package adversary

import "errors"

// ErrNotFound is returned by lookups for ids that are not alive.
var ErrNotFound = errors.New("adversary not found")
