package analyzer

import "errors"

// ErrNotFound is returned by stores when no record matches the lookup.
var ErrNotFound = errors.New("record not found")
