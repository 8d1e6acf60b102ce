package store

import "errors"

// ErrNotFound is returned when a named entity does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrConflict is returned on a uniqueness violation from a concurrent
// insert. Callers MUST retry by re-selecting, per §4.1.
var ErrConflict = errors.New("store: conflict")
