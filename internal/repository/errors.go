package repository

import "errors"

// ErrNotFound is returned when the requested document has never been written
var ErrNotFound = errors.New("not found")
