package repository

import "errors"

// ErrClassFull is returned when an enrollment would exceed a class group's
// max_students. Services map it to the capacity error exposed to callers.
var ErrClassFull = errors.New("class group at capacity")
