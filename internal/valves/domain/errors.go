package valves

import "errors"

// ErrNotFound indicates a missing valve record.
var ErrNotFound = errors.New("valve: not found")

// ErrDuplicateID indicates a create with an already-used serial id.
var ErrDuplicateID = errors.New("valve: id already exists")

// ErrImmutableID indicates an update that attempted to change the serial id.
var ErrImmutableID = errors.New("valve: id cannot be changed")
