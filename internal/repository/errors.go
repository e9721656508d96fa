package repository

import "errors"

// ErrNotFound is returned when a requested record is not found in the
// repository. It abstracts the underlying storage from the service layer.
var ErrNotFound = errors.New("record not found")

// ErrActiveSessionExists is returned when an insert or state change would
// leave two sessions active at once. Backed by a partial unique index, so
// it holds even under concurrent writers.
var ErrActiveSessionExists = errors.New("an active session already exists")
