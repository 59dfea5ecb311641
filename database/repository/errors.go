package repository

import (
	"errors"

	"tourbook/database/query"
)

// ErrNotFound is returned when no document matches an id.
var ErrNotFound = errors.New("No document found with that ID")

// CastError is a value that does not fit the stored type of a field.
type CastError = query.CastError
