package query

import "fmt"

// CastError reports a value that cannot be converted to the stored type of
// a field, or a query construct the store does not understand.
type CastError struct {
	Path  string
	Value string
}

func (e *CastError) Error() string {
	return fmt.Sprintf("Invalid %s: %s", e.Path, e.Value)
}
