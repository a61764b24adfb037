package store

import (
	"errors"
	"fmt"
)

// ErrStructure is wrapped by every DBID shape violation found while walking
// the unit tree.
var ErrStructure = errors.New("inconsistent DBID structure")

// ErrDropsLoaded is returned when a second DBID tree is loaded without a
// Reset in between.
var ErrDropsLoaded = errors.New("drop information already loaded")

// StructureError names the object that violates the expected layout.
type StructureError struct {
	Drop   string
	Object string
	Msg    string
}

func (e *StructureError) Error() string {
	if e.Drop == "" {
		return fmt.Sprintf("dbid structure: %s", e.Msg)
	}
	return fmt.Sprintf("dbid structure: %s %s: %s", e.Drop, e.Object, e.Msg)
}

// Unwrap returns ErrStructure.
func (e *StructureError) Unwrap() error {
	return ErrStructure
}
