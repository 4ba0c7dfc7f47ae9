package identify

import (
	"errors"
	"fmt"
)

// ErrNoCandidates is used when the recognizer succeeds but returns an
// empty list.
var ErrNoCandidates = errors.New("no candidates")

// IdentificationError means the photo could not be identified at all.
// No partial result accompanies it.
type IdentificationError struct {
	Err error
}

func (e *IdentificationError) Error() string {
	return fmt.Sprintf("plant identification failed: %v", e.Err)
}

func (e *IdentificationError) Unwrap() error { return e.Err }
