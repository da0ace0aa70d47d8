package domain

import "errors"

// Sentinel errors for the engine. Check with errors.Is.
var (
	// ErrNotFound: an operation referenced an item or quiz id absent from
	// the tree. Callers treat the operation as a no-op.
	ErrNotFound = errors.New("studylib: item not found")

	// ErrCycle: a move would place a folder inside itself or one of its
	// own descendants.
	ErrCycle = errors.New("studylib: move target is inside a moved item")

	// ErrInvalidImport: an import document is malformed. The import is
	// aborted wholesale; no partial tree is merged.
	ErrInvalidImport = errors.New("studylib: invalid import document")
)
