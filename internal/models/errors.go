package models

import "errors"

// Error kinds shared by all repositories. Handlers map them onto HTTP
// statuses; repositories wrap them with context via fmt.Errorf("%w: ...").
var (
	// ErrNotFound: the addressed entity does not exist (404).
	ErrNotFound = errors.New("not found")
	// ErrConflict: a uniqueness invariant would be violated (409).
	ErrConflict = errors.New("conflict")
	// ErrBadReference: a parent reference points at a missing row (400).
	ErrBadReference = errors.New("bad reference")
	// ErrPrecondition: delete blocked by children, or unassign of a pair
	// that is not a member of the relation (400).
	ErrPrecondition = errors.New("precondition failed")
)
