// Package apperr defines the sentinel errors shared across Gebo's layers.
package apperr

import "errors"

var (
	// ErrNoteNotFound is returned when an identity does not resolve to a note.
	ErrNoteNotFound = errors.New("note not found")

	// ErrNoteExists is returned when creating a note whose file already exists.
	ErrNoteExists = errors.New("note already exists")

	// ErrSelfLink is returned when a link operation names the same note as
	// source and target.
	ErrSelfLink = errors.New("cannot link a note to itself")

	// ErrLinkNotFound is returned by RemoveLink when none of the requested
	// directions existed.
	ErrLinkNotFound = errors.New("link not found")

	// ErrAlreadyLinked is returned by AddLink when every requested direction
	// was already present. The operation changed nothing; callers may treat
	// it as informational.
	ErrAlreadyLinked = errors.New("already linked")
)
