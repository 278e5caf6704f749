package stack

import (
	"errors"
	"fmt"
)

var (
	ErrShapeMismatch    = errors.New("page count does not factor into channels x slices x frames")
	ErrUnsupportedIndex = errors.New("unsupported index")
	ErrOutOfRange       = errors.New("index out of range")
	ErrNoSources        = errors.New("no source files")
	ErrMissingPage      = errors.New("page missing from read result")
	ErrClosed           = errors.New("reader closed")
)

// ShapeMismatchError is returned when the acquisition dimensions do not
// multiply to the number of pages on disk.
type ShapeMismatchError struct {
	Total    int
	Channels int
	Slices   int
	Frames   int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%v: %d pages, %d channels x %d slices x %d frames = %d",
		ErrShapeMismatch, e.Total, e.Channels, e.Slices, e.Frames, e.Channels*e.Slices*e.Frames)
}

func (e *ShapeMismatchError) Unwrap() error {
	return ErrShapeMismatch
}

// UnsupportedIndexError names the axis of an index expression that cannot
// be served. The reader stays usable.
type UnsupportedIndexError struct {
	Axis   string
	Reason string
}

func (e *UnsupportedIndexError) Error() string {
	if e.Axis == "" {
		return fmt.Sprintf("%v: %s", ErrUnsupportedIndex, e.Reason)
	}
	return fmt.Sprintf("%v on %s axis: %s", ErrUnsupportedIndex, e.Axis, e.Reason)
}

func (e *UnsupportedIndexError) Unwrap() error {
	return ErrUnsupportedIndex
}
