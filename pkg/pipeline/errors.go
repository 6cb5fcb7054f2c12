package pipeline

import (
	errors "gopkg.in/src-d/go-errors.v1"
)

var (
	// ErrDecode is returned for a record whose texels could not be decoded.
	ErrDecode = errors.NewKind("record %d (id 0x%08x): decode failed")

	// ErrEncode is returned for an image that could not be encoded to its
	// texture format.
	ErrEncode = errors.NewKind("%s: encode failed")

	// ErrMissingPair is returned when an image has no sidecar or a sidecar
	// has no image.
	ErrMissingPair = errors.NewKind("%s has no matching %s")

	// ErrDuplicateImage is returned when more than one image shares a
	// sidecar's base name.
	ErrDuplicateImage = errors.NewKind("%s: multiple images (%s, %s)")

	// ErrDimensionMismatch is returned when an image's size differs from
	// the size recorded in its sidecar.
	ErrDimensionMismatch = errors.NewKind("%s: image is %dx%d, sidecar declares %dx%d")

	// ErrPartial is returned by Report.Err when some records failed.
	ErrPartial = errors.NewKind("%d of %d records failed")
)

// fatal marks an error that must stop the whole run.
type fatal struct {
	err error
}

func (f fatal) Error() string { return f.err.Error() }
func (f fatal) Unwrap() error { return f.err }
