package tpg

import (
	"fmt"

	errors "gopkg.in/src-d/go-errors.v1"
)

var (
	// ErrTruncatedInput is returned when the input ends before the header,
	// the record index or a record's texel data has been read in full.
	ErrTruncatedInput = errors.NewKind("truncated input: %s ends at byte %d, input has %d bytes")

	// ErrCorruptArchive is returned when the layout of a package is
	// inconsistent, e.g. a record's texel data overlaps the index or
	// another record.
	ErrCorruptArchive = errors.NewKind("corrupt archive: %s")

	// ErrInvalidRecord is returned by the writer for a record whose format,
	// dimensions and texel length disagree.
	ErrInvalidRecord = errors.NewKind("invalid record: %s")

	// ErrRecord attaches a record position to an underlying error.
	ErrRecord = errors.NewKind("record %d (id 0x%08x)")
)

func corruptRecord(index int, id uint32, format string, args ...interface{}) error {
	return ErrCorruptArchive.New(describe(index, id, format, args...))
}

func invalidRecord(index int, id uint32, format string, args ...interface{}) error {
	return ErrInvalidRecord.New(describe(index, id, format, args...))
}

func describe(index int, id uint32, format string, args ...interface{}) string {
	return fmt.Sprintf("record %d (id 0x%08x): ", index, id) + fmt.Sprintf(format, args...)
}
