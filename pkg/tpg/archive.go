// Package tpg reads and writes texture packages (.tpg).
//
// A package is a small fixed header, an index of 36-byte entries and the
// raw texel data of every texture. All integers are little-endian.
//
//	0x00  u32  record count
//	0x04  u32  index offset
//	0x08  ...  opaque header bytes up to the index offset (24 in shipped files)
//
// Index entry:
//
//	0x00  u32  id hash
//	0x04  u32  width
//	0x08  u32  height
//	0x0C  16   reserved, unidentified
//	0x1C  u32  format tag
//	0x20  u32  texel data offset from the start of the file
//
// The index stores no texel length; it is always width*height*bpp(format).
// Texel data follows the index in record order without padding.
package tpg

import (
	"github.com/EchoTools/tpgtools/pkg/pixel"
)

const (
	// HeaderSize is the size of the fixed header fields.
	HeaderSize = 8

	// EntrySize is the size of one index entry.
	EntrySize = 36

	// DefaultIndexOffset is where shipped packages place the index.
	DefaultIndexOffset = 0x20
)

// Archive is an in-memory texture package.
type Archive struct {
	// Header holds the bytes between the fixed header fields and the index.
	// They are not understood and are written back unchanged.
	Header  []byte
	Records []Record
}

// New returns an archive with the header layout of shipped packages.
func New(records []Record) *Archive {
	return &Archive{
		Header:  make([]byte, DefaultIndexOffset-HeaderSize),
		Records: records,
	}
}

// Len returns the number of records.
func (a *Archive) Len() int {
	return len(a.Records)
}

// TexelBytes returns the total size of all texel data.
func (a *Archive) TexelBytes() int {
	total := 0
	for _, r := range a.Records {
		total += len(r.Texels)
	}
	return total
}

// WithFormat returns a copy of the archive with every record re-encoded to f.
func (a *Archive) WithFormat(f pixel.Format) (*Archive, error) {
	out := &Archive{
		Header:  append([]byte(nil), a.Header...),
		Records: make([]Record, len(a.Records)),
	}
	for i, r := range a.Records {
		converted, err := r.WithFormat(f)
		if err != nil {
			return nil, ErrRecord.Wrap(err, i, r.IDHash)
		}
		out.Records[i] = converted
	}
	return out, nil
}

// MarshalBinary encodes the archive. See Serialize.
func (a *Archive) MarshalBinary() ([]byte, error) {
	return Serialize(a)
}

// UnmarshalBinary decodes an archive. See Parse.
func (a *Archive) UnmarshalBinary(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*a = *parsed
	return nil
}
