package tpg

import (
	"encoding/binary"

	"github.com/EchoTools/tpgtools/pkg/pixel"
)

// ReservedSize is the number of unidentified bytes carried by each index
// entry (four 32-bit words at entry offsets 0x0C-0x1B).
const ReservedSize = 16

// Record is one texture: its index entry plus its texel data.
//
// Records are treated as values. Transformations such as WithFormat return
// a new record and never modify the texel slice of the receiver.
type Record struct {
	IDHash   uint32 // hash of the texture name; the name itself is not stored
	Format   pixel.Format
	Width    uint32
	Height   uint32
	Reserved [ReservedSize]byte // re-emitted verbatim
	Texels   []byte
}

// TexelSize returns the texel length implied by the record's format and
// dimensions.
func (r Record) TexelSize() (int, error) {
	return pixel.TexelSize(r.Format, r.Width, r.Height)
}

// ReservedWords returns the reserved bytes as little-endian signed words,
// the form used in sidecar files.
func (r Record) ReservedWords() [4]int32 {
	var w [4]int32
	for i := range w {
		w[i] = int32(binary.LittleEndian.Uint32(r.Reserved[i*4:]))
	}
	return w
}

// SetReservedWords is the inverse of ReservedWords.
func (r *Record) SetReservedWords(w [4]int32) {
	for i, v := range w {
		binary.LittleEndian.PutUint32(r.Reserved[i*4:], uint32(v))
	}
}

// RGBA decodes the texel data to RGBA8888.
func (r Record) RGBA() ([]byte, error) {
	return pixel.Decode(r.Format, r.Width, r.Height, r.Texels)
}

// WithFormat returns a copy of the record re-encoded to f. Converting to the
// record's own format returns a copy with the same texels.
func (r Record) WithFormat(f pixel.Format) (Record, error) {
	out := r
	if f == r.Format {
		out.Texels = append([]byte(nil), r.Texels...)
		return out, nil
	}

	texels, err := pixel.Convert(r.Format, f, r.Width, r.Height, r.Texels)
	if err != nil {
		return Record{}, err
	}
	out.Format = f
	out.Texels = texels
	return out, nil
}

// validate checks the record invariant used by the writer.
func (r Record) validate(index int) error {
	if r.Width == 0 || r.Height == 0 {
		return invalidRecord(index, r.IDHash, "zero dimension %dx%d", r.Width, r.Height)
	}
	size, err := r.TexelSize()
	if err != nil {
		return invalidRecord(index, r.IDHash, "%v", err)
	}
	if len(r.Texels) != size {
		return invalidRecord(index, r.IDHash, "%s %dx%d needs %d texel bytes, has %d",
			r.Format, r.Width, r.Height, size, len(r.Texels))
	}
	return nil
}
