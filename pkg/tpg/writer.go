package tpg

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Serialize encodes an archive: header, index, then texel data in record
// order. Every offset is recomputed from the records. Nothing is returned
// unless every record is consistent.
func Serialize(a *Archive) ([]byte, error) {
	count := uint64(len(a.Records))
	indexOffset := uint64(HeaderSize + len(a.Header))
	dataOffset := indexOffset + count*EntrySize
	if count > math.MaxUint32 || dataOffset > math.MaxUint32 {
		return nil, ErrInvalidRecord.New(fmt.Sprintf("index of %d records does not fit in a 32-bit offset", count))
	}

	total := dataOffset
	for i, r := range a.Records {
		if err := r.validate(i); err != nil {
			return nil, err
		}
		total += uint64(len(r.Texels))
		if total > math.MaxUint32 {
			return nil, invalidRecord(i, r.IDHash, "texel data ends past the 32-bit offset range")
		}
	}

	buf := make([]byte, total)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(count))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(indexOffset))
	copy(buf[HeaderSize:indexOffset], a.Header)

	offset := dataOffset
	for i, r := range a.Records {
		e := Entry{
			IDHash:     r.IDHash,
			Width:      r.Width,
			Height:     r.Height,
			Reserved:   r.Reserved,
			Format:     uint32(r.Format),
			DataOffset: uint32(offset),
		}
		e.EncodeTo(buf[indexOffset+uint64(i)*EntrySize:])
		offset += uint64(copy(buf[offset:], r.Texels))
	}

	return buf, nil
}
