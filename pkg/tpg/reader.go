package tpg

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/EchoTools/tpgtools/pkg/pixel"
)

type texelRange struct {
	index      int
	id         uint32
	start, end uint64
}

// Parse decodes a texture package. The input is not modified and the
// returned records own copies of their texel data.
func Parse(data []byte) (*Archive, error) {
	size := uint64(len(data))
	if size < HeaderSize {
		return nil, ErrTruncatedInput.New("header", HeaderSize, size)
	}

	count := binary.LittleEndian.Uint32(data[0:4])
	indexOffset := uint64(binary.LittleEndian.Uint32(data[4:8]))
	if indexOffset < HeaderSize {
		return nil, ErrCorruptArchive.New(fmt.Sprintf("index offset 0x%x points into the header", indexOffset))
	}
	if indexOffset > size {
		return nil, ErrTruncatedInput.New("header", indexOffset, size)
	}

	indexEnd := indexOffset + uint64(count)*EntrySize
	if indexEnd > size {
		return nil, ErrTruncatedInput.New("record index", indexEnd, size)
	}

	a := &Archive{
		Header:  append([]byte{}, data[HeaderSize:indexOffset]...),
		Records: make([]Record, count),
	}
	ranges := make([]texelRange, 0, count)

	var e Entry
	for i := 0; i < int(count); i++ {
		e.DecodeFrom(data[indexOffset+uint64(i)*EntrySize:])

		format := pixel.Format(e.Format)
		if !format.Valid() {
			return nil, ErrRecord.Wrap(pixel.ErrUnsupportedFormat.New(e.Format), i, e.IDHash)
		}
		if e.Width == 0 || e.Height == 0 {
			return nil, corruptRecord(i, e.IDHash, "zero dimension %dx%d", e.Width, e.Height)
		}
		texelSize, err := pixel.TexelSize(format, e.Width, e.Height)
		if err != nil {
			return nil, corruptRecord(i, e.IDHash, "%v", err)
		}

		start := uint64(e.DataOffset)
		end := start + uint64(texelSize)
		if start < indexEnd {
			return nil, corruptRecord(i, e.IDHash, "texel data at 0x%x starts inside the index (ends at 0x%x)", start, indexEnd)
		}
		if end > size {
			return nil, ErrTruncatedInput.New(describe(i, e.IDHash, "texel data"), end, size)
		}

		a.Records[i] = Record{
			IDHash:   e.IDHash,
			Format:   format,
			Width:    e.Width,
			Height:   e.Height,
			Reserved: e.Reserved,
			Texels:   append([]byte(nil), data[start:end]...),
		}
		ranges = append(ranges, texelRange{index: i, id: e.IDHash, start: start, end: end})
	}

	if err := checkOverlap(ranges); err != nil {
		return nil, err
	}

	return a, nil
}

// checkOverlap rejects records whose texel data overlaps the next record's,
// which means the stored layout disagrees with the size implied by format
// and dimensions.
func checkOverlap(ranges []texelRange) error {
	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].start < ranges[j].start
	})
	for i := 1; i < len(ranges); i++ {
		prev, cur := ranges[i-1], ranges[i]
		if cur.start < prev.end {
			return corruptRecord(prev.index, prev.id,
				"texel data 0x%x-0x%x overlaps record %d at 0x%x", prev.start, prev.end, cur.index, cur.start)
		}
	}
	return nil
}
