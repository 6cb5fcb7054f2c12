package tpg

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EchoTools/tpgtools/pkg/archive"
	"github.com/EchoTools/tpgtools/pkg/pixel"
)

func texels(n int, seed byte) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = seed + byte(i*13)
	}
	return buf
}

// buildPackage lays out a package the way the shipped files are laid out,
// independently of Serialize.
func buildPackage(t *testing.T, records []Record) []byte {
	t.Helper()

	dataOffset := DefaultIndexOffset + len(records)*EntrySize
	size := dataOffset
	for _, r := range records {
		size += len(r.Texels)
	}

	buf := make([]byte, size)
	binary.LittleEndian.PutUint32(buf[0:], uint32(len(records)))
	binary.LittleEndian.PutUint32(buf[4:], DefaultIndexOffset)
	copy(buf[8:], "opaque header bytes.....")

	offset := dataOffset
	for i, r := range records {
		entry := buf[DefaultIndexOffset+i*EntrySize:]
		binary.LittleEndian.PutUint32(entry[0x00:], r.IDHash)
		binary.LittleEndian.PutUint32(entry[0x04:], r.Width)
		binary.LittleEndian.PutUint32(entry[0x08:], r.Height)
		copy(entry[0x0C:0x1C], r.Reserved[:])
		binary.LittleEndian.PutUint32(entry[0x1C:], uint32(r.Format))
		binary.LittleEndian.PutUint32(entry[0x20:], uint32(offset))
		offset += copy(buf[offset:], r.Texels)
	}
	return buf
}

func sampleRecords() []Record {
	return []Record{
		{IDHash: 0x1A2B3C4D, Format: pixel.R8G8B8A8, Width: 2, Height: 2, Texels: texels(16, 1)},
		{IDHash: 0xDEADBEEF, Format: pixel.R5G6B5, Width: 3, Height: 1, Texels: texels(6, 2),
			Reserved: [ReservedSize]byte{1, 2, 3, 4, 0xFF, 0xFF, 0xFF, 0xFF}},
		{IDHash: 0x1A2B3C4D, Format: pixel.R4G4B4A4, Width: 1, Height: 4, Texels: texels(8, 3)},
		{IDHash: 0x00000007, Format: pixel.R5G5B5A1, Width: 4, Height: 4, Texels: texels(32, 4)},
	}
}

func TestParse(t *testing.T) {
	records := sampleRecords()
	data := buildPackage(t, records)
	orig := append([]byte(nil), data...)

	a, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, orig, data, "input modified")

	require.Equal(t, len(records), a.Len())
	assert.Equal(t, []byte("opaque header bytes....."), a.Header)
	for i, r := range records {
		assert.Equal(t, r, a.Records[i], "record %d", i)
	}

	// duplicate ids stay separate records
	assert.Equal(t, a.Records[0].IDHash, a.Records[2].IDHash)

	// records own their texels
	a.Records[0].Texels[0] ^= 0xFF
	assert.Equal(t, orig, data)
}

func TestRoundTrip(t *testing.T) {
	data := buildPackage(t, sampleRecords())

	a, err := Parse(data)
	require.NoError(t, err)

	out, err := Serialize(a)
	require.NoError(t, err)
	assert.Equal(t, data, out)

	var b Archive
	require.NoError(t, b.UnmarshalBinary(out))
	again, err := b.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestEmptyArchive(t *testing.T) {
	a := New(nil)
	data, err := Serialize(a)
	require.NoError(t, err)
	assert.Len(t, data, DefaultIndexOffset)

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Zero(t, parsed.Len())
}

func TestSerializeRecomputesOffsets(t *testing.T) {
	a := New(sampleRecords())
	data, err := Serialize(a)
	require.NoError(t, err)

	assert.Equal(t, uint32(len(a.Records)), binary.LittleEndian.Uint32(data[0:]))
	assert.Equal(t, uint32(DefaultIndexOffset), binary.LittleEndian.Uint32(data[4:]))

	want := uint32(DefaultIndexOffset + len(a.Records)*EntrySize)
	for i, r := range a.Records {
		var e Entry
		e.DecodeFrom(data[DefaultIndexOffset+i*EntrySize:])
		assert.Equal(t, want, e.DataOffset, "record %d", i)
		assert.Equal(t, r.Texels, data[e.DataOffset:int(e.DataOffset)+len(r.Texels)])
		want += uint32(len(r.Texels))
	}
	assert.Equal(t, int(want), len(data))
}

func TestSerializeInvalidRecord(t *testing.T) {
	tests := []struct {
		name   string
		record Record
	}{
		{"ShortTexels", Record{Format: pixel.R8G8B8A8, Width: 2, Height: 2, Texels: make([]byte, 15)}},
		{"LongTexels", Record{Format: pixel.R5G6B5, Width: 2, Height: 2, Texels: make([]byte, 9)}},
		{"ZeroWidth", Record{Format: pixel.L8, Width: 0, Height: 2}},
		{"UnknownFormat", Record{Format: pixel.Format(17), Width: 1, Height: 1, Texels: make([]byte, 4)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := append(sampleRecords(), tt.record)
			data, err := Serialize(New(records))
			require.Error(t, err)
			assert.True(t, ErrInvalidRecord.Is(err), err.Error())
			assert.Nil(t, data)
			assert.Contains(t, err.Error(), "record 4")
		})
	}
}

func TestSerializeLengthFuzz(t *testing.T) {
	for _, f := range pixel.Formats {
		good, err := pixel.TexelSize(f, 3, 5)
		require.NoError(t, err)
		for n := 0; n <= good+8; n++ {
			if n == good {
				continue
			}
			r := Record{Format: f, Width: 3, Height: 5, Texels: make([]byte, n)}
			data, err := Serialize(New([]Record{r}))
			require.Error(t, err)
			require.True(t, ErrInvalidRecord.Is(err))
			require.Nil(t, data)
		}
	}
}

func TestParseTruncated(t *testing.T) {
	data := buildPackage(t, sampleRecords())

	for n := 0; n < len(data); n++ {
		a, err := Parse(data[:n])
		require.Error(t, err, "prefix %d", n)
		require.Nil(t, a)
		require.True(t, ErrTruncatedInput.Is(err) || ErrCorruptArchive.Is(err), "prefix %d: %v", n, err)
	}
}

func TestParseCorrupt(t *testing.T) {
	t.Run("IndexOffsetInHeader", func(t *testing.T) {
		data := buildPackage(t, sampleRecords())
		binary.LittleEndian.PutUint32(data[4:], 4)
		_, err := Parse(data)
		assert.True(t, ErrCorruptArchive.Is(err))
	})

	t.Run("TexelsInsideIndex", func(t *testing.T) {
		data := buildPackage(t, sampleRecords())
		binary.LittleEndian.PutUint32(data[DefaultIndexOffset+EntrySize+0x20:], DefaultIndexOffset)
		_, err := Parse(data)
		require.True(t, ErrCorruptArchive.Is(err))
		assert.Contains(t, err.Error(), "record 1")
	})

	t.Run("Overlap", func(t *testing.T) {
		// record 0 grows from 2x2 to 2x3, so its texels run into record 1
		data := buildPackage(t, sampleRecords())
		binary.LittleEndian.PutUint32(data[DefaultIndexOffset+0x08:], 3)
		_, err := Parse(data)
		require.True(t, ErrCorruptArchive.Is(err))
		assert.Contains(t, err.Error(), "record 0")
	})

	t.Run("ZeroHeight", func(t *testing.T) {
		data := buildPackage(t, sampleRecords())
		binary.LittleEndian.PutUint32(data[DefaultIndexOffset+2*EntrySize+0x08:], 0)
		_, err := Parse(data)
		require.True(t, ErrCorruptArchive.Is(err))
		assert.Contains(t, err.Error(), "record 2")
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		data := buildPackage(t, sampleRecords())
		binary.LittleEndian.PutUint32(data[DefaultIndexOffset+3*EntrySize+0x1C:], 9)
		_, err := Parse(data)
		require.True(t, pixel.ErrUnsupportedFormat.Is(err))
		assert.Contains(t, err.Error(), "record 3")
	})

	t.Run("HugeCount", func(t *testing.T) {
		data := buildPackage(t, sampleRecords())
		binary.LittleEndian.PutUint32(data[0:], 0xFFFFFFFF)
		_, err := Parse(data)
		assert.True(t, ErrTruncatedInput.Is(err))
	})
}

func TestCustomHeaderLength(t *testing.T) {
	a := &Archive{Header: []byte{9, 9, 9, 9}, Records: sampleRecords()[:1]}
	data, err := Serialize(a)
	require.NoError(t, err)
	assert.Equal(t, uint32(12), binary.LittleEndian.Uint32(data[4:]))

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, a.Header, parsed.Header)
}

func TestWithFormat(t *testing.T) {
	a := New(sampleRecords())

	converted, err := a.WithFormat(pixel.L8A8)
	require.NoError(t, err)
	require.Equal(t, a.Len(), converted.Len())

	for i, r := range converted.Records {
		assert.Equal(t, pixel.L8A8, r.Format)
		assert.Equal(t, int(r.Width*r.Height)*2, len(r.Texels))
		assert.Equal(t, a.Records[i].IDHash, r.IDHash)
		assert.Equal(t, a.Records[i].Reserved, r.Reserved)
	}

	// source untouched
	assert.Equal(t, sampleRecords(), a.Records)

	_, err = Serialize(converted)
	require.NoError(t, err)
}

func TestReservedWords(t *testing.T) {
	var r Record
	words := [4]int32{-1, 0, 1, 0x12345678}
	r.SetReservedWords(words)
	assert.Equal(t, words, r.ReservedWords())
	assert.Equal(t, byte(0xFF), r.Reserved[0])
	assert.Equal(t, byte(0x78), r.Reserved[12])
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	a := New(sampleRecords())

	t.Run("Raw", func(t *testing.T) {
		path := filepath.Join(dir, "raw.tpg")
		require.NoError(t, WriteFile(path, a))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.False(t, archive.IsEnvelope(data))

		b, err := ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, a.Records, b.Records)
	})

	t.Run("Compressed", func(t *testing.T) {
		path := filepath.Join(dir, "packed.tpg")
		require.NoError(t, WriteFile(path, a, WithCompression(archive.DefaultCompressionLevel)))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, archive.IsEnvelope(data))

		b, err := ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, a.Records, b.Records)
		assert.Equal(t, a.Header, b.Header)
	})

	t.Run("XZ", func(t *testing.T) {
		path := filepath.Join(dir, "packed.tpg.xz")
		require.NoError(t, WriteFile(path, a, WithXZ()))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, archive.IsXZ(data))

		b, err := ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, a.Records, b.Records)
	})

	t.Run("InvalidLeavesNothing", func(t *testing.T) {
		path := filepath.Join(dir, "bad.tpg")
		bad := New([]Record{{Format: pixel.R8G8B8A8, Width: 1, Height: 1}})
		err := WriteFile(path, bad)
		require.True(t, ErrInvalidRecord.Is(err))

		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr))
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		for _, e := range entries {
			assert.NotContains(t, e.Name(), ".tmp")
		}
	})
}

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]Compression{"": NoCompression, "none": NoCompression, "ZSTD": Zstd, "xz": XZ} {
		got, err := ParseCompression(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseCompression("gzip")
	assert.Error(t, err)
}
