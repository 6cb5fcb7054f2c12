package archive

import (
	"bytes"
	"fmt"
	"io"

	"github.com/DataDog/zstd"
)

// Reader decompresses the payload of an envelope.
type Reader struct {
	header  Header
	zReader io.ReadCloser
}

// NewReader reads and validates the envelope header from r and returns a
// reader for the decompressed payload.
func NewReader(r io.Reader) (*Reader, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	reader := &Reader{}
	if err := reader.header.UnmarshalBinary(buf[:]); err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}

	reader.zReader = zstd.NewReader(io.LimitReader(r, int64(reader.header.CompressedLength)))
	return reader, nil
}

// Header returns the envelope header.
func (r *Reader) Header() Header {
	return r.header
}

// Read reads decompressed data into p.
func (r *Reader) Read(p []byte) (int, error) {
	return r.zReader.Read(p)
}

// Close releases the decompressor.
func (r *Reader) Close() error {
	return r.zReader.Close()
}

// ReadAll reads and decompresses a whole envelope. The buffer grows with the
// data actually decompressed, never with the length the header claims.
func ReadAll(r io.Reader) ([]byte, error) {
	reader, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	want := reader.header.Length
	data, err := io.ReadAll(io.LimitReader(reader, int64(want)+1))
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	if uint64(len(data)) != want {
		return nil, fmt.Errorf("content is %d bytes, header declares %d", len(data), want)
	}

	return data, nil
}

// Decompress unwraps an envelope held in memory.
func Decompress(data []byte) ([]byte, error) {
	if len(data) >= HeaderSize {
		var h Header
		h.DecodeFrom(data)
		if avail := uint64(len(data) - HeaderSize); h.CompressedLength > avail {
			return nil, fmt.Errorf("compressed data is %d bytes, header declares %d", avail, h.CompressedLength)
		}
	}
	return ReadAll(bytes.NewReader(data))
}
