package archive

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
)

// xzMagic is the stream header magic of the .xz format.
var xzMagic = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}

// IsXZ reports whether data starts with an xz stream header.
func IsXZ(data []byte) bool {
	return bytes.HasPrefix(data, xzMagic)
}

// EncodeXZ compresses data and writes it to w as an xz stream.
func EncodeXZ(w io.Writer, data []byte) error {
	xw, err := xz.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create xz writer: %w", err)
	}
	if _, err := xw.Write(data); err != nil {
		xw.Close()
		return fmt.Errorf("write data: %w", err)
	}
	if err := xw.Close(); err != nil {
		return fmt.Errorf("close xz writer: %w", err)
	}
	return nil
}

// DecompressXZ unwraps an xz stream held in memory.
func DecompressXZ(data []byte) ([]byte, error) {
	xr, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create xz reader: %w", err)
	}

	out, err := io.ReadAll(xr)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	if uint64(len(out)) > MaxLength {
		return nil, fmt.Errorf("uncompressed size %d exceeds %d", len(out), uint64(MaxLength))
	}
	return out, nil
}
