// Package archive implements the compressed envelope used to store texture
// packages at rest: a 24-byte header followed by a single zstd stream.
//
//	0x00  [4]  magic "ZSTD"
//	0x04  u32  header length after this field (16)
//	0x08  u64  uncompressed length
//	0x10  u64  compressed length
package archive

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Magic identifies an envelope.
var Magic = [4]byte{0x5a, 0x53, 0x54, 0x44} // "ZSTD"

const (
	// HeaderSize is the fixed binary size of an envelope header.
	HeaderSize = 24

	headerLength = 16

	// MaxLength bounds the uncompressed size accepted from a header.
	MaxLength = 1 << 32

	// maxRatio bounds Length/CompressedLength. An RLE block, the densest
	// zstd encoding, expands 4 bytes to at most 128 KiB.
	maxRatio = 1 << 16
)

// Header describes the payload of an envelope.
type Header struct {
	Magic            [4]byte
	HeaderLength     uint32
	Length           uint64 // uncompressed size
	CompressedLength uint64
}

// NewHeader returns a header for a payload of the given sizes.
func NewHeader(length, compressedLength uint64) *Header {
	return &Header{
		Magic:            Magic,
		HeaderLength:     headerLength,
		Length:           length,
		CompressedLength: compressedLength,
	}
}

// IsEnvelope reports whether data starts with the envelope magic.
func IsEnvelope(data []byte) bool {
	return len(data) >= len(Magic) && bytes.Equal(data[:len(Magic)], Magic[:])
}

// Validate checks the header for validity.
func (h *Header) Validate() error {
	if h.Magic != Magic {
		return fmt.Errorf("invalid magic: expected %x, got %x", Magic, h.Magic)
	}
	if h.HeaderLength != headerLength {
		return fmt.Errorf("invalid header length: expected %d, got %d", headerLength, h.HeaderLength)
	}
	if h.Length == 0 {
		return fmt.Errorf("uncompressed size is zero")
	}
	if h.Length > MaxLength {
		return fmt.Errorf("uncompressed size %d exceeds %d", h.Length, uint64(MaxLength))
	}
	if h.CompressedLength == 0 || h.CompressedLength > MaxLength {
		return fmt.Errorf("invalid compressed size %d", h.CompressedLength)
	}
	if h.Length/maxRatio > h.CompressedLength {
		return fmt.Errorf("uncompressed size %d is implausible for %d compressed bytes", h.Length, h.CompressedLength)
	}
	return nil
}

// MarshalBinary encodes the header.
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	h.EncodeTo(buf)
	return buf, nil
}

// EncodeTo writes the header to buf, which must be at least HeaderSize bytes.
func (h *Header) EncodeTo(buf []byte) {
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.HeaderLength)
	binary.LittleEndian.PutUint64(buf[8:16], h.Length)
	binary.LittleEndian.PutUint64(buf[16:24], h.CompressedLength)
}

// UnmarshalBinary decodes and validates the header.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("header data too short: need %d, got %d", HeaderSize, len(data))
	}
	h.DecodeFrom(data)
	return h.Validate()
}

// DecodeFrom reads the header from buf without validating it.
func (h *Header) DecodeFrom(buf []byte) {
	copy(h.Magic[:], buf[0:4])
	h.HeaderLength = binary.LittleEndian.Uint32(buf[4:8])
	h.Length = binary.LittleEndian.Uint64(buf[8:16])
	h.CompressedLength = binary.LittleEndian.Uint64(buf[16:24])
}
