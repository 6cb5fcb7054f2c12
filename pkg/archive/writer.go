package archive

import (
	"fmt"
	"io"

	"github.com/DataDog/zstd"
)

// DefaultCompressionLevel is the zstd level used unless overridden.
const DefaultCompressionLevel = zstd.BestSpeed

type options struct {
	level int
}

// Option configures Encode.
type Option func(*options)

// WithCompressionLevel sets the zstd compression level.
func WithCompressionLevel(level int) Option {
	return func(o *options) {
		o.level = level
	}
}

// Encode compresses data and writes it to w as an envelope.
func Encode(w io.Writer, data []byte, opts ...Option) error {
	o := options{level: DefaultCompressionLevel}
	for _, opt := range opts {
		opt(&o)
	}

	compressed, err := zstd.CompressLevel(nil, data, o.level)
	if err != nil {
		return fmt.Errorf("compress: %w", err)
	}

	header, err := NewHeader(uint64(len(data)), uint64(len(compressed))).MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal header: %w", err)
	}
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := w.Write(compressed); err != nil {
		return fmt.Errorf("write data: %w", err)
	}

	return nil
}
