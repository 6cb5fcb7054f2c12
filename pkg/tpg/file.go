package tpg

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/EchoTools/tpgtools/pkg/archive"
)

// ReadFile reads and parses a texture package. Packages stored in a
// compressed envelope are unwrapped transparently.
func ReadFile(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read package: %w", err)
	}

	switch {
	case archive.IsEnvelope(data):
		if data, err = archive.Decompress(data); err != nil {
			return nil, fmt.Errorf("decompress package: %w", err)
		}
	case archive.IsXZ(data):
		if data, err = archive.DecompressXZ(data); err != nil {
			return nil, fmt.Errorf("decompress package: %w", err)
		}
	}

	return Parse(data)
}

// Compression selects how WriteFile stores a package.
type Compression string

// Compression methods.
const (
	NoCompression Compression = "none"
	Zstd          Compression = "zstd"
	XZ            Compression = "xz"
)

// ParseCompression resolves a compression method name. The empty string
// means NoCompression.
func ParseCompression(name string) (Compression, error) {
	switch c := Compression(strings.ToLower(name)); c {
	case "", NoCompression:
		return NoCompression, nil
	case Zstd, XZ:
		return c, nil
	}
	return "", fmt.Errorf("unknown compression %q (want none, zstd or xz)", name)
}

type writeOptions struct {
	method Compression
	level  int
}

// WriteOption configures WriteFile.
type WriteOption func(*writeOptions)

// WithCompression stores the package in a zstd envelope.
func WithCompression(level int) WriteOption {
	return func(o *writeOptions) {
		o.method = Zstd
		o.level = level
	}
}

// WithXZ stores the package as an xz stream.
func WithXZ() WriteOption {
	return func(o *writeOptions) {
		o.method = XZ
	}
}

// WriteFile serializes a and replaces path with the result. The file is
// written next to its destination and renamed, so a failed write never
// leaves a partial package behind.
func WriteFile(path string, a *Archive, opts ...WriteOption) (err error) {
	o := writeOptions{method: NoCompression, level: archive.DefaultCompressionLevel}
	for _, opt := range opts {
		opt(&o)
	}

	data, err := Serialize(a)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	switch o.method {
	case Zstd:
		err = archive.Encode(f, data, archive.WithCompressionLevel(o.level))
	case XZ:
		err = archive.EncodeXZ(f, data)
	default:
		_, err = f.Write(data)
	}
	if err != nil {
		return fmt.Errorf("write package: %w", err)
	}

	if err = f.Close(); err != nil {
		return fmt.Errorf("close package: %w", err)
	}
	if err = os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("rename package: %w", err)
	}
	return nil
}
