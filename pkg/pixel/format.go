// Package pixel converts texel data between the texture formats used in
// texture packages and canonical RGBA8888.
//
// Every format is a fixed number of bytes per texel with no block
// compression. 16-bit formats are stored as little-endian words with the
// first channel in the most significant bits.
//
// Only R8G8B8A8 is lossless. The reduced formats quantise each channel
// independently with round-to-nearest, ties rounding up:
//
//	q = floor(c*m/255 + 1/2)   where m = 2^bits - 1
//
// and expand back with rounding so that the maximum code decodes to 255:
//
//	c = floor(q*255/m + 1/2)
//
// Encoding a decoded buffer again yields the same texels, so one lossy pass
// is a fixed point.
package pixel

import (
	"fmt"
	"math"
	"strings"

	errors "gopkg.in/src-d/go-errors.v1"
)

var (
	// ErrUnsupportedFormat is returned for a format tag the codec does not know.
	ErrUnsupportedFormat = errors.NewKind("unsupported texture format %d")

	// ErrFormat is returned when a buffer does not match the size implied by
	// its format and dimensions.
	ErrFormat = errors.NewKind("%s %dx%d: expected %d bytes, got %d")
)

// Format is the on-disk texture format tag.
type Format uint32

// Format tags. The first four are the tags found in shipped packages.
const (
	R5G5B5A1 Format = 0
	R4G4B4A4 Format = 1
	R5G6B5   Format = 2
	R8G8B8A8 Format = 3
	L8       Format = 4
	L8A8     Format = 5
)

// Formats lists every supported format in tag order.
var Formats = []Format{R5G5B5A1, R4G4B4A4, R5G6B5, R8G8B8A8, L8, L8A8}

// String returns the symbolic name used in sidecars and on the command line.
func (f Format) String() string {
	switch f {
	case R5G5B5A1:
		return "R5G5B5A1"
	case R4G4B4A4:
		return "R4G4B4A4"
	case R5G6B5:
		return "R5G6B5"
	case R8G8B8A8:
		return "R8G8B8A8"
	case L8:
		return "L8"
	case L8A8:
		return "L8A8"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint32(f))
	}
}

// Valid reports whether f is a supported tag.
func (f Format) Valid() bool {
	return BytesPerTexel(f) != 0
}

// Lossless reports whether Decode(Encode(p)) == p for every RGBA buffer p.
func (f Format) Lossless() bool {
	return f == R8G8B8A8
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, ErrUnsupportedFormat.New(uint32(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(text []byte) error {
	parsed, err := ParseFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// ParseFormat resolves a format name. Matching is case-insensitive and a few
// common aliases are accepted (RGBA8888, RGB565, RGBA4444, RGBA5551, LA88).
func ParseFormat(name string) (Format, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "R5G5B5A1", "RGBA5551":
		return R5G5B5A1, nil
	case "R4G4B4A4", "RGBA4444":
		return R4G4B4A4, nil
	case "R5G6B5", "RGB565":
		return R5G6B5, nil
	case "R8G8B8A8", "RGBA8888", "RGBA8":
		return R8G8B8A8, nil
	case "L8", "LUMINANCE":
		return L8, nil
	case "L8A8", "LA88":
		return L8A8, nil
	}
	return 0, fmt.Errorf("unknown texture format %q", name)
}

// BytesPerTexel returns the encoded size of one texel, or 0 for an unknown tag.
func BytesPerTexel(f Format) int {
	switch f {
	case R5G5B5A1, R4G4B4A4, R5G6B5, L8A8:
		return 2
	case R8G8B8A8:
		return 4
	case L8:
		return 1
	default:
		return 0
	}
}

// TexelSize returns width*height*BytesPerTexel(f), failing on unknown
// formats and on sizes that do not fit in a 32-bit length.
func TexelSize(f Format, width, height uint32) (int, error) {
	bpp := BytesPerTexel(f)
	if bpp == 0 {
		return 0, ErrUnsupportedFormat.New(uint32(f))
	}
	size := uint64(width) * uint64(height) * uint64(bpp)
	if size > math.MaxUint32 {
		return 0, fmt.Errorf("%s %dx%d: texel data exceeds 4 GiB", f, width, height)
	}
	return int(size), nil
}
