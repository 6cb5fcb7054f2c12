// Package imagefile reads and writes the image files of an extracted
// texture directory.
//
// Images are written as PNG or lossless WebP. Any of PNG, WebP, TGA, BMP and
// TIFF is accepted when reading. Pixels are exchanged as tightly packed,
// non-premultiplied RGBA8888 buffers.
package imagefile

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

// Format is an output image format.
type Format string

// Output formats.
const (
	PNG  Format = "png"
	WebP Format = "webp"
)

type decodeFunc func(io.Reader) (image.Image, error)

// decoders maps the extensions recognised as texture images to their
// decoder. TGA has no magic number, so decoders are never chosen through
// image.Decode.
var decoders = map[string]decodeFunc{
	".png":  png.Decode,
	".webp": decodeWebP,
	".tga":  tga.Decode,
	".bmp":  bmp.Decode,
	".tif":  tiff.Decode,
	".tiff": tiff.Decode,
}

// magics identifies the input formats that carry a signature.
var magics = []struct {
	magic  string
	decode decodeFunc
}{
	{"\x89PNG\r\n\x1a\n", png.Decode},
	{"RIFF", decodeWebP},
	{"BM", bmp.Decode},
	{"II*\x00", tiff.Decode},
	{"MM\x00*", tiff.Decode},
}

func decodeWebP(r io.Reader) (image.Image, error) {
	return nativewebp.DecodeIgnoreAlphaFlag(r)
}

// ParseFormat resolves an output format name.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimPrefix(name, "."))) {
	case PNG:
		return PNG, nil
	case WebP:
		return WebP, nil
	}
	return "", fmt.Errorf("unsupported image format %q (want png or webp)", name)
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// IsImage reports whether path has an extension this package can read.
func IsImage(path string) bool {
	_, ok := decoders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// FromRGBA wraps a tightly packed RGBA8888 buffer as an image without copying.
func FromRGBA(pix []byte, width, height int) (*image.NRGBA, error) {
	if len(pix) != width*height*4 {
		return nil, fmt.Errorf("pixel buffer is %d bytes, %dx%d needs %d", len(pix), width, height, width*height*4)
	}
	return &image.NRGBA{
		Pix:    pix,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}, nil
}

// RGBA returns the pixels of img as a tightly packed RGBA8888 buffer.
func RGBA(img image.Image) []byte {
	n := toNRGBA(img)
	w, h := n.Rect.Dx(), n.Rect.Dy()
	if n.Stride == w*4 && len(n.Pix) == w*h*4 {
		return n.Pix
	}
	pix := make([]byte, 0, w*h*4)
	for y := 0; y < h; y++ {
		off := y * n.Stride
		pix = append(pix, n.Pix[off:off+w*4]...)
	}
	return pix
}

// Encode writes img to w in format f.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case PNG:
		return png.Encode(w, img)
	case WebP:
		return nativewebp.Encode(w, img, nil)
	default:
		return fmt.Errorf("unsupported image format %q", f)
	}
}

// Decode reads an image in any supported input format, identified by its
// signature. Input without a known signature is decoded as TGA.
func Decode(r io.Reader) (image.Image, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(8)
	for _, m := range magics {
		if bytes.HasPrefix(head, []byte(m.magic)) {
			return m.decode(br)
		}
	}
	return tga.Decode(br)
}

// decode picks the decoder from the file extension. A WebP signature wins
// over the extension.
func decode(r io.Reader, path string) (image.Image, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(4); err == nil && bytes.Equal(head, []byte("RIFF")) {
		return decodeWebP(br)
	}
	dec, ok := decoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return Decode(br)
	}
	return dec(br)
}

// WriteFile encodes an RGBA8888 buffer to path.
func WriteFile(path string, pix []byte, width, height int, f Format) (err error) {
	img, err := FromRGBA(pix, width, height)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imagefile: create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("imagefile: close %s: %w", path, cerr)
		}
	}()

	bw := bufio.NewWriter(file)
	if err := Encode(bw, img, f); err != nil {
		return fmt.Errorf("imagefile: encode %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("imagefile: write %s: %w", path, err)
	}
	return nil
}

// ReadFile decodes the image at path, choosing the decoder by extension, and
// returns its RGBA8888 pixels and dimensions.
func ReadFile(path string) (pix []byte, width, height int, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("imagefile: open %s: %w", path, err)
	}
	defer file.Close()

	img, err := decode(file, path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("imagefile: decode %s: %w", path, err)
	}

	b := img.Bounds()
	return RGBA(img), b.Dx(), b.Dy(), nil
}

// toNRGBA converts any image to NRGBA with its origin at (0, 0).
func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, src, b.Min, draw.Src)
	return dst
}
