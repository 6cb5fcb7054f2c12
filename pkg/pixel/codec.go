package pixel

import "encoding/binary"

// Decode converts texel data to an RGBA8888 buffer of 4*width*height bytes.
func Decode(f Format, width, height uint32, texels []byte) ([]byte, error) {
	size, err := TexelSize(f, width, height)
	if err != nil {
		return nil, err
	}
	if len(texels) != size {
		return nil, ErrFormat.New(f, width, height, size, len(texels))
	}

	n := int(width) * int(height)
	out := make([]byte, n*4)

	switch f {
	case R5G5B5A1:
		for i := 0; i < n; i++ {
			v := binary.LittleEndian.Uint16(texels[i*2:])
			putRGBA(out[i*4:], expand(v>>11, 5), expand(v>>6, 5), expand(v>>1, 5), expand(v, 1))
		}
	case R4G4B4A4:
		for i := 0; i < n; i++ {
			v := binary.LittleEndian.Uint16(texels[i*2:])
			putRGBA(out[i*4:], expand(v>>12, 4), expand(v>>8, 4), expand(v>>4, 4), expand(v, 4))
		}
	case R5G6B5:
		for i := 0; i < n; i++ {
			v := binary.LittleEndian.Uint16(texels[i*2:])
			putRGBA(out[i*4:], expand(v>>11, 5), expand(v>>5, 6), expand(v, 5), 0xFF)
		}
	case R8G8B8A8:
		copy(out, texels)
	case L8:
		for i := 0; i < n; i++ {
			l := texels[i]
			putRGBA(out[i*4:], l, l, l, 0xFF)
		}
	case L8A8:
		for i := 0; i < n; i++ {
			l := texels[i*2]
			putRGBA(out[i*4:], l, l, l, texels[i*2+1])
		}
	default:
		return nil, ErrUnsupportedFormat.New(uint32(f))
	}

	return out, nil
}

// Encode converts an RGBA8888 buffer of 4*width*height bytes to texel data.
// The result depends only on the input; there is no dithering.
func Encode(f Format, width, height uint32, rgba []byte) ([]byte, error) {
	size, err := TexelSize(f, width, height)
	if err != nil {
		return nil, err
	}
	n := int(width) * int(height)
	if len(rgba) != n*4 {
		return nil, ErrFormat.New(R8G8B8A8, width, height, n*4, len(rgba))
	}

	out := make([]byte, size)

	switch f {
	case R5G5B5A1:
		for i := 0; i < n; i++ {
			p := rgba[i*4 : i*4+4]
			v := reduce(p[0], 5)<<11 | reduce(p[1], 5)<<6 | reduce(p[2], 5)<<1 | reduce(p[3], 1)
			binary.LittleEndian.PutUint16(out[i*2:], v)
		}
	case R4G4B4A4:
		for i := 0; i < n; i++ {
			p := rgba[i*4 : i*4+4]
			v := reduce(p[0], 4)<<12 | reduce(p[1], 4)<<8 | reduce(p[2], 4)<<4 | reduce(p[3], 4)
			binary.LittleEndian.PutUint16(out[i*2:], v)
		}
	case R5G6B5:
		// alpha is dropped
		for i := 0; i < n; i++ {
			p := rgba[i*4 : i*4+4]
			v := reduce(p[0], 5)<<11 | reduce(p[1], 6)<<5 | reduce(p[2], 5)
			binary.LittleEndian.PutUint16(out[i*2:], v)
		}
	case R8G8B8A8:
		copy(out, rgba)
	case L8:
		for i := 0; i < n; i++ {
			p := rgba[i*4 : i*4+4]
			out[i] = luminance(p[0], p[1], p[2])
		}
	case L8A8:
		for i := 0; i < n; i++ {
			p := rgba[i*4 : i*4+4]
			out[i*2] = luminance(p[0], p[1], p[2])
			out[i*2+1] = p[3]
		}
	default:
		return nil, ErrUnsupportedFormat.New(uint32(f))
	}

	return out, nil
}

// Convert re-encodes texel data from one format to another through RGBA8888.
func Convert(from, to Format, width, height uint32, texels []byte) ([]byte, error) {
	rgba, err := Decode(from, width, height, texels)
	if err != nil {
		return nil, err
	}
	return Encode(to, width, height, rgba)
}

func putRGBA(dst []byte, r, g, b, a uint8) {
	dst[0] = r
	dst[1] = g
	dst[2] = b
	dst[3] = a
}

// expand scales the low bits of v to the full 0-255 range.
func expand(v uint16, bits uint) uint8 {
	m := uint32(1)<<bits - 1
	q := uint32(v) & m
	return uint8((q*255 + m/2) / m)
}

// reduce quantises c to the given bit depth, rounding half up.
func reduce(c uint8, bits uint) uint16 {
	m := uint32(1)<<bits - 1
	return uint16((2*uint32(c)*m + 255) / 510)
}

// luminance uses 8-bit fixed-point Rec. 601 weights, which sum to 256 so
// grey values map to themselves.
func luminance(r, g, b uint8) uint8 {
	return uint8((77*uint32(r) + 150*uint32(g) + 29*uint32(b) + 128) >> 8)
}
