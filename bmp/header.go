// Package bmp validates and losslessly transforms the fixed 54-byte
// header of uncompressed 24-bit BMP images.
//
// The transform rewrites every constant-valued header field as its
// delta from the expected constant, so a conforming header becomes
// almost entirely zero bytes, which a downstream byte compressor can
// squeeze to nearly nothing. The inverse transform adds the constants
// back and restores the header byte-for-byte.
//
// Only the subset of the BMP format needed for exact round-trip is
// supported: BITMAPINFOHEADER, 24 bits per pixel, no compression, no
// palette. Anything else is rejected and the buffer is left untouched.
package bmp

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Errors returned by header validation.
var (
	// ErrUnsupported is returned when the buffer is not a conforming
	// uncompressed 24-bit BMP. The buffer is never modified in that case.
	ErrUnsupported = errors.New("bmp: unsupported or malformed BMP")

	// ErrNotTransformed is returned by InverseTransform when the buffer
	// does not carry a transformed header. The buffer is never modified
	// in that case.
	ErrNotTransformed = errors.New("bmp: not a transformed BMP header")
)

// Fixed header layout (all multi-byte fields little-endian).
const (
	HeaderSize = 54 // file header (14) + BITMAPINFOHEADER (40)

	offMagic       = 0  // 'B', 'M'
	offFileSize    = 2  // total file size in bytes
	offReserved    = 6  // two reserved 16-bit fields, carried as-is
	offDataOffset  = 10 // offset to pixel data, always 54
	offDIBSize     = 14 // DIB header size, always 40
	offWidth       = 18 // signed width in pixels
	offHeight      = 22 // signed height in pixels
	offPlanes      = 26 // color planes, always 1
	offBPP         = 28 // bits per pixel, only 24 supported
	offCompression = 30 // compression method, only 0 supported
	offImageSize   = 34 // raster size in bytes including row padding
	offHRes        = 38 // horizontal resolution, carried as-is
	offVRes        = 42 // vertical resolution, stored as delta from offHRes
	offColors      = 46 // palette color count, always 0
	offImportant   = 50 // important color count, always 0

	expectedDataOffset = 54
	expectedDIBSize    = 40
	expectedPlanes     = 1
	expectedBPP        = 24
)

// Geometry describes the pixel grid derived from a validated header.
// It is read-only for the rest of the pipeline.
type Geometry struct {
	Width  int // logical width in pixels, >= 1
	Height int // logical height in pixels, >= 1
	Stride int // bytes per row: 3*Width rounded up to a 4-byte boundary
	Pad    int // trailing padding bytes per row: Stride - 3*Width
}

// PixelBytes returns the total raster size in bytes, Height*Stride.
func (g Geometry) PixelBytes() int {
	return g.Height * g.Stride
}

// PlaneSize returns the per-channel plane size in bytes, Width*Height.
func (g Geometry) PlaneSize() int {
	return g.Width * g.Height
}

func get2(data []byte) uint32 {
	return uint32(binary.LittleEndian.Uint16(data))
}

func get4(data []byte) uint32 {
	return binary.LittleEndian.Uint32(data)
}

func put2(data []byte, v uint32) {
	binary.LittleEndian.PutUint16(data, uint16(v))
}

func put4(data []byte, v uint32) {
	binary.LittleEndian.PutUint32(data, v)
}

// geometry derives the pixel-grid geometry from the width and height
// fields without validating the rest of the header.
func geometry(data []byte) (Geometry, error) {
	if len(data) < HeaderSize {
		return Geometry{}, fmt.Errorf("%w: %d bytes is too small for a BMP", ErrUnsupported, len(data))
	}
	w := int(int32(get4(data[offWidth:])))
	h := int(int32(get4(data[offHeight:])))
	if w < 1 || h < 1 {
		return Geometry{}, fmt.Errorf("%w: invalid dimensions %dx%d", ErrUnsupported, w, h)
	}
	stride := (w*3 + 3) &^ 3
	return Geometry{Width: w, Height: h, Stride: stride, Pad: stride - w*3}, nil
}

// expectedFileSize computes the exact file size a conforming header
// implies. Computed in uint64 so hostile width/height fields cannot
// wrap the check.
func expectedFileSize(g Geometry) uint64 {
	return uint64(g.Height)*uint64(g.Stride) + HeaderSize
}

// Validate checks that data holds a conforming uncompressed 24-bit BMP
// and returns its geometry. The buffer is never modified.
func Validate(data []byte) (Geometry, error) {
	g, err := geometry(data)
	if err != nil {
		return Geometry{}, err
	}
	want := expectedFileSize(g)
	switch {
	case data[0] != 'B' || data[1] != 'M':
		return Geometry{}, fmt.Errorf("%w: bad magic %q", ErrUnsupported, data[:2])
	case uint64(get4(data[offFileSize:])) != want:
		return Geometry{}, fmt.Errorf("%w: file size field %d, want %d", ErrUnsupported, get4(data[offFileSize:]), want)
	case get4(data[offDataOffset:]) != expectedDataOffset:
		return Geometry{}, fmt.Errorf("%w: data offset %d, want %d", ErrUnsupported, get4(data[offDataOffset:]), expectedDataOffset)
	case get4(data[offDIBSize:]) != expectedDIBSize:
		return Geometry{}, fmt.Errorf("%w: DIB header size %d, want %d", ErrUnsupported, get4(data[offDIBSize:]), expectedDIBSize)
	case get2(data[offPlanes:]) != expectedPlanes:
		return Geometry{}, fmt.Errorf("%w: color planes %d, want %d", ErrUnsupported, get2(data[offPlanes:]), expectedPlanes)
	case get2(data[offBPP:]) != expectedBPP:
		return Geometry{}, fmt.Errorf("%w: %d bits per pixel, want %d", ErrUnsupported, get2(data[offBPP:]), expectedBPP)
	case get4(data[offCompression:]) != 0:
		return Geometry{}, fmt.Errorf("%w: compression method %d", ErrUnsupported, get4(data[offCompression:]))
	case uint64(get4(data[offImageSize:])) != want-HeaderSize:
		return Geometry{}, fmt.Errorf("%w: image size field %d, want %d", ErrUnsupported, get4(data[offImageSize:]), want-HeaderSize)
	case get4(data[offColors:]) != 0:
		return Geometry{}, fmt.Errorf("%w: palette color count %d", ErrUnsupported, get4(data[offColors:]))
	case get4(data[offImportant:]) != 0:
		return Geometry{}, fmt.Errorf("%w: important color count %d", ErrUnsupported, get4(data[offImportant:]))
	case uint64(len(data)) != want:
		return Geometry{}, fmt.Errorf("%w: buffer is %d bytes, header implies %d", ErrUnsupported, len(data), want)
	}
	return g, nil
}

// Transform validates the header and rewrites each constant-valued
// field as its delta from the expected constant, in place. A conforming
// header becomes all zero except the width, height, horizontal
// resolution, and reserved fields, which are carried unmodified.
//
// The vertical resolution is stored as its delta from the horizontal
// resolution. The two are equal in BMPs from every producer observed so
// far, but that equality is empirical, not guaranteed by the format; a
// producer that writes differing resolutions still round-trips exactly,
// it just leaves a nonzero delta behind.
//
// On rejection the buffer is untouched and the error wraps ErrUnsupported.
func Transform(data []byte) (Geometry, error) {
	g, err := Validate(data)
	if err != nil {
		return Geometry{}, err
	}
	raster := uint32(g.PixelBytes())
	data[0] -= 'B'
	data[1] -= 'M'
	put4(data[offFileSize:], get4(data[offFileSize:])-(raster+HeaderSize))
	put4(data[offDataOffset:], get4(data[offDataOffset:])-expectedDataOffset)
	put4(data[offDIBSize:], get4(data[offDIBSize:])-expectedDIBSize)
	put2(data[offPlanes:], get2(data[offPlanes:])-expectedPlanes)
	put2(data[offBPP:], get2(data[offBPP:])-expectedBPP)
	put4(data[offImageSize:], get4(data[offImageSize:])-raster)
	put4(data[offVRes:], get4(data[offVRes:])-get4(data[offHRes:]))
	return g, nil
}

// validateTransformed checks that data carries a header previously
// rewritten by Transform: every delta field must be zero. An input that
// fails this check is indistinguishable from one that was never
// encoded, so it must not be reinterpreted.
func validateTransformed(data []byte) (Geometry, error) {
	g, err := geometry(data)
	if err != nil {
		return Geometry{}, err
	}
	if uint64(len(data)) != expectedFileSize(g) {
		return Geometry{}, fmt.Errorf("%w: buffer is %d bytes, header implies %d", ErrNotTransformed, len(data), expectedFileSize(g))
	}
	if data[0] != 0 || data[1] != 0 ||
		get4(data[offFileSize:]) != 0 ||
		get4(data[offDataOffset:]) != 0 ||
		get4(data[offDIBSize:]) != 0 ||
		get2(data[offPlanes:]) != 0 ||
		get2(data[offBPP:]) != 0 ||
		get4(data[offCompression:]) != 0 ||
		get4(data[offImageSize:]) != 0 ||
		get4(data[offColors:]) != 0 ||
		get4(data[offImportant:]) != 0 {
		return Geometry{}, fmt.Errorf("%w: nonzero delta field", ErrNotTransformed)
	}
	return g, nil
}

// InverseTransform restores a header rewritten by Transform, adding
// every constant and derived value back in place. The result is
// byte-for-byte identical to the original header.
//
// On rejection the buffer is untouched and the error wraps
// ErrNotTransformed.
func InverseTransform(data []byte) (Geometry, error) {
	g, err := validateTransformed(data)
	if err != nil {
		return Geometry{}, err
	}
	raster := uint32(g.PixelBytes())
	data[0] += 'B'
	data[1] += 'M'
	put4(data[offFileSize:], get4(data[offFileSize:])+(raster+HeaderSize))
	put4(data[offDataOffset:], get4(data[offDataOffset:])+expectedDataOffset)
	put4(data[offDIBSize:], get4(data[offDIBSize:])+expectedDIBSize)
	put2(data[offPlanes:], get2(data[offPlanes:])+expectedPlanes)
	put2(data[offBPP:], get2(data[offBPP:])+expectedBPP)
	put4(data[offImageSize:], get4(data[offImageSize:])+raster)
	put4(data[offVRes:], get4(data[offVRes:])+get4(data[offHRes:]))
	return g, nil
}
