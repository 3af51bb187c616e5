package bmp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// makeBMP builds a conforming 24-bit BMP with the given dimensions and
// resolution fields. The raster is left zero; tests that care about
// pixel values fill it in afterwards.
func makeBMP(w, h int, hres, vres uint32) []byte {
	stride := (w*3 + 3) &^ 3
	data := make([]byte, HeaderSize+h*stride)
	data[0] = 'B'
	data[1] = 'M'
	binary.LittleEndian.PutUint32(data[offFileSize:], uint32(len(data)))
	binary.LittleEndian.PutUint32(data[offDataOffset:], expectedDataOffset)
	binary.LittleEndian.PutUint32(data[offDIBSize:], expectedDIBSize)
	binary.LittleEndian.PutUint32(data[offWidth:], uint32(w))
	binary.LittleEndian.PutUint32(data[offHeight:], uint32(h))
	binary.LittleEndian.PutUint16(data[offPlanes:], expectedPlanes)
	binary.LittleEndian.PutUint16(data[offBPP:], expectedBPP)
	binary.LittleEndian.PutUint32(data[offImageSize:], uint32(h*stride))
	binary.LittleEndian.PutUint32(data[offHRes:], hres)
	binary.LittleEndian.PutUint32(data[offVRes:], vres)
	return data
}

func TestValidate(t *testing.T) {
	data := makeBMP(7, 5, 2835, 2835)

	g, err := Validate(data)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if g.Width != 7 || g.Height != 5 {
		t.Errorf("geometry %dx%d, want 7x5", g.Width, g.Height)
	}
	if g.Stride != 24 || g.Pad != 3 {
		t.Errorf("stride/pad = %d/%d, want 24/3", g.Stride, g.Pad)
	}
	if g.PixelBytes() != 120 || g.PlaneSize() != 35 {
		t.Errorf("PixelBytes/PlaneSize = %d/%d, want 120/35", g.PixelBytes(), g.PlaneSize())
	}
}

func TestValidateRejects(t *testing.T) {
	corrupt := []struct {
		name string
		mod  func(data []byte)
	}{
		{"magic", func(d []byte) { d[0] = 'b' }},
		{"file size", func(d []byte) { d[offFileSize]++ }},
		{"data offset", func(d []byte) { d[offDataOffset] = 56 }},
		{"dib size", func(d []byte) { d[offDIBSize] = 124 }},
		{"planes", func(d []byte) { d[offPlanes] = 2 }},
		{"bpp", func(d []byte) { d[offBPP] = 32 }},
		{"compression", func(d []byte) { d[offCompression] = 1 }},
		{"image size", func(d []byte) { d[offImageSize]++ }},
		{"colors", func(d []byte) { d[offColors] = 16 }},
		{"important colors", func(d []byte) { d[offImportant] = 16 }},
		{"zero width", func(d []byte) { binary.LittleEndian.PutUint32(d[offWidth:], 0) }},
		{"negative height", func(d []byte) { binary.LittleEndian.PutUint32(d[offHeight:], ^uint32(0)) }},
	}

	for _, tc := range corrupt {
		t.Run(tc.name, func(t *testing.T) {
			data := makeBMP(4, 3, 2835, 2835)
			tc.mod(data)
			if _, err := Validate(data); !errors.Is(err, ErrUnsupported) {
				t.Errorf("Validate after corrupting %s: err = %v, want ErrUnsupported", tc.name, err)
			}
		})
	}

	// Truncated and oversized buffers
	data := makeBMP(4, 3, 0, 0)
	if _, err := Validate(data[:40]); !errors.Is(err, ErrUnsupported) {
		t.Errorf("short buffer: err = %v, want ErrUnsupported", err)
	}
	if _, err := Validate(append(data, 0)); !errors.Is(err, ErrUnsupported) {
		t.Errorf("oversized buffer: err = %v, want ErrUnsupported", err)
	}
}

func TestTransform(t *testing.T) {
	data := makeBMP(4, 3, 2835, 2835)

	if _, err := Transform(data); err != nil {
		t.Fatalf("Transform: %v", err)
	}

	// Every constant field becomes zero; width, height, horizontal
	// resolution and reserved bytes survive unmodified.
	zeroAt := []int{0, 1, offFileSize, offFileSize + 1, offFileSize + 2, offFileSize + 3,
		offDataOffset, offDIBSize, offPlanes, offBPP, offImageSize, offVRes}
	for _, i := range zeroAt {
		if data[i] != 0 {
			t.Errorf("data[%d] = %#x after transform, want 0", i, data[i])
		}
	}
	if got := binary.LittleEndian.Uint32(data[offWidth:]); got != 4 {
		t.Errorf("width field = %d after transform, want 4", got)
	}
	if got := binary.LittleEndian.Uint32(data[offHRes:]); got != 2835 {
		t.Errorf("horizontal resolution = %d after transform, want 2835", got)
	}
}

func TestTransformUnequalResolutions(t *testing.T) {
	data := makeBMP(4, 3, 2835, 11811)
	orig := bytes.Clone(data)

	if _, err := Transform(data); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if got := binary.LittleEndian.Uint32(data[offVRes:]); got != 11811-2835 {
		t.Errorf("vertical resolution delta = %d, want %d", got, 11811-2835)
	}
	if _, err := InverseTransform(data); err != nil {
		t.Fatalf("InverseTransform: %v", err)
	}
	if !bytes.Equal(data, orig) {
		t.Error("round trip with unequal resolutions did not restore the header")
	}
}

func TestTransformRejectionIsNoOp(t *testing.T) {
	data := makeBMP(4, 3, 2835, 2835)
	data[offBPP] = 32 // unsupported depth
	orig := bytes.Clone(data)

	if _, err := Transform(data); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("Transform on bad input: err = %v, want ErrUnsupported", err)
	}
	if !bytes.Equal(data, orig) {
		t.Error("rejected Transform modified the buffer")
	}
}

func TestInverseTransformRoundTrip(t *testing.T) {
	data := makeBMP(5, 4, 2835, 2835)
	orig := bytes.Clone(data)

	gEnc, err := Transform(data)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	gDec, err := InverseTransform(data)
	if err != nil {
		t.Fatalf("InverseTransform: %v", err)
	}
	if gEnc != gDec {
		t.Errorf("geometry changed across round trip: %+v vs %+v", gEnc, gDec)
	}
	if !bytes.Equal(data, orig) {
		t.Error("header round trip is not byte-for-byte identical")
	}
}

func TestInverseTransformRejectsUntransformed(t *testing.T) {
	// A never-encoded BMP must be refused: its nonzero fields are
	// indistinguishable from corruption of a transformed header.
	data := makeBMP(4, 3, 2835, 2835)
	orig := bytes.Clone(data)

	if _, err := InverseTransform(data); !errors.Is(err, ErrNotTransformed) {
		t.Fatalf("InverseTransform on raw BMP: err = %v, want ErrNotTransformed", err)
	}
	if !bytes.Equal(data, orig) {
		t.Error("rejected InverseTransform modified the buffer")
	}
}
