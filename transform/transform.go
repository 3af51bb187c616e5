// Package transform implements the reversible decorrelation front end
// for uncompressed 24-bit BMP buffers.
//
// Encode rewrites a BMP in place into a form a downstream byte
// compressor handles far better: the header becomes deltas from its
// expected constants (bmp.Transform), every pixel becomes a folded
// prediction residual laid out channel-major, and the residual stream
// is bit-plane transposed so that equal bit positions of many residuals
// sit next to each other. Decode is the exact inverse; for every buffer
// Encode accepts, Decode(Encode(b)) == b byte for byte.
//
// Neither direction changes the buffer's length, and a rejected buffer
// is never modified.
package transform

import (
	"sync"

	"github.com/mrjoshuak/go-lico/bmp"
)

// scratchPool recycles the per-call channel-major buffer. Scratch never
// escapes the Encode/Decode call that takes it.
var scratchPool = sync.Pool{
	New: func() any {
		return new([]byte)
	},
}

func getScratch(n int) *[]byte {
	p := scratchPool.Get().(*[]byte)
	if cap(*p) < n {
		*p = make([]byte, n)
	}
	*p = (*p)[:n]
	return p
}

// Encode transforms a 24-bit BMP buffer in place. It returns the
// image geometry on success. If data is not a conforming BMP the error
// wraps bmp.ErrUnsupported and the buffer is untouched; callers should
// then treat the input as opaque and skip the transform.
func Encode(data []byte) (bmp.Geometry, error) {
	g, err := bmp.Transform(data)
	if err != nil {
		return bmp.Geometry{}, err
	}

	raster := data[bmp.HeaderSize:]
	csize := 3 * g.PlaneSize()
	sp := getScratch((csize + groupBytes - 1) &^ (groupBytes - 1))
	defer scratchPool.Put(sp)
	cm := (*sp)[:csize]

	decorrelate(raster, cm, g)
	transposeScatter(cm, raster)

	// The transposed stream is 3*w*h bytes; whatever row padding the
	// raster carried is collected at the end and zeroed.
	clear(raster[csize:])
	return g, nil
}

// Decode inverts Encode in place. If data does not carry a transformed
// header the error wraps bmp.ErrNotTransformed and the buffer is
// untouched; a non-matching input is indistinguishable from one that
// was never encoded.
func Decode(data []byte) (bmp.Geometry, error) {
	g, err := bmp.InverseTransform(data)
	if err != nil {
		return bmp.Geometry{}, err
	}

	raster := data[bmp.HeaderSize:]
	csize := 3 * g.PlaneSize()
	sp := getScratch((csize + groupBytes - 1) &^ (groupBytes - 1))
	defer scratchPool.Put(sp)
	cm := (*sp)[:csize]

	gatherTranspose(raster, cm)
	reconstruct(cm, raster, g)

	// Row padding is not part of the pixel grid; restore its zeros.
	if g.Pad > 0 {
		for y := 0; y < g.Height; y++ {
			clear(raster[y*g.Stride+3*g.Width : (y+1)*g.Stride])
		}
	}
	return g, nil
}
