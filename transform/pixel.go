package transform

import (
	"github.com/mrjoshuak/go-lico/bmp"
	"github.com/mrjoshuak/go-lico/internal/parallel"
)

// foldTCMS maps a signed residual to an unsigned byte with the
// two's-complement-magnitude-sign (zigzag) remap: small magnitudes of
// either sign become small codes. Only the low byte of v participates,
// so the mapping is a bijection on the 256 residual classes.
func foldTCMS(v int32) byte {
	return byte((v << 1) ^ (v << 24 >> 31))
}

// unfoldTCMS inverts foldTCMS.
func unfoldTCMS(b byte) int32 {
	v := int32(b)
	return (v >> 1) ^ (v << 31 >> 31)
}

// decorrelate predicts each pixel from its left neighbor (from the
// pixel above for column 0), decorrelates the channels against the
// middle channel, TCMS-folds the residuals, and writes them to cm in
// channel-major layout: plane p at cm[p*w*h:], addressed y + x*h.
//
// Rows are independent: each row's predictor seed is read from the
// original raster at row y-1, never from another row's output, so the
// row loop runs fully parallel.
func decorrelate(raster, cm []byte, g bmp.Geometry) {
	w, h, stride := g.Width, g.Height, g.Stride
	plane := g.PlaneSize()
	parallel.For(h, func(y int) {
		var p0, p1, p2 int32
		if y > 0 {
			row := (y - 1) * stride
			p0 = int32(raster[row])
			p1 = int32(raster[row+1])
			p2 = int32(raster[row+2])
		}
		for x := 0; x < w; x++ {
			off := y*stride + x*3
			n0 := int32(raster[off])
			n1 := int32(raster[off+1])
			n2 := int32(raster[off+2])

			// spatial difference: vertical for x=0, horizontal after
			v0 := n0 - p0
			v1 := n1 - p1
			v2 := n2 - p2
			p0, p1, p2 = n0, n1, n2

			// cross-channel difference, middle channel as pivot
			v0 -= v1
			v2 -= v1

			dst := y + x*h
			cm[dst] = foldTCMS(v0)
			cm[plane+dst] = foldTCMS(v1)
			cm[2*plane+dst] = foldTCMS(v2)
		}
	})
}

// reconstruct inverts decorrelate, reading the channel-major residuals
// from cm back into the raster.
//
// Phase 1 rebuilds column 0 for every row and is strictly sequential:
// each row's predictor is the previous row's just-decoded pixel. Phase
// 2 rebuilds columns 1..w-1 with one independent task per row, seeded
// by that row's now-resolved column 0.
func reconstruct(cm, raster []byte, g bmp.Geometry) {
	w, h, stride := g.Width, g.Height, g.Stride
	plane := g.PlaneSize()

	var p0, p1, p2 int32
	for y := 0; y < h; y++ {
		v0 := unfoldTCMS(cm[y])
		v1 := unfoldTCMS(cm[plane+y])
		v2 := unfoldTCMS(cm[2*plane+y])

		v0 += v1
		v2 += v1

		v0 += p0
		v1 += p1
		v2 += p2

		off := y * stride
		r0, r1, r2 := byte(v0), byte(v1), byte(v2)
		raster[off] = r0
		raster[off+1] = r1
		raster[off+2] = r2
		p0, p1, p2 = int32(r0), int32(r1), int32(r2)
	}

	parallel.For(h, func(y int) {
		off := y * stride
		p0 := int32(raster[off])
		p1 := int32(raster[off+1])
		p2 := int32(raster[off+2])
		for x := 1; x < w; x++ {
			src := y + x*h
			v0 := unfoldTCMS(cm[src])
			v1 := unfoldTCMS(cm[plane+src])
			v2 := unfoldTCMS(cm[2*plane+src])

			v0 += v1
			v2 += v1

			v0 += p0
			v1 += p1
			v2 += p2

			dst := off + x*3
			r0, r1, r2 := byte(v0), byte(v1), byte(v2)
			raster[dst] = r0
			raster[dst+1] = r1
			raster[dst+2] = r2
			p0, p1, p2 = int32(r0), int32(r1), int32(r2)
		}
	})
}
