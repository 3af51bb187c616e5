// Package zeroelim implements a bitmap-based sparse codec for
// mostly-zero word arrays.
//
// The input is split into subchunks of one word-width's worth of words.
// Each subchunk is summarized by a single bitmap word marking its
// nonzero positions, and the nonzero words themselves are packed
// densely, in order, into a compacted array. Decoding walks the bitmap
// and re-inserts the zeros.
//
// The codec is generic over the word width (8, 16, 32, or 64 bits) and
// has no state of its own, so it is reusable on any densely-packed word
// array, not just this module's image residual streams.
package zeroelim

import "errors"

// ErrShortBuffer is returned by EncodeChecked when the compacted output
// would exceed the supplied buffer. Output already written up to the
// point of failure is not meaningful and must be discarded.
var ErrShortBuffer = errors.New("zeroelim: compacted output exceeds capacity")

// Word is any unsigned integer word the codec can operate on.
type Word interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// wordBits returns the width of W in bits.
func wordBits[W Word]() int {
	n := 0
	for v := W(1); v != 0; v <<= 1 {
		n++
	}
	return n
}

// BitmapLen returns the number of bitmap words needed to encode insize
// input words: one bitmap word per subchunk of wordBits words.
func BitmapLen[W Word](insize int) int {
	bits := wordBits[W]()
	return (insize + bits - 1) / bits
}

func encode[W Word](in, data, bm []W, checked bool) (int, error) {
	bits := wordBits[W]()
	pos := 0
	cnt := 0
	for i := range bm {
		var b W
		for j := 0; j < bits && cnt < len(in); j++ {
			v := in[cnt]
			cnt++
			if v != 0 {
				if checked && pos >= len(data) {
					return pos, ErrShortBuffer
				}
				b |= W(1) << j
				data[pos] = v
				pos++
			}
		}
		bm[i] = b
	}
	return pos, nil
}

// Encode compacts in, writing one bitmap word per subchunk to bm and
// the nonzero words, in order, to data. It returns the number of
// compacted words written.
//
// bm must have BitmapLen(len(in)) words and data must have room for
// every nonzero word of in (len(in) always suffices). Use EncodeChecked
// when the compacted size is not known to fit.
func Encode[W Word](in, data, bm []W) int {
	n, _ := encode(in, data, bm, false)
	return n
}

// EncodeChecked is Encode with a capacity check: it fails with
// ErrShortBuffer instead of writing past len(data). On failure the
// bitmap and the first len(data) compacted words may have been
// written; callers must discard them and fall back to the uncompacted
// representation.
func EncodeChecked[W Word](in, data, bm []W) (int, error) {
	return encode(in, data, bm, true)
}

// Decode reverses Encode, expanding the compacted words in data and the
// bitmap bm into out. A clear bitmap bit produces a zero word, a set
// bit consumes the next compacted word. len(out) determines how many
// words are produced; the final subchunk may be partial.
func Decode[W Word](data, bm, out []W) {
	bits := wordBits[W]()
	num := BitmapLen[W](len(out))
	pos := 0
	cnt := 0
	for i := 0; i < num; i++ {
		b := bm[i]
		for j := 0; j < bits && cnt < len(out); j++ {
			var v W
			if (b>>j)&1 != 0 {
				v = data[pos]
				pos++
			}
			out[cnt] = v
			cnt++
		}
	}
}
