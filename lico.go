// Package lico is a lossless decorrelation front end for 24-bit BMP
// images. It reshapes an image into a form that a general-purpose byte
// compressor handles far better, without doing any entropy coding of
// its own.
//
// Encode runs up to three reversible stages and records which of them
// applied in a small frame header:
//
//  1. the BMP transform (header deltas, pixel prediction residuals,
//     bit-plane transposition) from the transform package; skipped for
//     inputs that are not conforming BMPs, which pass through opaque,
//  2. zero elimination over 32-bit words,
//  3. zero elimination over bytes.
//
// The zero-elimination stages use the checked encoder and are skipped
// whenever they would not shrink the payload, so Encode never grows the
// data by more than the fixed frame header. Decode reverses exactly the
// stages that were applied.
//
// The output of Encode is itself meant to be fed to a downstream byte
// compressor; see the compression package.
package lico

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math/bits"

	"github.com/mrjoshuak/go-lico/transform"
	"github.com/mrjoshuak/go-lico/zeroelim"
)

// ErrCorrupt is returned by Decode when the input is not a well-formed
// frame produced by Encode.
var ErrCorrupt = errors.New("lico: corrupt or truncated stream")

var magic = [4]byte{'L', 'I', 'C', 'O'}

const (
	formatVersion = 1

	// frame header: magic (4) + version (1) + stage flags (1) + original size (4)
	frameHeaderSize = 10

	flagBMP  = 1 << 0 // BMP transform applied
	flagZE32 = 1 << 1 // zero elimination over 32-bit words applied
	flagZE8  = 1 << 2 // zero elimination over bytes applied
)

// Encode frames data with every stage that helps. data itself is not
// modified. The result decodes back to data byte-for-byte with Decode.
func Encode(data []byte) []byte {
	var flags byte
	payload := bytes.Clone(data)

	if _, err := transform.Encode(payload); err == nil {
		flags |= flagBMP
	}
	// A rejected transform leaves the clone untouched: the input flows
	// through the remaining stages as opaque bytes.

	if out, ok := ze32Encode(payload); ok {
		payload = out
		flags |= flagZE32
	}
	if out, ok := ze8Encode(payload); ok {
		payload = out
		flags |= flagZE8
	}

	frame := make([]byte, frameHeaderSize, frameHeaderSize+len(payload))
	copy(frame, magic[:])
	frame[4] = formatVersion
	frame[5] = flags
	binary.LittleEndian.PutUint32(frame[6:], uint32(len(data)))
	return append(frame, payload...)
}

// Decode reverses Encode. The returned slice is freshly allocated.
func Decode(data []byte) ([]byte, error) {
	if len(data) < frameHeaderSize || !bytes.Equal(data[:4], magic[:]) {
		return nil, ErrCorrupt
	}
	if data[4] != formatVersion {
		return nil, ErrCorrupt
	}
	flags := data[5]
	if flags&^(flagBMP|flagZE32|flagZE8) != 0 {
		return nil, ErrCorrupt
	}
	origSize := int(binary.LittleEndian.Uint32(data[6:]))
	payload := bytes.Clone(data[frameHeaderSize:])

	var err error
	if flags&flagZE8 != 0 {
		if payload, err = ze8Decode(payload); err != nil {
			return nil, err
		}
	}
	if flags&flagZE32 != 0 {
		if payload, err = ze32Decode(payload); err != nil {
			return nil, err
		}
	}
	if len(payload) != origSize {
		return nil, ErrCorrupt
	}
	if flags&flagBMP != 0 {
		if _, err := transform.Decode(payload); err != nil {
			return nil, ErrCorrupt
		}
	}
	return payload, nil
}

// Zero-elimination stage framing, byte words:
//
//	uint32 rawSize | uint32 datasize | bitmap | compacted
//
// The stage is applied only when the framed result is strictly smaller
// than its input.
func ze8Encode(in []byte) ([]byte, bool) {
	bmLen := zeroelim.BitmapLen[uint8](len(in))
	budget := len(in) - 8 - bmLen - 1
	if budget <= 0 {
		return nil, false
	}

	out := make([]byte, 8+bmLen+budget)
	bm := out[8 : 8+bmLen]
	n, err := zeroelim.EncodeChecked(in, out[8+bmLen:], bm)
	if err != nil {
		return nil, false
	}
	binary.LittleEndian.PutUint32(out, uint32(len(in)))
	binary.LittleEndian.PutUint32(out[4:], uint32(n))
	return out[:8+bmLen+n], true
}

func ze8Decode(in []byte) ([]byte, error) {
	if len(in) < 8 {
		return nil, ErrCorrupt
	}
	rawSize := int(binary.LittleEndian.Uint32(in))
	n := int(binary.LittleEndian.Uint32(in[4:]))
	bmLen := zeroelim.BitmapLen[uint8](rawSize)
	if rawSize <= len(in) || len(in) != 8+bmLen+n {
		return nil, ErrCorrupt
	}
	bm := in[8 : 8+bmLen]
	pop := 0
	for _, b := range bm {
		pop += bits.OnesCount8(b)
	}
	if pop != n {
		return nil, ErrCorrupt
	}
	out := make([]byte, rawSize)
	zeroelim.Decode(in[8+bmLen:], bm, out)
	return out, nil
}

// Zero-elimination stage framing, 32-bit words:
//
//	uint32 rawSize | uint32 datasize | bitmap words | compacted words | tail
//
// The rawSize mod 4 trailing bytes don't form a whole word and are
// carried verbatim after the compacted words.
func ze32Encode(in []byte) ([]byte, bool) {
	words := len(in) / 4
	extra := len(in) % 4
	bmLen := zeroelim.BitmapLen[uint32](words)
	budgetWords := (len(in) - 8 - bmLen*4 - extra - 1) / 4
	if budgetWords <= 0 {
		return nil, false
	}

	inWords := make([]uint32, words)
	for i := range inWords {
		inWords[i] = binary.LittleEndian.Uint32(in[i*4:])
	}
	bm := make([]uint32, bmLen)
	dataWords := make([]uint32, budgetWords)
	n, err := zeroelim.EncodeChecked(inWords, dataWords, bm)
	if err != nil {
		return nil, false
	}

	out := make([]byte, 8+bmLen*4+n*4+extra)
	binary.LittleEndian.PutUint32(out, uint32(len(in)))
	binary.LittleEndian.PutUint32(out[4:], uint32(n))
	for i, w := range bm {
		binary.LittleEndian.PutUint32(out[8+i*4:], w)
	}
	for i, w := range dataWords[:n] {
		binary.LittleEndian.PutUint32(out[8+(bmLen+i)*4:], w)
	}
	copy(out[8+(bmLen+n)*4:], in[words*4:])
	return out, true
}

func ze32Decode(in []byte) ([]byte, error) {
	if len(in) < 8 {
		return nil, ErrCorrupt
	}
	rawSize := int(binary.LittleEndian.Uint32(in))
	n := int(binary.LittleEndian.Uint32(in[4:]))
	words := rawSize / 4
	extra := rawSize % 4
	bmLen := zeroelim.BitmapLen[uint32](words)
	if rawSize <= len(in) || len(in) != 8+bmLen*4+n*4+extra {
		return nil, ErrCorrupt
	}

	bm := make([]uint32, bmLen)
	pop := 0
	for i := range bm {
		bm[i] = binary.LittleEndian.Uint32(in[8+i*4:])
		pop += bits.OnesCount32(bm[i])
	}
	if pop != n {
		return nil, ErrCorrupt
	}
	dataWords := make([]uint32, n)
	for i := range dataWords {
		dataWords[i] = binary.LittleEndian.Uint32(in[8+(bmLen+i)*4:])
	}

	outWords := make([]uint32, words)
	zeroelim.Decode(dataWords, bm, outWords)
	out := make([]byte, rawSize)
	for i, w := range outWords {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	copy(out[words*4:], in[8+(bmLen+n)*4:])
	return out, nil
}
