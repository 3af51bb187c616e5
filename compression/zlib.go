// Package compression wraps the downstream general-purpose byte
// compressors that consume the front end's output. The transform
// stages only reshape bytes; these wrappers provide the entropy-coding
// stage the reshaping is designed to feed.
package compression

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
)

// ErrZlibCorrupted is returned when zlib data cannot be decompressed.
var ErrZlibCorrupted = errors.New("compression: corrupted zlib data")

// CompressionLevel represents a zlib compression level, -2 to 9:
//   - -2: Huffman-only compression (klauspost extension)
//   - -1: Default compression (level 6)
//   - 0: No compression (store)
//   - 1: Best speed
//   - 9: Best compression
type CompressionLevel int

const (
	CompressionLevelHuffmanOnly CompressionLevel = -2
	CompressionLevelDefault     CompressionLevel = -1
	CompressionLevelNone        CompressionLevel = 0
	CompressionLevelBestSpeed   CompressionLevel = 1
	CompressionLevelBestSize    CompressionLevel = 9
)

// Pool for zlib writers to reduce allocations.
// Each pooled item contains both the writer and its destination buffer.
type zlibWriterPoolItem struct {
	writer *zlib.Writer
	buf    *bytes.Buffer
}

var zlibWriterPool = sync.Pool{
	New: func() any {
		buf := new(bytes.Buffer)
		w, _ := zlib.NewWriterLevel(buf, zlib.DefaultCompression)
		return &zlibWriterPoolItem{writer: w, buf: buf}
	},
}

// ZlibCompress compresses src with zlib at the default level.
func ZlibCompress(src []byte) ([]byte, error) {
	return ZlibCompressLevel(src, CompressionLevelDefault)
}

// ZlibCompressLevel compresses src with zlib at the given level.
func ZlibCompressLevel(src []byte, level CompressionLevel) ([]byte, error) {
	if len(src) == 0 {
		return nil, nil
	}

	// Use pool for default level (most common case)
	if level == CompressionLevelDefault {
		item := zlibWriterPool.Get().(*zlibWriterPoolItem)
		item.buf.Reset()
		item.writer.Reset(item.buf)

		if _, err := item.writer.Write(src); err != nil {
			item.writer.Close()
			zlibWriterPool.Put(item)
			return nil, err
		}
		if err := item.writer.Close(); err != nil {
			zlibWriterPool.Put(item)
			return nil, err
		}

		result := make([]byte, item.buf.Len())
		copy(result, item.buf.Bytes())
		zlibWriterPool.Put(item)
		return result, nil
	}

	buf := new(bytes.Buffer)
	w, err := zlib.NewWriterLevel(buf, int(level))
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(src); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ZlibDecompress decompresses zlib data. The expectedSize parameter is
// the known decompressed size, used to allocate the output exactly and
// to validate the result.
func ZlibDecompress(src []byte, expectedSize int) ([]byte, error) {
	if len(src) == 0 {
		if expectedSize != 0 {
			return nil, ErrZlibCorrupted
		}
		return nil, nil
	}

	r, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, ErrZlibCorrupted
	}
	defer r.Close()

	dst := make([]byte, expectedSize)
	if _, err := io.ReadFull(r, dst); err != nil {
		return nil, ErrZlibCorrupted
	}
	// Any trailing data means the size claim was wrong.
	var extra [1]byte
	if n, _ := r.Read(extra[:]); n != 0 {
		return nil, ErrZlibCorrupted
	}
	return dst, nil
}
