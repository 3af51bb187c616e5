package compression

import (
	"errors"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ErrZstdCorrupted is returned when zstd data cannot be decompressed.
var ErrZstdCorrupted = errors.New("compression: corrupted zstd data")

// A single encoder/decoder pair is shared by all callers; EncodeAll and
// DecodeAll are safe for concurrent use.
var (
	zstdEncOnce sync.Once
	zstdEnc     *zstd.Encoder
	zstdDecOnce sync.Once
	zstdDec     *zstd.Decoder
)

func zstdEncoder() *zstd.Encoder {
	zstdEncOnce.Do(func() {
		enc, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		)
		if err != nil {
			panic("compression: zstd encoder init: " + err.Error())
		}
		zstdEnc = enc
	})
	return zstdEnc
}

func zstdDecoder() *zstd.Decoder {
	zstdDecOnce.Do(func() {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			panic("compression: zstd decoder init: " + err.Error())
		}
		zstdDec = dec
	})
	return zstdDec
}

// ZstdCompress compresses src with zstd.
func ZstdCompress(src []byte) []byte {
	if len(src) == 0 {
		return nil
	}
	return zstdEncoder().EncodeAll(src, nil)
}

// ZstdDecompress decompresses zstd data. The expectedSize parameter is
// the known decompressed size, used to validate the result.
func ZstdDecompress(src []byte, expectedSize int) ([]byte, error) {
	if len(src) == 0 {
		if expectedSize != 0 {
			return nil, ErrZstdCorrupted
		}
		return nil, nil
	}
	dst, err := zstdDecoder().DecodeAll(src, make([]byte, 0, expectedSize))
	if err != nil {
		return nil, ErrZstdCorrupted
	}
	if len(dst) != expectedSize {
		return nil, ErrZstdCorrupted
	}
	return dst, nil
}
