// lico converts 24-bit BMP images to and from the LICO compressed
// representation: the reversible decorrelation front end followed by an
// optional general-purpose byte compressor.
//
// Usage:
//
//	lico [-z zstd|zlib|none] [-v] <input.bmp> [<output.lico>]
//	lico [-v] <input.lico> [<output.bmp>]
//
// Options:
//
//	-z CODEC      Outer byte compressor for encoding (default zstd).
//	-v, --verbose Print stage timings and sizes.
//	-h, --help    Show this help message.
//
// Exit codes:
//
//	0: Success
//	1: Processing error (unsupported or corrupt input)
//	2: Usage or I/O error
package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	lico "github.com/mrjoshuak/go-lico"
	"github.com/mrjoshuak/go-lico/compression"
	"github.com/mrjoshuak/go-lico/internal/timing"
)

// On-disk wrapper around the lico frame: magic, outer codec id, and
// the uncompressed frame size.
var fileMagic = [4]byte{'L', 'C', 'F', '1'}

const fileHeaderSize = 9

const (
	codecNone = 0
	codecZlib = 1
	codecZstd = 2
)

func usage() {
	fmt.Fprint(os.Stderr, `Usage:
  lico [-z zstd|zlib|none] [-v] <input.bmp> [<output.lico>]
  lico [-v] <input.lico> [<output.bmp>]
`)
}

func main() {
	verbose := false
	codec := byte(codecZstd)
	files := []string{}

	for i := 1; i < len(os.Args); i++ {
		arg := os.Args[i]
		switch arg {
		case "-v", "--verbose":
			verbose = true
		case "-h", "--help":
			usage()
			return
		case "-z":
			i++
			if i >= len(os.Args) {
				fmt.Fprintln(os.Stderr, "lico: -z requires an argument")
				os.Exit(2)
			}
			switch os.Args[i] {
			case "none":
				codec = codecNone
			case "zlib":
				codec = codecZlib
			case "zstd":
				codec = codecZstd
			default:
				fmt.Fprintf(os.Stderr, "lico: unknown codec %q\n", os.Args[i])
				os.Exit(2)
			}
		default:
			if strings.HasPrefix(arg, "-") {
				fmt.Fprintf(os.Stderr, "lico: unknown option %q\n", arg)
				usage()
				os.Exit(2)
			}
			files = append(files, arg)
		}
	}

	if len(files) < 1 || len(files) > 2 {
		usage()
		os.Exit(2)
	}

	input := files[0]
	data, err := os.ReadFile(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lico: %v\n", err)
		os.Exit(2)
	}

	var out []byte
	var output string
	decoding := strings.HasSuffix(strings.ToLower(input), ".lico")

	var sw timing.Stopwatch
	sw.Start()
	if decoding {
		output = strings.TrimSuffix(input, ".lico") + ".bmp"
		out, err = decodeFile(data)
	} else {
		output = input + ".lico"
		out, err = encodeFile(data, codec)
	}
	elapsed := sw.Stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "lico: %s: %v\n", input, err)
		os.Exit(1)
	}
	if len(files) == 2 {
		output = files[1]
	}
	if err := os.WriteFile(output, out, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "lico: %v\n", err)
		os.Exit(2)
	}

	if verbose {
		ratio := float64(len(data)) / float64(len(out))
		if decoding {
			ratio = float64(len(out)) / float64(len(data))
		}
		fmt.Fprintf(os.Stderr, "%s: %d -> %d bytes (ratio %.3f) in %.3fs\n",
			output, len(data), len(out), ratio, elapsed)
	}
}

func encodeFile(data []byte, codec byte) ([]byte, error) {
	frame := lico.Encode(data)

	var payload []byte
	switch codec {
	case codecNone:
		payload = frame
	case codecZlib:
		var err error
		payload, err = compression.ZlibCompress(frame)
		if err != nil {
			return nil, err
		}
	case codecZstd:
		payload = compression.ZstdCompress(frame)
	}

	out := make([]byte, fileHeaderSize, fileHeaderSize+len(payload))
	copy(out, fileMagic[:])
	out[4] = codec
	binary.LittleEndian.PutUint32(out[5:], uint32(len(frame)))
	return append(out, payload...), nil
}

func decodeFile(data []byte) ([]byte, error) {
	if len(data) < fileHeaderSize || string(data[:4]) != string(fileMagic[:]) {
		return nil, fmt.Errorf("not a lico file")
	}
	frameSize := int(binary.LittleEndian.Uint32(data[5:]))
	payload := data[fileHeaderSize:]

	var frame []byte
	var err error
	switch data[4] {
	case codecNone:
		frame = payload
	case codecZlib:
		frame, err = compression.ZlibDecompress(payload, frameSize)
	case codecZstd:
		frame, err = compression.ZstdDecompress(payload, frameSize)
	default:
		return nil, fmt.Errorf("unknown outer codec %d", data[4])
	}
	if err != nil {
		return nil, err
	}
	if len(frame) != frameSize {
		return nil, fmt.Errorf("frame size mismatch")
	}
	return lico.Decode(frame)
}
