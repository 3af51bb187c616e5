// licocheck validates BMP files against the subset of the format the
// LICO front end supports: uncompressed 24-bit BITMAPINFOHEADER images.
//
// Usage:
//
//	licocheck [-q|--quiet] <filename> [<filename> ...]
//
// Options:
//
//	-q, --quiet  Only output errors. Exit code indicates pass/fail.
//	-h, --help   Show this help message.
//
// Exit codes:
//
//	0: All files supported
//	1: One or more files unsupported
//	2: Error (file not found, etc.)
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mrjoshuak/go-lico/bmp"
)

func main() {
	quiet := false
	files := []string{}

	for i := 1; i < len(os.Args); i++ {
		arg := os.Args[i]
		switch arg {
		case "-q", "--quiet":
			quiet = true
		case "-h", "--help":
			fmt.Fprintln(os.Stderr, "Usage: licocheck [-q|--quiet] <filename> [<filename> ...]")
			return
		default:
			if strings.HasPrefix(arg, "-") {
				fmt.Fprintf(os.Stderr, "licocheck: unknown option %q\n", arg)
				os.Exit(2)
			}
			files = append(files, arg)
		}
	}

	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: licocheck [-q|--quiet] <filename> [<filename> ...]")
		os.Exit(2)
	}

	failed := false
	for _, name := range files {
		data, err := os.ReadFile(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "licocheck: %v\n", err)
			os.Exit(2)
		}

		g, err := bmp.Validate(data)
		if err != nil {
			failed = true
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			continue
		}
		if !quiet {
			fmt.Printf("%s: OK (%dx%d, stride %d, %d padding bytes per row)\n",
				name, g.Width, g.Height, g.Stride, g.Pad)
		}
	}

	if failed {
		os.Exit(1)
	}
}
