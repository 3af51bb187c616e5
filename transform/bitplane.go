package transform

import (
	"encoding/binary"

	"github.com/mrjoshuak/go-lico/internal/parallel"
)

// The bit-plane stage treats every 8 consecutive bytes as an 8x8 bit
// matrix packed into one 64-bit word and transposes it with three
// rounds of masked XOR swaps, so that output byte k holds bit k of all
// eight input bytes. Deltas produced by the pixel stage are small, so
// the high bit planes come out as long runs of zeros.
const groupBytes = 8

// deltaMasks holds one mask per delta-swap round. Round j swaps bit
// pairs at distance (groupBytes-1)<<j; the mask selects matrix cells
// whose row index has bit j clear and whose column index has bit j set.
// For an 8x8 matrix this yields the classic constants 0x00AA00AA00AA00AA,
// 0x0000CCCC0000CCCC and 0x00000000F0F0F0F0.
var deltaMasks = makeDeltaMasks()

func makeDeltaMasks() (masks [3]uint64) {
	for j := range masks {
		var m uint64
		for r := 0; r < groupBytes; r++ {
			if r>>j&1 != 0 {
				continue
			}
			for c := 0; c < groupBytes; c++ {
				if c>>j&1 == 0 {
					continue
				}
				m |= 1 << (r*groupBytes + c)
			}
		}
		masks[j] = m
	}
	return masks
}

// transposeGroup transposes the 8x8 bit matrix packed in x. The
// transpose is an involution: applying it twice restores x.
func transposeGroup(x uint64) uint64 {
	for j, m := range deltaMasks {
		shift := (groupBytes - 1) << j
		t := (x ^ (x >> shift)) & m
		x ^= t ^ (t << shift)
	}
	return x
}

// transposeScatter transposes every full 8-byte group of src and
// scatters the result plane-major into dst: byte i of group g lands at
// dst[g + i*groups], so each bit plane forms one contiguous run. The
// trailing len(src) mod 8 bytes are too short to form a group and are
// copied verbatim. dst must have at least len(src) bytes.
//
// Groups are independent and write disjoint positions, so the group
// loop runs fully parallel.
func transposeScatter(src, dst []byte) {
	esize := len(src) &^ (groupBytes - 1)
	groups := esize / groupBytes
	parallel.For(groups, func(g int) {
		x := transposeGroup(binary.LittleEndian.Uint64(src[g*groupBytes:]))
		for i := 0; i < groupBytes; i++ {
			dst[g+i*groups] = byte(x >> (8 * i))
		}
	})
	copy(dst[esize:len(src)], src[esize:])
}

// gatherTranspose inverts transposeScatter: it gathers each group's
// bytes from their plane-major positions in src, transposes the group
// back, and writes it byte-major into dst. len(dst) determines the
// stream length; src must have at least that many bytes.
func gatherTranspose(src, dst []byte) {
	esize := len(dst) &^ (groupBytes - 1)
	groups := esize / groupBytes
	parallel.For(groups, func(g int) {
		var x uint64
		for i := 0; i < groupBytes; i++ {
			x |= uint64(src[g+i*groups]) << (8 * i)
		}
		binary.LittleEndian.PutUint64(dst[g*groupBytes:], transposeGroup(x))
	})
	copy(dst[esize:], src[esize:len(dst)])
}
