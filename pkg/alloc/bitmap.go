package alloc

import (
	"encoding/binary"
	"fmt"

	. "github.com/weberc2/fsformat/pkg/types"
)

const (
	bytesPerWord = 4
	bitsPerWord  = uint64(BitsPerWord)
)

// Bitmap is a view over the image's bitmap region. Bits are addressed through
// little-endian 32-bit words; a set bit means the block is free.
type Bitmap []byte

// Len returns the number of bits the bitmap can address.
func (bm Bitmap) Len() uint64 { return uint64(len(bm)) * 8 }

// FreeAll marks every addressable bit free.
func (bm Bitmap) FreeAll() {
	for i := range bm {
		bm[i] = 0xff
	}
}

// ReserveFrom marks every bit from `start` to the end of the bitmap as used.
// Bits past the volume's capacity have no block behind them, so they must
// never read as free.
func (bm Bitmap) ReserveFrom(start uint64) {
	for i := start; i < bm.Len(); i++ {
		bm.Reserve(i)
	}
}

// ReserveBelow marks every bit in `[0, end)` as used.
func (bm Bitmap) ReserveBelow(end uint64) {
	for i := uint64(0); i < end; i++ {
		bm.Reserve(i)
	}
}

func (bm Bitmap) Reserve(value uint64) {
	word, bit := bm.locate(value)
	bm.putWord(word, bm.word(word)&^(1<<bit))
}

func (bm Bitmap) IsFree(value uint64) bool {
	word, bit := bm.locate(value)
	return bm.word(word)&(1<<bit) != 0
}

func (bm Bitmap) locate(value uint64) (uint64, uint64) {
	if value >= bm.Len() {
		panic(fmt.Sprintf(
			"bit `%d` out of range for bitmap of `%d` bits",
			value,
			bm.Len(),
		))
	}
	return value / bitsPerWord, value % bitsPerWord
}

func (bm Bitmap) word(word uint64) uint32 {
	return binary.LittleEndian.Uint32(bm[word*bytesPerWord:])
}

func (bm Bitmap) putWord(word uint64, value uint32) {
	binary.LittleEndian.PutUint32(bm[word*bytesPerWord:], value)
}
