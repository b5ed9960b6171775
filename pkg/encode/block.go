package encode

import (
	"fmt"

	. "github.com/weberc2/fsformat/pkg/types"
)

const (
	OutOfRangeErr ConstError = "indirect index out of range"
)

func EncodeBlock(b Block, p *[BlockPointerSize]byte) {
	putBlock(p[:], 0, b)
}

func DecodeBlock(p *[BlockPointerSize]byte) Block {
	return getBlock(p[:], 0)
}

// EncodeIndirect stores `target` in entry `index` of an indirect index block.
func EncodeIndirect(table *[BlockSize]byte, index Index, target Block) error {
	if index >= PointersPerBlock {
		return fmt.Errorf(
			"encoding indirect entry `%d` (target block `%d`): %w",
			index,
			target,
			OutOfRangeErr,
		)
	}
	start := Byte(index) * BlockPointerSize
	EncodeBlock(target, (*[BlockPointerSize]byte)(table[start:]))
	return nil
}

func DecodeIndirect(table *[BlockSize]byte, index Index) (Block, error) {
	if index >= PointersPerBlock {
		return BlockNil, fmt.Errorf(
			"decoding indirect entry `%d`: %w",
			index,
			OutOfRangeErr,
		)
	}
	start := Byte(index) * BlockPointerSize
	return DecodeBlock((*[BlockPointerSize]byte)(table[start:])), nil
}
