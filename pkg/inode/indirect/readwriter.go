package indirect

import (
	"fmt"

	"github.com/weberc2/fsformat/pkg/encode"
	. "github.com/weberc2/fsformat/pkg/types"
)

// Blocks addresses the raw bytes of a block.
type Blocks interface {
	Data(b Block) (*[BlockSize]byte, error)
}

type ReadWriter struct {
	blocks Blocks
}

func NewReadWriter(blocks Blocks) ReadWriter {
	return ReadWriter{blocks}
}

func (rw ReadWriter) ReadIndirect(indirect Block, index Index) (Block, error) {
	table, err := rw.blocks.Data(indirect)
	if err != nil {
		return BlockNil, fmt.Errorf(
			"reading indirect block `%d` at index `%d`: %w",
			indirect,
			index,
			err,
		)
	}
	target, err := encode.DecodeIndirect(table, index)
	if err != nil {
		return BlockNil, fmt.Errorf(
			"reading indirect block `%d` at index `%d`: %w",
			indirect,
			index,
			err,
		)
	}
	return target, nil
}

func (rw ReadWriter) WriteIndirect(
	indirect Block,
	index Index,
	target Block,
) error {
	table, err := rw.blocks.Data(indirect)
	if err != nil {
		return fmt.Errorf(
			"writing target block `%d` to indirect block `%d` at index `%d`: %w",
			target,
			indirect,
			index,
			err,
		)
	}
	if err := encode.EncodeIndirect(table, index, target); err != nil {
		return fmt.Errorf(
			"writing target block `%d` to indirect block `%d` at index `%d`: %w",
			target,
			indirect,
			index,
			err,
		)
	}
	return nil
}
