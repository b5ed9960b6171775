package alloc

import . "github.com/weberc2/fsformat/pkg/types"

// Allocator hands out block numbers in strictly increasing order and tags
// each block with the role it was allocated for.
type Allocator interface {
	Alloc(role Role) (Block, error)
}

// Volume is an Allocator whose blocks can also be addressed for reading and
// writing.
type Volume interface {
	Allocator
	Data(b Block) (*[BlockSize]byte, error)
}

const (
	OutOfBlocksErr ConstError = "out of free blocks"
)
