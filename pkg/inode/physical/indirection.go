package physical

import (
	"fmt"

	. "github.com/weberc2/fsformat/pkg/types"
)

type level int

const (
	levelDirect level = iota
	levelSingly
	levelOutOfRange
)

func (level level) String() string {
	switch level {
	case levelDirect:
		return "direct"
	case levelSingly:
		return "singly indirect"
	case levelOutOfRange:
		return "out of range"
	default:
		panic(fmt.Sprintf("invalid level: %d", level))
	}
}

// indirection locates the pointer for one logical block of an inode: either a
// direct slot in the inode itself or an entry in its indirect index block.
type indirection struct {
	level level
	index Index
}

func (ind *indirection) fromInodeBlock(inodeBlock Block) error {
	switch {
	case inodeBlock <= directMax:
		*ind = indirection{level: levelDirect, index: Index(inodeBlock)}
	case inodeBlock <= singlyIndirectMax:
		*ind = indirection{
			level: levelSingly,
			index: Index(inodeBlock - DirectBlocksCount),
		}
	default:
		*ind = indirection{level: levelOutOfRange}
		return fmt.Errorf(
			"locating inode block `%d` (max `%d`): %w",
			inodeBlock,
			singlyIndirectMax,
			OutOfRangeErr,
		)
	}
	return nil
}

// direct
// | | | | | | | | | |
//
// singly
// |________________
// | | | | ... | | |
const (
	directMax           = DirectBlocksCount - 1
	singlyIndirectCount = Block(PointersPerBlock)
	singlyIndirectMax   = singlyIndirectCount + directMax
)
