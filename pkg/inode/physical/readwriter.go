package physical

import (
	"fmt"

	"github.com/weberc2/fsformat/pkg/alloc"
	"github.com/weberc2/fsformat/pkg/inode/indirect"
	. "github.com/weberc2/fsformat/pkg/types"
)

const (
	OutOfRangeErr ConstError = "block out of range"
)

// ReadWriter maps an inode's logical blocks onto physical blocks. Directories
// and regular files go through the same mapping.
type ReadWriter struct {
	allocator          alloc.Allocator
	indirectReadWriter indirect.ReadWriter
}

func NewReadWriter(
	allocator alloc.Allocator,
	indirectReadWriter indirect.ReadWriter,
) *ReadWriter {
	return &ReadWriter{
		allocator:          allocator,
		indirectReadWriter: indirectReadWriter,
	}
}

// WritePhysical records `physicalBlock` as logical block `inodeBlock` of
// `inode`, allocating the inode's indirect index block the first time a
// logical block past the direct slots is written. `inode` is only modified if
// no error is returned.
func (rw *ReadWriter) WritePhysical(
	inode *Inode,
	inodeBlock Block,
	physicalBlock Block,
) error {
	if err := rw.writePhysicalHelper(
		inode,
		inodeBlock,
		physicalBlock,
	); err != nil {
		return fmt.Errorf(
			"writing physical block `%d` for inode `%s` block `%d`: %w",
			physicalBlock,
			inode.Name,
			inodeBlock,
			err,
		)
	}
	return nil
}

func (rw *ReadWriter) writePhysicalHelper(
	inode *Inode,
	inodeBlock Block,
	physicalBlock Block,
) error {
	var ind indirection
	if err := ind.fromInodeBlock(inodeBlock); err != nil {
		return err
	}

	clone := *inode
	switch ind.level {
	case levelDirect:
		clone.DirectBlocks[ind.index] = physicalBlock
	case levelSingly:
		if err := rw.singlyIndirect(&clone, ind.index, physicalBlock); err != nil {
			return err
		}
	}

	*inode = clone
	return nil
}

func (rw *ReadWriter) singlyIndirect(
	inode *Inode,
	singlyIndirectIndex Index,
	physicalBlock Block,
) error {
	if inode.IndirectBlock == BlockNil {
		b, err := rw.allocator.Alloc(RoleIndirect)
		if err != nil {
			return fmt.Errorf(
				"writing block `%d` to singly indirect index `%d`: "+
					"allocating singly indirect block: %w",
				physicalBlock,
				singlyIndirectIndex,
				err,
			)
		}
		inode.IndirectBlock = b
	}

	if err := rw.indirectReadWriter.WriteIndirect(
		inode.IndirectBlock,
		singlyIndirectIndex,
		physicalBlock,
	); err != nil {
		return fmt.Errorf(
			"writing block `%d` to singly indirect index `%d`: %w",
			physicalBlock,
			singlyIndirectIndex,
			err,
		)
	}
	return nil
}

// ReadPhysical returns the physical block backing logical block `inodeBlock`
// of `inode`, or `BlockNil` if none was written.
func (rw *ReadWriter) ReadPhysical(inode *Inode, inodeBlock Block) (Block, error) {
	var ind indirection
	if err := ind.fromInodeBlock(inodeBlock); err != nil {
		return BlockNil, fmt.Errorf(
			"reading physical block for inode `%s`, block `%d`: %w",
			inode.Name,
			inodeBlock,
			err,
		)
	}

	if ind.level == levelDirect {
		return inode.DirectBlocks[ind.index], nil
	}

	if inode.IndirectBlock == BlockNil {
		return BlockNil, nil
	}

	block, err := rw.indirectReadWriter.ReadIndirect(inode.IndirectBlock, ind.index)
	if err != nil {
		return BlockNil, fmt.Errorf(
			"reading physical block for inode `%s`, block `%d`: "+
				"reading block `%d`, index `%d`: %w",
			inode.Name,
			inodeBlock,
			inode.IndirectBlock,
			ind.index,
			err,
		)
	}
	return block, nil
}
