package directory

import (
	"fmt"

	"github.com/weberc2/fsformat/pkg/encode"
	. "github.com/weberc2/fsformat/pkg/types"
)

// AllocSlot returns the first unclaimed record slot in `dir`'s inode-table
// blocks. If every slot is claimed, a new inode-table block is allocated and
// linked as the next logical block of `dir`, and `dir.Size` grows by one
// block. The returned slot stays unclaimed until a named record is written to
// it.
func AllocSlot(fs *FileSystem, dir *Inode) (Slot, error) {
	if dir.FileType != FileTypeDir {
		return Slot{}, fmt.Errorf(
			"allocating slot in `%s`: %w",
			dir.Name,
			NotADirErr,
		)
	}

	blocks := dir.Blocks()
	for inodeBlock := Block(0); inodeBlock < blocks; inodeBlock++ {
		b, err := fs.ReadWriter.ReadPhysical(dir, inodeBlock)
		if err != nil {
			return Slot{}, fmt.Errorf("allocating slot in `%s`: %w", dir.Name, err)
		}
		index, found, err := firstEmpty(fs, b)
		if err != nil {
			return Slot{}, fmt.Errorf("allocating slot in `%s`: %w", dir.Name, err)
		}
		if found {
			return Slot{Block: b, Index: index}, nil
		}
	}

	b, err := fs.Volume.Alloc(RoleInodeTable)
	if err != nil {
		return Slot{}, fmt.Errorf(
			"allocating slot in `%s`: allocating inode table block: %w",
			dir.Name,
			err,
		)
	}
	if err := fs.ReadWriter.WritePhysical(dir, blocks, b); err != nil {
		return Slot{}, fmt.Errorf("allocating slot in `%s`: %w", dir.Name, err)
	}
	dir.Size += BlockSize
	return Slot{Block: b, Index: 0}, nil
}

func firstEmpty(fs *FileSystem, b Block) (Index, bool, error) {
	for index := Index(0); index < InodesPerBlock; index++ {
		record, err := slotBytes(fs, Slot{Block: b, Index: index})
		if err != nil {
			return 0, false, err
		}
		if encode.IsEmptySlot(record) {
			return index, true, nil
		}
	}
	return 0, false, nil
}

func ReadSlot(fs *FileSystem, slot Slot, inode *Inode) error {
	record, err := slotBytes(fs, slot)
	if err != nil {
		return fmt.Errorf("reading slot `%d` of block `%d`: %w", slot.Index, slot.Block, err)
	}
	if err := encode.DecodeInode(inode, record); err != nil {
		return fmt.Errorf("reading slot `%d` of block `%d`: %w", slot.Index, slot.Block, err)
	}
	return nil
}

func WriteSlot(fs *FileSystem, slot Slot, inode *Inode) error {
	record, err := slotBytes(fs, slot)
	if err != nil {
		return fmt.Errorf(
			"writing inode `%s` to slot `%d` of block `%d`: %w",
			inode.Name,
			slot.Index,
			slot.Block,
			err,
		)
	}
	if err := encode.EncodeInode(inode, record); err != nil {
		return fmt.Errorf(
			"writing inode `%s` to slot `%d` of block `%d`: %w",
			inode.Name,
			slot.Index,
			slot.Block,
			err,
		)
	}
	return nil
}

func slotBytes(fs *FileSystem, slot Slot) (*[InodeSize]byte, error) {
	if slot.Index >= InodesPerBlock {
		return nil, fmt.Errorf(
			"slot `%d` exceeds `%d` records per block: %w",
			slot.Index,
			InodesPerBlock,
			encode.OutOfRangeErr,
		)
	}
	data, err := fs.Volume.Data(slot.Block)
	if err != nil {
		return nil, err
	}
	start := Byte(slot.Index) * InodeSize
	return (*[InodeSize]byte)(data[start : start+InodeSize]), nil
}
