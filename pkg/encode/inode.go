package encode

import (
	"bytes"
	"fmt"

	. "github.com/weberc2/fsformat/pkg/types"
)

const (
	NameTooLongErr  ConstError = "name too long"
	FileTooLargeErr ConstError = "file too large"
)

func EncodeInode(inode *Inode, b *[InodeSize]byte) error {
	if Byte(len(inode.Name)) >= MaxNameLen {
		return fmt.Errorf(
			"encoding inode `%s`: name is `%d` bytes: %w",
			inode.Name,
			len(inode.Name),
			NameTooLongErr,
		)
	}
	if inode.Size < 0 || inode.Size > MaxFileSize {
		return fmt.Errorf(
			"encoding inode `%s`: size `%d`: %w",
			inode.Name,
			inode.Size,
			FileTooLargeErr,
		)
	}
	if err := inode.FileType.Validate(); err != nil {
		return fmt.Errorf("encoding inode `%s`: %w", inode.Name, err)
	}

	// every byte is rewritten so a reused buffer never leaks stale data
	// into the name field or the padding.
	*b = [InodeSize]byte{}
	p := b[:]

	copy(p[inodeNameStart:inodeNameEnd], inode.Name)
	putU32(p, inodeSizeStart, uint32(inode.Size))
	putU32(p, inodeFileTypeStart, uint32(inode.FileType))

	for i := Byte(0); i < Byte(DirectBlocksCount); i++ {
		putBlock(p, inodeDirectBlocksStart+i*BlockPointerSize, inode.DirectBlocks[i])
	}

	putBlock(p, inodeIndirectStart, inode.IndirectBlock)
	return nil
}

// IsEmptySlot reports whether `b` holds no entry. Claimed records always have
// a non-empty name.
func IsEmptySlot(b *[InodeSize]byte) bool {
	return b[inodeNameStart] == 0
}

func DecodeInode(inode *Inode, b *[InodeSize]byte) error {
	p := b[:]

	// store this in a temporary until we've validated it; we strongly prefer
	// to avoid mutating the `inode` pointee until we're sure that no errors
	// will be returned.
	ft := FileType(getU32(p, inodeFileTypeStart))
	if err := ft.Validate(); err != nil {
		return fmt.Errorf("decoding inode: %w", err)
	}

	name := p[inodeNameStart:inodeNameEnd]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	} else {
		return fmt.Errorf("decoding inode: unterminated name: %w", NameTooLongErr)
	}

	inode.Name = string(name)
	inode.FileType = ft
	inode.Size = Byte(getU32(p, inodeSizeStart))

	for i := Byte(0); i < Byte(DirectBlocksCount); i++ {
		inode.DirectBlocks[i] = getBlock(
			p,
			inodeDirectBlocksStart+i*BlockPointerSize,
		)
	}

	inode.IndirectBlock = getBlock(p, inodeIndirectStart)
	return nil
}

const (
	inodeNameStart = 0
	inodeNameSize  = MaxNameLen
	inodeNameEnd   = inodeNameStart + inodeNameSize

	inodeSizeStart = inodeNameEnd
	inodeSizeSize  = 4
	inodeSizeEnd   = inodeSizeStart + inodeSizeSize

	inodeFileTypeStart = inodeSizeEnd
	inodeFileTypeSize  = 4
	inodeFileTypeEnd   = inodeFileTypeStart + inodeFileTypeSize

	inodeDirectBlocksStart = inodeFileTypeEnd
	inodeDirectBlocksSize  = Byte(DirectBlocksCount) * BlockPointerSize
	inodeDirectBlocksEnd   = inodeDirectBlocksStart + inodeDirectBlocksSize

	inodeIndirectStart = inodeDirectBlocksEnd
	inodeIndirectSize  = BlockPointerSize
	inodeIndirectEnd   = inodeIndirectStart + inodeIndirectSize

	inodePaddingSize = InodeSize - inodeIndirectEnd
)

// the record layout must fill exactly `InodeSize` bytes.
var _ [inodePaddingSize]byte
