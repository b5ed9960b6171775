package encode

import (
	"fmt"

	. "github.com/weberc2/fsformat/pkg/types"
)

type ErrBadMagic struct {
	Found uint32
}

func (err ErrBadMagic) Error() string {
	return fmt.Sprintf(
		"bad magic: wanted `%#08x`; found `%#08x`",
		SuperblockMagic,
		err.Found,
	)
}

func EncodeSuperblock(sb *Superblock, b *[SuperblockSize]byte) error {
	p := b[:]
	putU32(p, superblockMagicStart, sb.Magic)
	putBlock(p, superblockBlockCountStart, sb.BlockCount)
	if err := EncodeInode(
		&sb.Root,
		(*[InodeSize]byte)(p[superblockRootStart:superblockRootEnd]),
	); err != nil {
		return fmt.Errorf("encoding superblock: root inode: %w", err)
	}
	return nil
}

func DecodeSuperblock(sb *Superblock, b *[SuperblockSize]byte) error {
	p := b[:]
	magic := getU32(p, superblockMagicStart)
	if magic != SuperblockMagic {
		return fmt.Errorf("decoding superblock: %w", ErrBadMagic{magic})
	}

	var root Inode
	if err := DecodeInode(
		&root,
		(*[InodeSize]byte)(p[superblockRootStart:superblockRootEnd]),
	); err != nil {
		return fmt.Errorf("decoding superblock: root inode: %w", err)
	}

	sb.Magic = magic
	sb.BlockCount = getBlock(p, superblockBlockCountStart)
	sb.Root = root
	return nil
}

const (
	superblockMagicStart = 0
	superblockMagicSize  = 4
	superblockMagicEnd   = superblockMagicStart + superblockMagicSize

	superblockBlockCountStart = superblockMagicEnd
	superblockBlockCountSize  = BlockPointerSize
	superblockBlockCountEnd   = superblockBlockCountStart + superblockBlockCountSize

	superblockRootStart = superblockBlockCountEnd
	superblockRootSize  = InodeSize
	superblockRootEnd   = superblockRootStart + superblockRootSize
)
