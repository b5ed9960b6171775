package types

import (
	"fmt"
)

const (
	DirectBlocksCount Block = 10
	InodeSize         Byte  = 256

	// MaxNameLen includes the NUL terminator, so names are at most
	// `MaxNameLen-1` bytes.
	MaxNameLen Byte = 128

	InodesPerBlock Index = Index(BlockSize / InodeSize)

	// MaxFileBlocks is the number of logical blocks addressable through the
	// direct slots plus one indirect index block.
	MaxFileBlocks Block = DirectBlocksCount + Block(PointersPerBlock)
	MaxFileSize   Byte  = Byte(MaxFileBlocks) * BlockSize

	RootName = "/"
)

type Inode struct {
	Name          string
	Size          Byte
	FileType      FileType
	DirectBlocks  [DirectBlocksCount]Block
	IndirectBlock Block
}

// Blocks returns the number of content blocks the inode's size spans.
func (inode *Inode) Blocks() Block {
	return Block((inode.Size + BlockSize - 1) / BlockSize)
}

type FileType uint32

const (
	FileTypeRegular FileType = 0
	FileTypeDir     FileType = 1
)

func (ft FileType) String() string {
	switch ft {
	case FileTypeRegular:
		return "Regular"
	case FileTypeDir:
		return "Dir"
	default:
		panic(fmt.Sprintf("invalid file type: `%d`", ft))
	}
}

func (ft FileType) MarshalText() ([]byte, error) {
	return []byte(ft.String()), nil
}

func (ft FileType) Validate() error {
	if ft > FileTypeDir {
		return fmt.Errorf(
			"validating file type `%d`: %w",
			ft,
			InvalidFileTypeErr,
		)
	}
	return nil
}

const (
	InvalidFileTypeErr ConstError = "invalid file type"
)
