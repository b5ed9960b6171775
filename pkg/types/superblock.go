package types

const (
	SuperblockMagic uint32 = 0x68286097

	// SuperblockSize is the encoded size of the superblock. The rest of block
	// 1 stays zeroed.
	SuperblockSize Byte = 4 + 4 + InodeSize
)

type Superblock struct {
	Magic      uint32
	BlockCount Block
	Root       Inode
}

func NewSuperblock(blockCount Block) Superblock {
	return Superblock{
		Magic:      SuperblockMagic,
		BlockCount: blockCount,
		Root:       Inode{Name: RootName, FileType: FileTypeDir},
	}
}
