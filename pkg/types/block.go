package types

import "fmt"

// Block is the number of a block within the image. Block numbers are also
// used for logical (file-relative) block indices.
type Block uint32

// Byte is a byte count or byte offset.
type Byte int64

// Index addresses an entry within an indirect index block or a record slot
// within an inode-table block.
type Index uint32

const (
	BlockSize        Byte = 4096
	BlockPointerSize Byte = 4
	BitsPerBlock     Byte = BlockSize * 8
	BitsPerWord      Byte = 32

	// PointersPerBlock is the number of entries in an indirect index block.
	PointersPerBlock Index = Index(BlockSize / BlockPointerSize)

	BlockNil   Block = 0
	BlockBoot  Block = 0
	BlockSuper Block = 1

	// BlockBitmapStart is the first bitmap block; the bitmap region runs
	// through `BlockBitmapStart + bitmap block count`.
	BlockBitmapStart Block = 2

	DefaultCapacity Block = 1024
)

// Role tags what a block is used for. The tag is bookkeeping only; it is never
// written to the image.
type Role uint8

const (
	RoleFree Role = iota
	RoleBoot
	RoleBitmap
	RoleSuper
	RoleData
	RoleInodeTable
	RoleIndirect
)

func (role Role) String() string {
	switch role {
	case RoleFree:
		return "Free"
	case RoleBoot:
		return "Boot"
	case RoleBitmap:
		return "Bitmap"
	case RoleSuper:
		return "Super"
	case RoleData:
		return "Data"
	case RoleInodeTable:
		return "InodeTable"
	case RoleIndirect:
		return "IndirectIndex"
	default:
		panic(fmt.Sprintf("invalid block role: %d", role))
	}
}

// MarshalText lets roles key JSON objects, e.g. block counts by role.
func (role Role) MarshalText() ([]byte, error) {
	return []byte(role.String()), nil
}
