package directory

import (
	. "github.com/weberc2/fsformat/pkg/types"
)

// Slot addresses one inode record inside an inode-table block.
type Slot struct {
	Block Block
	Index Index
}

const (
	NotADirErr ConstError = "not a directory"
)
