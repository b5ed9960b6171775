package directory

import (
	"fmt"

	. "github.com/weberc2/fsformat/pkg/types"
)

// FileInfo is a claimed record in a directory together with the slot it
// occupies.
type FileInfo struct {
	Slot  Slot
	Inode Inode
}

// Entries returns the claimed records of `dir` in logical block and slot
// order.
func Entries(fs *FileSystem, dir *Inode) ([]FileInfo, error) {
	if dir.FileType != FileTypeDir {
		return nil, fmt.Errorf("listing `%s`: %w", dir.Name, NotADirErr)
	}

	var infos []FileInfo
	blocks := dir.Blocks()
	for inodeBlock := Block(0); inodeBlock < blocks; inodeBlock++ {
		b, err := fs.ReadWriter.ReadPhysical(dir, inodeBlock)
		if err != nil {
			return nil, fmt.Errorf("listing `%s`: %w", dir.Name, err)
		}
		for index := Index(0); index < InodesPerBlock; index++ {
			slot := Slot{Block: b, Index: index}
			var inode Inode
			if err := ReadSlot(fs, slot, &inode); err != nil {
				return nil, fmt.Errorf("listing `%s`: %w", dir.Name, err)
			}
			if inode.Name != "" {
				infos = append(infos, FileInfo{Slot: slot, Inode: inode})
			}
		}
	}
	return infos, nil
}

// Lookup finds the entry named `name` directly inside `dir`.
func Lookup(fs *FileSystem, dir *Inode, name string, info *FileInfo) error {
	infos, err := Entries(fs, dir)
	if err != nil {
		return fmt.Errorf("looking up `%s` in `%s`: %w", name, dir.Name, err)
	}
	for i := range infos {
		if infos[i].Inode.Name == name {
			*info = infos[i]
			return nil
		}
	}
	return fmt.Errorf("looking up `%s` in `%s`: %w", name, dir.Name, NotFoundErr)
}

const (
	NotFoundErr ConstError = "entry not found"
)
