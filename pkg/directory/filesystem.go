package directory

import (
	"github.com/weberc2/fsformat/pkg/alloc"
	"github.com/weberc2/fsformat/pkg/inode/indirect"
	"github.com/weberc2/fsformat/pkg/inode/physical"
)

type FileSystem struct {
	Volume     alloc.Volume
	ReadWriter *physical.ReadWriter
}

func (fs *FileSystem) Init(volume alloc.Volume) {
	*fs = FileSystem{
		Volume: volume,
		ReadWriter: physical.NewReadWriter(
			volume,
			indirect.NewReadWriter(volume),
		),
	}
}
