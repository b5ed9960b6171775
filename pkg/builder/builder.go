package builder

import (
	"context"
	"fmt"
	"io/fs"
	"path"

	"github.com/weberc2/fsformat/pkg/directory"
	"github.com/weberc2/fsformat/pkg/encode"
	"github.com/weberc2/fsformat/pkg/logger"
	"github.com/weberc2/fsformat/pkg/math"
	"github.com/weberc2/fsformat/pkg/store"
	. "github.com/weberc2/fsformat/pkg/types"
)

const (
	UnsupportedTypeErr ConstError = "unsupported file type"
)

// Builder mirrors host trees into a single image. A Builder produces exactly
// one image; any error leaves it unusable.
type Builder struct {
	store      *store.Store
	fileSystem directory.FileSystem
}

func New(capacity Block) (*Builder, error) {
	s, err := store.New(capacity)
	if err != nil {
		return nil, fmt.Errorf("creating builder: %w", err)
	}
	b := &Builder{store: s}
	b.fileSystem.Init(s)
	return b, nil
}

func (b *Builder) Store() *store.Store { return b.store }

func (b *Builder) FileSystem() *directory.FileSystem { return &b.fileSystem }

// Root is the root directory inode. It lives in the superblock, so changes
// through this pointer are encoded when the image is serialized.
func (b *Builder) Root() *Inode { return &b.store.Superblock.Root }

// AddPath adds the file or directory `name` of `fsys` as a top-level entry of
// the image's root directory.
func (b *Builder) AddPath(ctx context.Context, fsys fs.FS, name string) error {
	if err := b.writeEntry(ctx, b.Root(), fsys, name); err != nil {
		return fmt.Errorf("adding `%s`: %w", name, err)
	}
	return nil
}

func (b *Builder) writeEntry(
	ctx context.Context,
	parent *Inode,
	fsys fs.FS,
	p string,
) error {
	info, err := fs.Stat(fsys, p)
	if err != nil {
		return fmt.Errorf("inspecting `%s`: %w", p, err)
	}

	switch mode := info.Mode(); {
	case mode.IsDir():
		return b.WriteDirectory(ctx, parent, fsys, p)
	case mode.IsRegular():
		return b.WriteFile(ctx, parent, fsys, p)
	default:
		return fmt.Errorf(
			"inspecting `%s`: mode `%s`: %w",
			p,
			mode,
			UnsupportedTypeErr,
		)
	}
}

// WriteDirectory writes the directory `p` of `fsys`, and everything below it,
// as an entry of `parent`. Entries are written in the order `fs.ReadDir`
// returns them, which is sorted by name.
func (b *Builder) WriteDirectory(
	ctx context.Context,
	parent *Inode,
	fsys fs.FS,
	p string,
) error {
	dir := Inode{Name: path.Base(p), FileType: FileTypeDir}
	slot, err := b.claim(parent, &dir)
	if err != nil {
		return fmt.Errorf("writing directory `%s`: %w", p, err)
	}

	entries, err := fs.ReadDir(fsys, p)
	if err != nil {
		return fmt.Errorf("writing directory `%s`: %w", p, err)
	}

	for _, entry := range entries {
		if name := entry.Name(); name == "." || name == ".." {
			continue
		}
		if err := b.writeEntry(
			ctx,
			&dir,
			fsys,
			path.Join(p, entry.Name()),
		); err != nil {
			return fmt.Errorf("writing directory `%s`: %w", p, err)
		}
	}

	if err := directory.WriteSlot(&b.fileSystem, slot, &dir); err != nil {
		return fmt.Errorf("writing directory `%s`: %w", p, err)
	}

	logger.Get(ctx).Debug(
		"wrote directory",
		"path", p,
		"entries", len(entries),
		"size", dir.Size,
		"slotBlock", slot.Block,
		"slotIndex", slot.Index,
	)
	return nil
}

// WriteFile writes the regular file `p` of `fsys` as an entry of `parent`.
func (b *Builder) WriteFile(
	ctx context.Context,
	parent *Inode,
	fsys fs.FS,
	p string,
) error {
	file := Inode{Name: path.Base(p), FileType: FileTypeRegular}
	if err := checkName(file.Name); err != nil {
		return fmt.Errorf("writing file `%s`: %w", p, err)
	}

	content, err := fs.ReadFile(fsys, p)
	if err != nil {
		return fmt.Errorf("writing file `%s`: %w", p, err)
	}
	if Byte(len(content)) > MaxFileSize {
		return fmt.Errorf(
			"writing file `%s`: `%d` bytes exceeds `%d`: %w",
			p,
			len(content),
			MaxFileSize,
			encode.FileTooLargeErr,
		)
	}
	file.Size = Byte(len(content))

	slot, err := directory.AllocSlot(&b.fileSystem, parent)
	if err != nil {
		return fmt.Errorf("writing file `%s`: %w", p, err)
	}

	var first Block
	for inodeBlock := Block(0); inodeBlock < file.Blocks(); inodeBlock++ {
		physical, err := b.store.Alloc(RoleData)
		if err != nil {
			return fmt.Errorf("writing file `%s`: %w", p, err)
		}
		if inodeBlock == 0 {
			first = physical
		}

		data, err := b.store.Data(physical)
		if err != nil {
			return fmt.Errorf("writing file `%s`: %w", p, err)
		}
		start := Byte(inodeBlock) * BlockSize
		copy(data[:], content[start:math.Min(start+BlockSize, file.Size)])

		if err := b.fileSystem.ReadWriter.WritePhysical(
			&file,
			inodeBlock,
			physical,
		); err != nil {
			return fmt.Errorf("writing file `%s`: %w", p, err)
		}
	}

	if err := directory.WriteSlot(&b.fileSystem, slot, &file); err != nil {
		return fmt.Errorf("writing file `%s`: %w", p, err)
	}

	logger.Get(ctx).Debug(
		"wrote file",
		"path", p,
		"size", file.Size,
		"blocks", file.Blocks(),
		"firstBlock", first,
		"indirectBlock", file.IndirectBlock,
	)
	return nil
}

// claim allocates a slot in `parent` and writes `inode` to it straight away,
// so entries written while `inode`'s children are walked can't take the same
// slot.
func (b *Builder) claim(parent *Inode, inode *Inode) (directory.Slot, error) {
	if err := checkName(inode.Name); err != nil {
		return directory.Slot{}, err
	}
	slot, err := directory.AllocSlot(&b.fileSystem, parent)
	if err != nil {
		return directory.Slot{}, err
	}
	if err := directory.WriteSlot(&b.fileSystem, slot, inode); err != nil {
		return directory.Slot{}, err
	}
	return slot, nil
}

func checkName(name string) error {
	if Byte(len(name)) >= MaxNameLen {
		return fmt.Errorf(
			"name `%s` is `%d` bytes (max `%d`): %w",
			name,
			len(name),
			MaxNameLen-1,
			encode.NameTooLongErr,
		)
	}
	return nil
}
