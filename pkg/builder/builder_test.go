package builder

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/weberc2/fsformat/pkg/alloc"
	"github.com/weberc2/fsformat/pkg/directory"
	"github.com/weberc2/fsformat/pkg/encode"
	"github.com/weberc2/fsformat/pkg/store"
	. "github.com/weberc2/fsformat/pkg/types"
)

func TestAddPathSingleFile(t *testing.T) {
	content := pattern(5000)
	b := mustNew(t, DefaultCapacity)
	mustAdd(t, b, fstest.MapFS{"a.txt": {Data: content}}, "a.txt")

	root := b.Root()
	if root.Size != BlockSize {
		t.Fatalf("root.Size: wanted `%d`; found `%d`", BlockSize, root.Size)
	}
	if root.DirectBlocks[0] != 3 {
		t.Fatalf("root.DirectBlocks[0]: wanted `3`; found `%d`", root.DirectBlocks[0])
	}

	info := lookup(t, b, root, "a.txt")
	if info.Slot != (directory.Slot{Block: 3, Index: 0}) {
		t.Fatalf("slot: wanted `{3 0}`; found `%+v`", info.Slot)
	}
	wanted := Inode{
		Name:         "a.txt",
		Size:         5000,
		FileType:     FileTypeRegular,
		DirectBlocks: [DirectBlocksCount]Block{4, 5},
	}
	if info.Inode != wanted {
		t.Fatalf("inode: wanted `%+v`; found `%+v`", wanted, info.Inode)
	}
	if found := readContent(t, b, &info.Inode); !bytes.Equal(found, content) {
		t.Fatalf("content: mismatch")
	}

	tail := data(t, b, 5)
	if !bytes.Equal(tail[5000-BlockSize:], make([]byte, 2*BlockSize-5000)) {
		t.Fatalf("block `5`: wanted zero padding past the file's end")
	}

	path := filepath.Join(t.TempDir(), "disk.img")
	result, err := b.Finish(context.Background(), path)
	if err != nil {
		t.Fatalf("Finish(): unexpected err: %v", err)
	}
	if result.Used != 6 {
		t.Fatalf("Result.Used: wanted `6`; found `%d`", result.Used)
	}
	counts, err := json.Marshal(result.Counts)
	if err != nil {
		t.Fatalf("marshaling counts: unexpected err: %v", err)
	}
	wantedCounts := `{"Bitmap":1,"Boot":1,"Data":2,"Free":1018,"InodeTable":1,"Super":1}`
	if string(counts) != wantedCounts {
		t.Fatalf("Result.Counts: wanted `%s`; found `%s`", wantedCounts, counts)
	}

	image, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading image: unexpected err: %v", err)
	}
	if len(image) != int(DefaultCapacity)*int(BlockSize) {
		t.Fatalf(
			"image length: wanted `%d`; found `%d`",
			int(DefaultCapacity)*int(BlockSize),
			len(image),
		)
	}
	word := binary.LittleEndian.Uint32(image[2*BlockSize:])
	if word != 0xffffffc0 {
		t.Fatalf("bitmap word `0`: wanted `0xffffffc0`; found `%#x`", word)
	}

	var sb Superblock
	if err := encode.DecodeSuperblock(
		&sb,
		(*[SuperblockSize]byte)(image[BlockSize:BlockSize+SuperblockSize]),
	); err != nil {
		t.Fatalf("DecodeSuperblock(): unexpected err: %v", err)
	}
	if sb.Root != *root {
		t.Fatalf("superblock root: wanted `%+v`; found `%+v`", *root, sb.Root)
	}
}

func TestAddPathIndirectBoundary(t *testing.T) {
	for _, testCase := range []struct {
		size     Byte
		indirect bool
	}{
		{Byte(DirectBlocksCount) * BlockSize, false},
		{Byte(DirectBlocksCount)*BlockSize + 1, true},
		{MaxFileSize, true},
	} {
		t.Run(fmt.Sprint(testCase.size), func(t *testing.T) {
			content := pattern(int(testCase.size))
			b := mustNew(t, 2048)
			mustAdd(t, b, fstest.MapFS{"f": {Data: content}}, "f")

			info := lookup(t, b, b.Root(), "f")
			if found := info.Inode.IndirectBlock != BlockNil; found != testCase.indirect {
				t.Fatalf(
					"indirect block set: wanted `%t`; found `%t`",
					testCase.indirect,
					found,
				)
			}
			if testCase.indirect {
				role := b.Store().Role(info.Inode.IndirectBlock)
				if role != RoleIndirect {
					t.Fatalf(
						"Role(%d): wanted `%s`; found `%s`",
						info.Inode.IndirectBlock,
						RoleIndirect,
						role,
					)
				}
			}
			if found := readContent(t, b, &info.Inode); !bytes.Equal(found, content) {
				t.Fatalf("content: mismatch")
			}
		})
	}
}

func TestAddPathDirectoryGrows(t *testing.T) {
	fsys := fstest.MapFS{}
	for i := 0; i < 17; i++ {
		fsys[fmt.Sprintf("d/f%02d", i)] = &fstest.MapFile{Data: []byte{byte(i)}}
	}
	b := mustNew(t, DefaultCapacity)
	mustAdd(t, b, fsys, "d")

	d := lookup(t, b, b.Root(), "d")
	if d.Inode.FileType != FileTypeDir {
		t.Fatalf("d.FileType: wanted `%s`; found `%s`", FileTypeDir, d.Inode.FileType)
	}
	if d.Inode.Size != 2*BlockSize {
		t.Fatalf("d.Size: wanted `%d`; found `%d`", 2*BlockSize, d.Inode.Size)
	}

	infos, err := directory.Entries(b.FileSystem(), &d.Inode)
	if err != nil {
		t.Fatalf("Entries(): unexpected err: %v", err)
	}
	if len(infos) != 17 {
		t.Fatalf("len(Entries()): wanted `17`; found `%d`", len(infos))
	}
	for i, info := range infos {
		if wanted := fmt.Sprintf("f%02d", i); info.Inode.Name != wanted {
			t.Fatalf("entry `%d`: wanted `%s`; found `%s`", i, wanted, info.Inode.Name)
		}
		if found := readContent(t, b, &info.Inode); !bytes.Equal(found, []byte{byte(i)}) {
			t.Fatalf("entry `%s`: wanted content `%v`; found `%v`", info.Inode.Name, []byte{byte(i)}, found)
		}
	}
	if infos[16].Slot.Block == infos[15].Slot.Block {
		t.Fatalf("entry `16`: wanted a second inode table block")
	}
}

func TestAddPathNested(t *testing.T) {
	fsys := fstest.MapFS{
		"top/a.txt":       {Data: []byte("a")},
		"top/sub/b.txt":   {Data: []byte("bb")},
		"top/sub/deeper":  {Mode: fs.ModeDir},
		"top/other/c.txt": {Data: []byte("ccc")},
	}
	b := mustNew(t, DefaultCapacity)
	mustAdd(t, b, fsys, "top")

	top := lookup(t, b, b.Root(), "top")
	// the directory's record is claimed before its children are walked
	if top.Slot != (directory.Slot{Block: 3, Index: 0}) {
		t.Fatalf("top slot: wanted `{3 0}`; found `%+v`", top.Slot)
	}

	infos, err := directory.Entries(b.FileSystem(), &top.Inode)
	if err != nil {
		t.Fatalf("Entries(): unexpected err: %v", err)
	}
	var names []string
	for _, info := range infos {
		names = append(names, info.Inode.Name)
	}
	if found := strings.Join(names, ","); found != "a.txt,other,sub" {
		t.Fatalf("top entries: wanted `a.txt,other,sub`; found `%s`", found)
	}

	sub := lookup(t, b, &top.Inode, "sub")
	deeper := lookup(t, b, &sub.Inode, "deeper")
	if deeper.Inode.FileType != FileTypeDir || deeper.Inode.Size != 0 {
		t.Fatalf("deeper: wanted empty directory; found `%+v`", deeper.Inode)
	}
	bb := lookup(t, b, &sub.Inode, "b.txt")
	if found := readContent(t, b, &bb.Inode); string(found) != "bb" {
		t.Fatalf("b.txt content: wanted `bb`; found `%s`", found)
	}
	other := lookup(t, b, &top.Inode, "other")
	c := lookup(t, b, &other.Inode, "c.txt")
	if found := readContent(t, b, &c.Inode); string(found) != "ccc" {
		t.Fatalf("c.txt content: wanted `ccc`; found `%s`", found)
	}
}

func TestAddPathEmptyFile(t *testing.T) {
	b := mustNew(t, DefaultCapacity)
	next := b.Store().NextFree()
	mustAdd(t, b, fstest.MapFS{"empty": {}}, "empty")

	info := lookup(t, b, b.Root(), "empty")
	if info.Inode.Size != 0 || info.Inode.DirectBlocks[0] != BlockNil {
		t.Fatalf("empty: wanted no content blocks; found `%+v`", info.Inode)
	}
	// only the root's inode table block
	if found := b.Store().NextFree(); found != next+1 {
		t.Fatalf("NextFree(): wanted `%d`; found `%d`", next+1, found)
	}
}

func TestAddPathErrors(t *testing.T) {
	for _, testCase := range []struct {
		name     string
		capacity Block
		fsys     fstest.MapFS
		path     string
		wanted   error
	}{
		{
			name:     "name-too-long",
			capacity: DefaultCapacity,
			fsys:     fstest.MapFS{strings.Repeat("x", 128): {}},
			path:     strings.Repeat("x", 128),
			wanted:   encode.NameTooLongErr,
		},
		{
			name:     "nested-name-too-long",
			capacity: DefaultCapacity,
			fsys:     fstest.MapFS{"d/" + strings.Repeat("x", 200): {}},
			path:     "d",
			wanted:   encode.NameTooLongErr,
		},
		{
			name:     "unsupported-type",
			capacity: DefaultCapacity,
			fsys:     fstest.MapFS{"pipe": {Mode: fs.ModeNamedPipe}},
			path:     "pipe",
			wanted:   UnsupportedTypeErr,
		},
		{
			name:     "file-too-large",
			capacity: 2048,
			fsys:     fstest.MapFS{"big": {Data: make([]byte, MaxFileSize+1)}},
			path:     "big",
			wanted:   encode.FileTooLargeErr,
		},
		{
			name:     "out-of-blocks",
			capacity: 8,
			fsys:     fstest.MapFS{"f": {Data: make([]byte, 6*BlockSize)}},
			path:     "f",
			wanted:   alloc.OutOfBlocksErr,
		},
		{
			name:     "missing",
			capacity: DefaultCapacity,
			fsys:     fstest.MapFS{},
			path:     "missing",
			wanted:   fs.ErrNotExist,
		},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			b := mustNew(t, testCase.capacity)
			err := b.AddPath(context.Background(), testCase.fsys, testCase.path)
			if !errors.Is(err, testCase.wanted) {
				t.Fatalf("AddPath(): wanted `%v`; found `%v`", testCase.wanted, err)
			}
		})
	}
}

func TestNameAtLimit(t *testing.T) {
	name := strings.Repeat("x", int(MaxNameLen)-1)
	b := mustNew(t, DefaultCapacity)
	mustAdd(t, b, fstest.MapFS{name: {Data: []byte("ok")}}, name)
	lookup(t, b, b.Root(), name)
}

func TestFinishDeterministic(t *testing.T) {
	fsys := fstest.MapFS{
		"dir/z":  {Data: pattern(20000)},
		"dir/a":  {Data: []byte("a")},
		"file":   {Data: pattern(100)},
		"dir2/x": {Data: pattern(3)},
	}

	var digests []string
	var images [][]byte
	for i := 0; i < 2; i++ {
		b := mustNew(t, DefaultCapacity)
		for _, p := range []string{"dir", "file", "dir2"} {
			mustAdd(t, b, fsys, p)
		}
		path := filepath.Join(t.TempDir(), "disk.img")
		result, err := b.Finish(context.Background(), path)
		if err != nil {
			t.Fatalf("Finish(): unexpected err: %v", err)
		}
		image, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading image: unexpected err: %v", err)
		}
		digests = append(digests, result.Digest)
		images = append(images, image)
	}

	if digests[0] != digests[1] {
		t.Fatalf("digest: wanted `%s`; found `%s`", digests[0], digests[1])
	}
	if !bytes.Equal(images[0], images[1]) {
		t.Fatalf("images differ")
	}
}

func TestFinishTwice(t *testing.T) {
	b := mustNew(t, DefaultCapacity)
	dir := t.TempDir()
	if _, err := b.Finish(context.Background(), filepath.Join(dir, "a.img")); err != nil {
		t.Fatalf("Finish(): unexpected err: %v", err)
	}
	_, err := b.Finish(context.Background(), filepath.Join(dir, "b.img"))
	if !errors.Is(err, store.FinalizedErr) {
		t.Fatalf("Finish(): wanted `%v`; found `%v`", store.FinalizedErr, err)
	}
}

func mustNew(t *testing.T, capacity Block) *Builder {
	t.Helper()
	b, err := New(capacity)
	if err != nil {
		t.Fatalf("New(%d): unexpected err: %v", capacity, err)
	}
	return b
}

func mustAdd(t *testing.T, b *Builder, fsys fs.FS, p string) {
	t.Helper()
	if err := b.AddPath(context.Background(), fsys, p); err != nil {
		t.Fatalf("AddPath(`%s`): unexpected err: %v", p, err)
	}
}

func lookup(t *testing.T, b *Builder, dir *Inode, name string) directory.FileInfo {
	t.Helper()
	var info directory.FileInfo
	if err := directory.Lookup(b.FileSystem(), dir, name, &info); err != nil {
		t.Fatalf("Lookup(`%s`): unexpected err: %v", name, err)
	}
	return info
}

func data(t *testing.T, b *Builder, block Block) []byte {
	t.Helper()
	d, err := b.Store().Data(block)
	if err != nil {
		t.Fatalf("Data(%d): unexpected err: %v", block, err)
	}
	return d[:]
}

func readContent(t *testing.T, b *Builder, inode *Inode) []byte {
	t.Helper()
	var out []byte
	for inodeBlock := Block(0); inodeBlock < inode.Blocks(); inodeBlock++ {
		physical, err := b.FileSystem().ReadWriter.ReadPhysical(inode, inodeBlock)
		if err != nil {
			t.Fatalf("ReadPhysical(%d): unexpected err: %v", inodeBlock, err)
		}
		out = append(out, data(t, b, physical)...)
	}
	return out[:inode.Size]
}

func pattern(size int) []byte {
	out := make([]byte, size)
	for i := range out {
		out[i] = byte(i*7 + i/4096)
	}
	return out
}
