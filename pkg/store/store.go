package store

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"

	"github.com/weberc2/fsformat/pkg/alloc"
	"github.com/weberc2/fsformat/pkg/encode"
	"github.com/weberc2/fsformat/pkg/math"
	. "github.com/weberc2/fsformat/pkg/types"
)

const (
	OutOfRangeErr      ConstError = "block out of range"
	FinalizedErr       ConstError = "bitmap already finalized"
	InvalidCapacityErr ConstError = "invalid capacity"
	InvalidRoleErr     ConstError = "invalid role for allocation"
)

// ImageMode is the mode of serialized images regardless of the umask; the
// temporary file they are staged in is created `0600`.
const ImageMode os.FileMode = 0o644

// MaxCapacity bounds the image, which is held in memory while it is built
// (1 GiB).
const MaxCapacity Block = 1 << 18

var _ alloc.Volume = (*Store)(nil)

// Store owns every block of an image under construction. Blocks are handed out
// by a cursor that only moves forward; nothing is ever freed.
type Store struct {
	Superblock Superblock

	data         []byte
	roles        []Role
	capacity     Block
	bitmapBlocks Block
	nextFree     Block
	finalized    bool
}

// BitmapBlocks returns how many bitmap blocks an image of `capacity` blocks
// needs.
func BitmapBlocks(capacity Block) Block {
	return Block(math.DivRoundUp(Byte(capacity), BitsPerBlock))
}

func New(capacity Block) (*Store, error) {
	if capacity > MaxCapacity {
		return nil, fmt.Errorf(
			"creating store with `%d` blocks: exceeds maximum of `%d`: %w",
			capacity,
			MaxCapacity,
			InvalidCapacityErr,
		)
	}

	bitmapBlocks := BitmapBlocks(capacity)
	firstFree := BlockBitmapStart + bitmapBlocks
	if capacity < firstFree {
		return nil, fmt.Errorf(
			"creating store with `%d` blocks: need at least `%d` blocks "+
				"for the boot block, superblock and bitmap: %w",
			capacity,
			firstFree,
			InvalidCapacityErr,
		)
	}

	s := &Store{
		Superblock:   NewSuperblock(capacity),
		data:         make([]byte, Byte(capacity)*BlockSize),
		roles:        make([]Role, capacity),
		capacity:     capacity,
		bitmapBlocks: bitmapBlocks,
		nextFree:     firstFree,
	}

	s.roles[BlockBoot] = RoleBoot
	s.roles[BlockSuper] = RoleSuper
	for b := BlockBitmapStart; b < firstFree; b++ {
		s.roles[b] = RoleBitmap
	}

	bitmap := s.Bitmap()
	bitmap.FreeAll()
	bitmap.ReserveFrom(uint64(capacity))
	return s, nil
}

func (s *Store) Capacity() Block { return s.capacity }

func (s *Store) BitmapBlocks() Block { return s.bitmapBlocks }

// FirstFree is the first block available to content, i.e. the value of the
// allocation cursor before anything was allocated.
func (s *Store) FirstFree() Block { return BlockBitmapStart + s.bitmapBlocks }

func (s *Store) NextFree() Block { return s.nextFree }

func (s *Store) Finalized() bool { return s.finalized }

func (s *Store) Alloc(role Role) (Block, error) {
	if role != RoleData && role != RoleInodeTable && role != RoleIndirect {
		return BlockNil, fmt.Errorf(
			"allocating `%s` block: %w",
			role,
			InvalidRoleErr,
		)
	}
	if s.finalized {
		return BlockNil, fmt.Errorf("allocating `%s` block: %w", role, FinalizedErr)
	}
	if s.nextFree >= s.capacity {
		return BlockNil, fmt.Errorf(
			"allocating `%s` block: all `%d` blocks in use: %w",
			role,
			s.capacity,
			alloc.OutOfBlocksErr,
		)
	}

	b := s.nextFree
	s.roles[b] = role
	s.nextFree++
	return b, nil
}

func (s *Store) Data(b Block) (*[BlockSize]byte, error) {
	if b >= s.capacity {
		return nil, fmt.Errorf(
			"addressing block `%d` of `%d`: %w",
			b,
			s.capacity,
			OutOfRangeErr,
		)
	}
	start := Byte(b) * BlockSize
	return (*[BlockSize]byte)(s.data[start : start+BlockSize]), nil
}

func (s *Store) Role(b Block) Role {
	if b >= s.capacity {
		return RoleFree
	}
	return s.roles[b]
}

// Counts tallies blocks by role.
func (s *Store) Counts() map[Role]Block {
	counts := map[Role]Block{}
	for _, role := range s.roles {
		counts[role]++
	}
	return counts
}

// Bitmap returns a view over the bitmap region; writes through it modify the
// image.
func (s *Store) Bitmap() alloc.Bitmap {
	start := Byte(BlockBitmapStart) * BlockSize
	end := start + Byte(s.bitmapBlocks)*BlockSize
	return alloc.Bitmap(s.data[start:end])
}

// FinalizeBitmap marks every allocated block as used. No blocks can be
// allocated afterwards.
func (s *Store) FinalizeBitmap() {
	s.Bitmap().ReserveBelow(uint64(s.nextFree))
	s.finalized = true
}

// WriteTo encodes the superblock into block 1 and writes every block, in
// order, to `w`.
func (s *Store) WriteTo(w io.Writer) (int64, error) {
	super, err := s.Data(BlockSuper)
	if err != nil {
		return 0, fmt.Errorf("writing image: %w", err)
	}
	if err := encode.EncodeSuperblock(
		&s.Superblock,
		(*[SuperblockSize]byte)(super[:SuperblockSize]),
	); err != nil {
		return 0, fmt.Errorf("writing image: %w", err)
	}

	var written int64
	for b := Block(0); b < s.capacity; b++ {
		data, err := s.Data(b)
		if err != nil {
			return written, fmt.Errorf("writing image: %w", err)
		}
		n, err := w.Write(data[:])
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("writing image: block `%d`: %w", b, err)
		}
	}
	return written, nil
}

// Serialize writes the image to `path` with mode `ImageMode`. The image is
// staged in a temporary file next to `path` and renamed into place, so `path`
// never holds a partial image.
func (s *Store) Serialize(path string) (err error) {
	tmp, err := os.CreateTemp(
		filepath.Dir(path),
		"."+filepath.Base(path)+".*.tmp",
	)
	if err != nil {
		return fmt.Errorf(
			"serializing image to `%s`: creating temporary file: %w",
			path,
			err,
		)
	}

	closed := false
	defer func() {
		if err != nil {
			if !closed {
				_ = tmp.Close()
			}
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := s.WriteTo(tmp); err != nil {
		return fmt.Errorf("serializing image to `%s`: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("serializing image to `%s`: syncing: %w", path, err)
	}
	closed = true
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("serializing image to `%s`: closing: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), ImageMode); err != nil {
		return fmt.Errorf(
			"serializing image to `%s`: setting permissions: %w",
			path,
			err,
		)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("serializing image to `%s`: renaming: %w", path, err)
	}
	return nil
}

// Digest returns the hex-encoded BLAKE2b-256 sum of the serialized image.
func (s *Store) Digest() (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("digesting image: %w", err)
	}
	if _, err := s.WriteTo(h); err != nil {
		return "", fmt.Errorf("digesting image: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
