package fs

import (
	"errors"
	"strings"
	"sync"

	"github.com/arenafs/arenafs/internal/crypto"
	"github.com/arenafs/arenafs/internal/domain"
)

var ErrVolumeTooSmall = errors.New("volume needs at least two blocks")

// FileSystem owns the superblock, the free list, the inode arena and the
// data-block arena of a single volume. All cross-references are integer
// indices into these arenas.
type FileSystem struct {
	mu       sync.RWMutex
	path     string
	sealer   *crypto.Sealer
	sb       domain.Superblock
	freeList []uint8
	inodes   []domain.Inode
	blocks   []domain.DataBlock
	root     int32
}

// New builds an in-memory volume with numBlocks inode and data-block slots.
// Slot 0 is reserved, the root directory lives at index 1.
func New(numBlocks uint32) (*FileSystem, error) {
	if numBlocks < 2 {
		return nil, ErrVolumeTooSmall
	}

	fs := &FileSystem{
		sb: domain.Superblock{
			NumBlocks:  numBlocks,
			FreeBlocks: numBlocks,
		},
		freeList: make([]uint8, numBlocks),
		inodes:   make([]domain.Inode, numBlocks),
		blocks:   make([]domain.DataBlock, numBlocks),
		root:     domain.RootInode,
	}

	for i := range fs.freeList {
		fs.freeList[i] = domain.FreeListFree
	}
	for i := range fs.inodes {
		fs.inodes[i] = domain.Inode{
			Type:         domain.NodeFree,
			DirectBlocks: domain.EmptyDirectBlocks(),
		}
	}

	rootName, _ := domain.PadName("/")
	fs.inodes[fs.root] = domain.Inode{
		Type:         domain.NodeDirectory,
		Name:         rootName,
		DirectBlocks: domain.EmptyDirectBlocks(),
		Parent:       0,
	}

	return fs, nil
}

func (fs *FileSystem) Root() int32 {
	return fs.root
}

// Superblock returns a copy of the volume metadata.
func (fs *FileSystem) Superblock() domain.Superblock {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.sb
}

// BlockFree reports whether the data block at idx is unallocated.
func (fs *FileSystem) BlockFree(idx int32) (bool, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if err := fs.checkBlockIndex(idx); err != nil {
		return false, err
	}
	return fs.freeList[idx] == domain.FreeListFree, nil
}

func (fs *FileSystem) checkIndex(idx int32) error {
	if idx <= 0 || idx >= int32(fs.sb.NumBlocks) {
		return domain.ErrIndexRange
	}
	return nil
}

func (fs *FileSystem) checkBlockIndex(idx int32) error {
	if idx < 0 || idx >= int32(fs.sb.NumBlocks) {
		return domain.ErrIndexRange
	}
	return nil
}

// Inode returns a copy of the record at idx. Index 0 is reserved and out of
// range.
func (fs *FileSystem) Inode(idx int32) (domain.Inode, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if err := fs.checkIndex(idx); err != nil {
		return domain.Inode{}, err
	}
	return fs.inodes[idx], nil
}

// SetInode overwrites the record at idx. This is the low-level table access;
// it performs no structural validation beyond the bounds check.
func (fs *FileSystem) SetInode(idx int32, node domain.Inode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.checkIndex(idx); err != nil {
		return err
	}
	fs.inodes[idx] = node
	return nil
}

// Block returns a copy of the data block at idx.
func (fs *FileSystem) Block(idx int32) (domain.DataBlock, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if err := fs.checkBlockIndex(idx); err != nil {
		return domain.DataBlock{}, err
	}
	return fs.blocks[idx], nil
}

// AllocInode returns the lowest free inode index.
func (fs *FileSystem) AllocInode() (int32, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.allocInode()
}

func (fs *FileSystem) allocInode() (int32, error) {
	for idx := int32(1); idx < int32(fs.sb.NumBlocks); idx++ {
		if fs.inodes[idx].IsFree() {
			return idx, nil
		}
	}
	return 0, domain.ErrNoFreeInode
}

// AllocBlock returns the lowest free data-block index without marking it
// used.
func (fs *FileSystem) AllocBlock() (int32, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.allocBlock()
}

func (fs *FileSystem) allocBlock() (int32, error) {
	for idx := int32(0); idx < int32(fs.sb.NumBlocks); idx++ {
		if fs.freeList[idx] == domain.FreeListFree {
			return idx, nil
		}
	}
	return 0, domain.ErrNoFreeBlock
}

// MarkUsed flips the free-list marker for block and decrements the free
// counter.
func (fs *FileSystem) MarkUsed(block int32) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.markUsed(block)
}

func (fs *FileSystem) markUsed(block int32) error {
	if err := fs.checkBlockIndex(block); err != nil {
		return err
	}
	if fs.freeList[block] == domain.FreeListUsed {
		return domain.ErrBlockInUse
	}
	if fs.sb.FreeBlocks == 0 {
		return domain.ErrNoFreeBlock
	}

	fs.freeList[block] = domain.FreeListUsed
	fs.sb.FreeBlocks--
	return nil
}

// CreateEntry initializes the inode at idx under an existing directory
// parent. The name must already be padded to exactly NameLength bytes.
func (fs *FileSystem) CreateEntry(idx int32, t domain.NodeType, name string, parent int32) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.createEntry(idx, t, name, parent)
}

func (fs *FileSystem) createEntry(idx int32, t domain.NodeType, name string, parent int32) error {
	if err := fs.checkIndex(idx); err != nil {
		return err
	}
	if len(name) != domain.NameLength {
		return domain.ErrNameLength
	}
	if err := fs.checkIndex(parent); err != nil {
		return domain.ErrInvalidParent
	}
	if !fs.inodes[parent].IsDir() {
		return domain.ErrInvalidParent
	}

	node := domain.Inode{
		Type:         t,
		DirectBlocks: domain.EmptyDirectBlocks(),
		Parent:       parent,
	}
	copy(node.Name[:], name)
	fs.inodes[idx] = node
	return nil
}

// Insert attaches a new inode at idx under parent. parentSlot selects the
// direct block slot in the parent; a negative value picks the first empty
// one. The child record and the parent slot are written only after every
// precondition passes.
func (fs *FileSystem) Insert(idx int32, t domain.NodeType, name string, parent int32, parentSlot int) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.insert(idx, t, name, parent, parentSlot)
}

func (fs *FileSystem) insert(idx int32, t domain.NodeType, name string, parent int32, parentSlot int) error {
	if err := fs.checkIndex(idx); err != nil {
		return err
	}
	if !fs.inodes[idx].IsFree() {
		return domain.ErrInodeInUse
	}
	if len(name) != domain.NameLength {
		return domain.ErrNameLength
	}
	if err := fs.checkIndex(parent); err != nil {
		return domain.ErrInvalidParent
	}
	if !fs.inodes[parent].IsDir() {
		return domain.ErrInvalidParent
	}
	if parentSlot >= domain.DirectBlockCount {
		return domain.ErrSlotRange
	}

	if parentSlot < 0 {
		for i := 0; i < domain.DirectBlockCount; i++ {
			if fs.inodes[parent].DirectBlocks[i] == domain.EmptySlot {
				parentSlot = i
				break
			}
		}
		if parentSlot < 0 {
			return domain.ErrDirectoryFull
		}
	}

	if err := fs.createEntry(idx, t, name, parent); err != nil {
		return err
	}
	fs.inodes[parent].DirectBlocks[parentSlot] = idx
	return nil
}

// Mkdir allocates an inode and inserts a directory named name under parent.
func (fs *FileSystem) Mkdir(name string, parent int32) (int32, error) {
	return fs.insertNode(domain.NodeDirectory, name, parent)
}

// CreateFile allocates an inode and inserts an empty file named name under
// parent.
func (fs *FileSystem) CreateFile(name string, parent int32) (int32, error) {
	return fs.insertNode(domain.NodeFile, name, parent)
}

func (fs *FileSystem) insertNode(t domain.NodeType, name string, parent int32) (int32, error) {
	padded, err := domain.PadName(name)
	if err != nil {
		return 0, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	idx, err := fs.allocInode()
	if err != nil {
		return 0, err
	}
	if err := fs.insert(idx, t, string(padded[:]), parent, -1); err != nil {
		return 0, err
	}
	return idx, nil
}

// Entry is one directory listing row.
type Entry struct {
	Index int32
	Name  string
	Type  domain.NodeType
	Size  uint16
}

// List returns the children of a directory inode in slot order.
func (fs *FileSystem) List(parent int32) ([]Entry, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if err := fs.checkIndex(parent); err != nil {
		return nil, err
	}
	dir := &fs.inodes[parent]
	if !dir.IsDir() {
		return nil, domain.ErrNotDir
	}

	entries := make([]Entry, 0, domain.DirectBlockCount)
	for _, child := range dir.DirectBlocks {
		if child == domain.EmptySlot {
			continue
		}
		if fs.checkIndex(child) != nil {
			continue
		}
		node := &fs.inodes[child]
		entries = append(entries, Entry{
			Index: child,
			Name:  node.NameString(),
			Type:  node.Type,
			Size:  node.Size,
		})
	}
	return entries, nil
}

// WalkPath resolves a slash-separated path from the root and returns the
// inode index it names.
func (fs *FileSystem) WalkPath(path string) (int32, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	current := fs.root
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}

		dir := &fs.inodes[current]
		if !dir.IsDir() {
			return 0, domain.ErrNotDir
		}

		found := int32(0)
		for _, child := range dir.DirectBlocks {
			if child == domain.EmptySlot {
				continue
			}
			if fs.checkIndex(child) == nil && fs.inodes[child].NameString() == part {
				found = child
				break
			}
		}
		if found == 0 {
			return 0, domain.ErrNotFound
		}
		current = found
	}
	return current, nil
}
