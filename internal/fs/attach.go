package fs

import "github.com/arenafs/arenafs/internal/domain"

// AttachData copies payload into the data block at block and links it into
// slot of the owning file inode. Every precondition is checked before any
// state changes; an oversized payload leaves the volume untouched.
//
// Re-attaching the block that is already linked at the same slot overwrites
// the payload and recomputes the size without touching the free list again.
func (fs *FileSystem) AttachData(block int32, payload []byte, owner int32, slot int) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.attach(block, payload, owner, slot)
}

// AttachString is AttachData for string payloads.
func (fs *FileSystem) AttachString(block int32, payload string, owner int32, slot int) error {
	return fs.AttachData(block, []byte(payload), owner, slot)
}

func (fs *FileSystem) attach(block int32, payload []byte, owner int32, slot int) error {
	if len(payload) > domain.BlockSize {
		return domain.ErrPayloadTooLarge
	}
	if err := fs.checkBlockIndex(block); err != nil {
		return err
	}
	if err := fs.checkIndex(owner); err != nil {
		return err
	}
	if slot < 0 || slot >= domain.DirectBlockCount {
		return domain.ErrSlotRange
	}

	node := &fs.inodes[owner]
	if !node.IsFile() {
		return domain.ErrNotFile
	}

	fresh := fs.freeList[block] == domain.FreeListFree
	if !fresh && node.DirectBlocks[slot] != block {
		return domain.ErrBlockInUse
	}

	dst := &fs.blocks[block]
	dst.Size = uint64(len(payload))
	copy(dst.Data[:], payload)

	node.DirectBlocks[slot] = block
	fs.recomputeSize(owner)

	if fresh {
		if err := fs.markUsed(block); err != nil {
			return err
		}
	}
	return nil
}

// recomputeSize sums the block sizes over the contiguous prefix of valid
// slots, stopping at the first sentinel. A valid slot after a sentinel is
// outside the model and ignored.
func (fs *FileSystem) recomputeSize(owner int32) {
	node := &fs.inodes[owner]
	var total uint64
	for _, block := range node.DirectBlocks {
		if block == domain.EmptySlot {
			break
		}
		total += fs.blocks[block].Size
	}
	node.Size = uint16(total)
}

// Append allocates a free data block, attaches payload to it and links it
// into the owner's first empty slot. It returns the chosen block index and
// slot.
func (fs *FileSystem) Append(owner int32, payload []byte) (int32, int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if len(payload) > domain.BlockSize {
		return 0, 0, domain.ErrPayloadTooLarge
	}
	if err := fs.checkIndex(owner); err != nil {
		return 0, 0, err
	}
	node := &fs.inodes[owner]
	if !node.IsFile() {
		return 0, 0, domain.ErrNotFile
	}

	slot := -1
	for i := 0; i < domain.DirectBlockCount; i++ {
		if node.DirectBlocks[i] == domain.EmptySlot {
			slot = i
			break
		}
	}
	if slot < 0 {
		return 0, 0, domain.ErrDirectoryFull
	}

	block, err := fs.allocBlock()
	if err != nil {
		return 0, 0, err
	}
	if err := fs.attach(block, payload, owner, slot); err != nil {
		return 0, 0, err
	}
	return block, slot, nil
}

// ReadFile returns the file content over the contiguous prefix of attached
// blocks.
func (fs *FileSystem) ReadFile(owner int32) ([]byte, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if err := fs.checkIndex(owner); err != nil {
		return nil, err
	}
	node := &fs.inodes[owner]
	if !node.IsFile() {
		return nil, domain.ErrNotFile
	}

	data := make([]byte, 0, node.Size)
	for _, block := range node.DirectBlocks {
		if block == domain.EmptySlot {
			break
		}
		data = append(data, fs.blocks[block].Payload()...)
	}
	return data, nil
}
