package fs

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenafs/arenafs/internal/domain"
)

func newFileVolume(t *testing.T) (*FileSystem, int32) {
	t.Helper()
	vol, err := New(16)
	require.NoError(t, err)
	file, err := vol.CreateFile("file1", vol.Root())
	require.NoError(t, err)
	return vol, file
}

func TestAttachString(t *testing.T) {
	vol, file := newFileVolume(t)
	freeBefore := vol.Superblock().FreeBlocks

	require.NoError(t, vol.AttachString(5, "hello", file, 0))

	blk, err := vol.Block(5)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), blk.Size)
	assert.Equal(t, []byte("hello"), blk.Payload())

	node, err := vol.Inode(file)
	require.NoError(t, err)
	assert.Equal(t, int32(5), node.DirectBlocks[0])
	assert.Equal(t, uint16(5), node.Size)

	assert.Equal(t, freeBefore-1, vol.Superblock().FreeBlocks)
	free, err := vol.BlockFree(5)
	require.NoError(t, err)
	assert.False(t, free)
}

func TestAttachSizeIsPrefixSum(t *testing.T) {
	vol, file := newFileVolume(t)

	require.NoError(t, vol.AttachString(3, "hello", file, 0))
	require.NoError(t, vol.AttachString(4, "world!", file, 1))

	node, err := vol.Inode(file)
	require.NoError(t, err)
	assert.Equal(t, uint16(11), node.Size)

	// a slot after the sentinel does not count; the prefix stops at slot 2
	require.NoError(t, vol.AttachString(6, "ignored", file, 3))
	node, err = vol.Inode(file)
	require.NoError(t, err)
	assert.Equal(t, domain.EmptySlot, node.DirectBlocks[2])
	assert.Equal(t, uint16(11), node.Size)
}

func TestAttachOversizedPayloadLeavesStateUntouched(t *testing.T) {
	vol, file := newFileVolume(t)
	require.NoError(t, vol.AttachString(5, "hello", file, 0))

	sbBefore := vol.Superblock()
	nodeBefore, err := vol.Inode(file)
	require.NoError(t, err)
	blkBefore, err := vol.Block(6)
	require.NoError(t, err)

	err = vol.AttachData(6, make([]byte, 2000), file, 1)
	assert.ErrorIs(t, err, domain.ErrPayloadTooLarge)

	assert.Equal(t, sbBefore, vol.Superblock())
	nodeAfter, err := vol.Inode(file)
	require.NoError(t, err)
	assert.Equal(t, nodeBefore, nodeAfter)
	blkAfter, err := vol.Block(6)
	require.NoError(t, err)
	assert.Equal(t, blkBefore, blkAfter)
	free, err := vol.BlockFree(6)
	require.NoError(t, err)
	assert.True(t, free)
}

func TestAttachMaxPayload(t *testing.T) {
	vol, file := newFileVolume(t)

	payload := bytes.Repeat([]byte{0xAB}, domain.BlockSize)
	require.NoError(t, vol.AttachData(2, payload, file, 0))

	node, err := vol.Inode(file)
	require.NoError(t, err)
	assert.Equal(t, uint16(domain.BlockSize), node.Size)
}

func TestAttachOverwriteSameSlot(t *testing.T) {
	vol, file := newFileVolume(t)

	require.NoError(t, vol.AttachString(5, "hello", file, 0))
	freeAfterFirst := vol.Superblock().FreeBlocks

	require.NoError(t, vol.AttachString(5, "longer payload", file, 0))

	blk, err := vol.Block(5)
	require.NoError(t, err)
	assert.Equal(t, []byte("longer payload"), blk.Payload())

	node, err := vol.Inode(file)
	require.NoError(t, err)
	assert.Equal(t, uint16(14), node.Size)

	// overwrite must not decrement the free counter again
	assert.Equal(t, freeAfterFirst, vol.Superblock().FreeBlocks)
}

func TestAttachUsedBlockElsewhere(t *testing.T) {
	vol, file := newFileVolume(t)
	other, err := vol.CreateFile("file2", vol.Root())
	require.NoError(t, err)

	require.NoError(t, vol.AttachString(5, "hello", file, 0))

	err = vol.AttachString(5, "steal", other, 0)
	assert.ErrorIs(t, err, domain.ErrBlockInUse)
}

func TestAttachValidation(t *testing.T) {
	vol, file := newFileVolume(t)

	err := vol.AttachString(20, "x", file, 0)
	assert.ErrorIs(t, err, domain.ErrIndexRange)

	err = vol.AttachString(5, "x", 0, 0)
	assert.ErrorIs(t, err, domain.ErrIndexRange)

	err = vol.AttachString(5, "x", file, domain.DirectBlockCount)
	assert.ErrorIs(t, err, domain.ErrSlotRange)

	err = vol.AttachString(5, "x", vol.Root(), 0)
	assert.ErrorIs(t, err, domain.ErrNotFile)
}

func TestAppend(t *testing.T) {
	vol, file := newFileVolume(t)

	block, slot, err := vol.Append(file, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, int32(0), block)
	assert.Equal(t, 0, slot)

	block, slot, err = vol.Append(file, []byte(" world"))
	require.NoError(t, err)
	assert.Equal(t, int32(1), block)
	assert.Equal(t, 1, slot)

	node, err := vol.Inode(file)
	require.NoError(t, err)
	assert.Equal(t, uint16(11), node.Size)
}

func TestAppendSlotExhaustion(t *testing.T) {
	vol, err := New(32)
	require.NoError(t, err)
	file, err := vol.CreateFile("big", vol.Root())
	require.NoError(t, err)

	for i := 0; i < domain.DirectBlockCount; i++ {
		_, _, err := vol.Append(file, []byte("x"))
		require.NoError(t, err)
	}
	_, _, err = vol.Append(file, []byte("x"))
	assert.ErrorIs(t, err, domain.ErrDirectoryFull)
}

func TestReadFile(t *testing.T) {
	vol, file := newFileVolume(t)

	_, _, err := vol.Append(file, []byte("hello "))
	require.NoError(t, err)
	_, _, err = vol.Append(file, []byte("world"))
	require.NoError(t, err)

	data, err := vol.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), data)

	_, err = vol.ReadFile(vol.Root())
	assert.ErrorIs(t, err, domain.ErrNotFile)
}
