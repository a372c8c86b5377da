package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPadName(t *testing.T) {
	name, err := PadName("dir2")
	require.NoError(t, err)
	assert.Equal(t, byte('d'), name[0])
	assert.Equal(t, byte('2'), name[3])
	for i := 4; i < NameLength; i++ {
		assert.Equal(t, byte(0), name[i])
	}

	_, err = PadName(string(make([]byte, NameLength+1)))
	assert.ErrorIs(t, err, ErrNameLength)

	exact, err := PadName(string(make([]byte, NameLength)))
	require.NoError(t, err)
	assert.Equal(t, [NameLength]byte{}, exact)
}

func TestNameString(t *testing.T) {
	name, err := PadName("readme")
	require.NoError(t, err)

	node := Inode{Type: NodeFile, Name: name}
	assert.Equal(t, "readme", node.NameString())
}

func TestEmptyDirectBlocksIsFresh(t *testing.T) {
	a := EmptyDirectBlocks()
	b := EmptyDirectBlocks()

	for _, slot := range a {
		assert.Equal(t, EmptySlot, slot)
	}

	a[0] = 7
	assert.Equal(t, EmptySlot, b[0])
}

func TestNodeTypeString(t *testing.T) {
	assert.Equal(t, "file", NodeFile.String())
	assert.Equal(t, "directory", NodeDirectory.String())
	assert.Equal(t, "free", NodeFree.String())
	assert.Equal(t, "invalid", NodeType(9).String())
}

func TestNodeTypePredicates(t *testing.T) {
	dir := Inode{Type: NodeDirectory}
	file := Inode{Type: NodeFile}
	free := Inode{Type: NodeFree}

	assert.True(t, dir.IsDir())
	assert.True(t, file.IsFile())
	assert.True(t, free.IsFree())
	assert.False(t, dir.IsFile())
	assert.False(t, file.IsDir())
}

func TestDataBlockPayload(t *testing.T) {
	var blk DataBlock
	copy(blk.Data[:], "hello world")
	blk.Size = 5

	assert.Equal(t, []byte("hello"), blk.Payload())
}
