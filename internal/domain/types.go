package domain

import "bytes"

const (
	// BlockSize is the payload capacity of a single data block in bytes.
	BlockSize = 1024
	// NameLength is the exact width of an inode name. Callers pad, the
	// filesystem never truncates.
	NameLength = 32
	// DirectBlockCount is the number of direct pointer slots per inode.
	DirectBlockCount = 12
	// EmptySlot marks an unused direct pointer slot.
	EmptySlot int32 = -1
	// RootInode is the index of the root directory. Index 0 is reserved
	// and doubles as the "no parent" value.
	RootInode int32 = 1
)

type NodeType int32

const (
	NodeFile      NodeType = 1
	NodeDirectory NodeType = 2
	// NodeFree tags an unallocated inode slot. The same enumeration that
	// tags live nodes acts as the inode-table free marker.
	NodeFree NodeType = 3
)

func (t NodeType) String() string {
	switch t {
	case NodeFile:
		return "file"
	case NodeDirectory:
		return "directory"
	case NodeFree:
		return "free"
	default:
		return "invalid"
	}
}

// Inode is one fixed-size record of the inode arena. DirectBlocks is
// interpreted through Type: for directories the slots hold child inode
// indices, for files they hold data-block indices.
type Inode struct {
	Type         NodeType
	Size         uint16
	Name         [NameLength]byte
	DirectBlocks [DirectBlockCount]int32
	Parent       int32
}

func (i *Inode) IsDir() bool {
	return i.Type == NodeDirectory
}

func (i *Inode) IsFile() bool {
	return i.Type == NodeFile
}

func (i *Inode) IsFree() bool {
	return i.Type == NodeFree
}

// NameString returns the name with trailing NUL padding stripped.
func (i *Inode) NameString() string {
	return string(bytes.TrimRight(i.Name[:], "\x00"))
}

// EmptyDirectBlocks returns a fresh all-sentinel pointer array. Every inode
// construction gets its own copy; a shared instance would alias distinct
// inodes.
func EmptyDirectBlocks() [DirectBlockCount]int32 {
	var blocks [DirectBlockCount]int32
	for i := range blocks {
		blocks[i] = EmptySlot
	}
	return blocks
}

// PadName pads s with NUL bytes to exactly NameLength. Names longer than
// NameLength are rejected, never truncated.
func PadName(s string) ([NameLength]byte, error) {
	var name [NameLength]byte
	if len(s) > NameLength {
		return name, ErrNameLength
	}
	copy(name[:], s)
	return name, nil
}

// DataBlock is one fixed-capacity payload unit. Bytes beyond Size carry no
// meaning.
type DataBlock struct {
	Size uint64
	Data [BlockSize]byte
}

func (b *DataBlock) Payload() []byte {
	return b.Data[:b.Size]
}

type Superblock struct {
	NumBlocks  uint32
	FreeBlocks uint32
}

const (
	// FreeListFree marks an unallocated data block, FreeListUsed an
	// allocated one.
	FreeListFree uint8 = 1
	FreeListUsed uint8 = 0
)
