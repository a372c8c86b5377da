package fs

import (
	"encoding/binary"
	"os"

	"github.com/arenafs/arenafs/internal/crypto"
	"github.com/arenafs/arenafs/internal/domain"
)

const (
	imageMagic   = "ARENAFS\x00"
	imageVersion = 1

	headerSize      = 20 // magic + version + num blocks + root
	inodeRecordSize = 4 + 2 + domain.NameLength + 4*domain.DirectBlockCount + 4
	blockRecordSize = 8 + domain.BlockSize
)

// Open loads the volume image at path, or creates a fresh numBlocks-sized
// volume there when the file does not exist.
func Open(path string, numBlocks uint32) (*FileSystem, error) {
	return open(path, numBlocks, nil)
}

// OpenSealed is Open for images encrypted at rest with the given sealer.
func OpenSealed(path string, numBlocks uint32, sealer *crypto.Sealer) (*FileSystem, error) {
	return open(path, numBlocks, sealer)
}

func open(path string, numBlocks uint32, sealer *crypto.Sealer) (*FileSystem, error) {
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		fs, err := New(numBlocks)
		if err != nil {
			return nil, err
		}
		fs.path = path
		fs.sealer = sealer
		if err := fs.Sync(); err != nil {
			return nil, err
		}
		return fs, nil
	}
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if sealer != nil {
		raw, err = sealer.Open(raw)
		if err != nil {
			return nil, err
		}
	}

	fs := &FileSystem{path: path, sealer: sealer}
	if err := fs.decode(raw); err != nil {
		return nil, err
	}
	return fs, nil
}

// Sync writes the full image back to the backing file.
func (fs *FileSystem) Sync() error {
	fs.mu.RLock()
	raw := fs.encode()
	fs.mu.RUnlock()

	if fs.path == "" {
		return nil
	}

	if fs.sealer != nil {
		sealed, err := fs.sealer.Seal(raw)
		if err != nil {
			return err
		}
		raw = sealed
	}
	return os.WriteFile(fs.path, raw, 0644)
}

// Close syncs the image. The in-memory volume stays usable; Close exists for
// symmetry with Open.
func (fs *FileSystem) Close() error {
	return fs.Sync()
}

func imageSize(numBlocks uint32) int {
	n := int(numBlocks)
	return headerSize + 8 + n + n*inodeRecordSize + n*blockRecordSize
}

func (fs *FileSystem) encode() []byte {
	n := int(fs.sb.NumBlocks)
	buf := make([]byte, imageSize(fs.sb.NumBlocks))

	copy(buf[0:8], imageMagic)
	binary.LittleEndian.PutUint32(buf[8:12], imageVersion)
	binary.LittleEndian.PutUint32(buf[12:16], fs.sb.NumBlocks)
	binary.LittleEndian.PutUint32(buf[16:20], uint32(fs.root))

	off := headerSize
	binary.LittleEndian.PutUint32(buf[off:off+4], fs.sb.NumBlocks)
	binary.LittleEndian.PutUint32(buf[off+4:off+8], fs.sb.FreeBlocks)
	off += 8

	copy(buf[off:off+n], fs.freeList)
	off += n

	for i := 0; i < n; i++ {
		encodeInode(buf[off:off+inodeRecordSize], &fs.inodes[i])
		off += inodeRecordSize
	}
	for i := 0; i < n; i++ {
		blk := &fs.blocks[i]
		binary.LittleEndian.PutUint64(buf[off:off+8], blk.Size)
		copy(buf[off+8:off+8+domain.BlockSize], blk.Data[:])
		off += blockRecordSize
	}

	return buf
}

func encodeInode(buf []byte, node *domain.Inode) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(node.Type))
	binary.LittleEndian.PutUint16(buf[4:6], node.Size)
	copy(buf[6:6+domain.NameLength], node.Name[:])

	off := 6 + domain.NameLength
	for _, block := range node.DirectBlocks {
		binary.LittleEndian.PutUint32(buf[off:off+4], uint32(block))
		off += 4
	}
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(node.Parent))
}

func (fs *FileSystem) decode(buf []byte) error {
	if len(buf) < headerSize+8 {
		return domain.ErrCorrupted
	}
	if string(buf[0:8]) != imageMagic {
		return domain.ErrCorrupted
	}
	if binary.LittleEndian.Uint32(buf[8:12]) != imageVersion {
		return domain.ErrCorrupted
	}

	numBlocks := binary.LittleEndian.Uint32(buf[12:16])
	if numBlocks < 2 || len(buf) != imageSize(numBlocks) {
		return domain.ErrCorrupted
	}
	root := int32(binary.LittleEndian.Uint32(buf[16:20]))
	if root <= 0 || root >= int32(numBlocks) {
		return domain.ErrCorrupted
	}

	n := int(numBlocks)
	off := headerSize

	fs.sb.NumBlocks = binary.LittleEndian.Uint32(buf[off : off+4])
	fs.sb.FreeBlocks = binary.LittleEndian.Uint32(buf[off+4 : off+8])
	off += 8
	if fs.sb.NumBlocks != numBlocks || fs.sb.FreeBlocks > numBlocks {
		return domain.ErrCorrupted
	}
	fs.root = root

	fs.freeList = make([]uint8, n)
	copy(fs.freeList, buf[off:off+n])
	off += n

	fs.inodes = make([]domain.Inode, n)
	for i := 0; i < n; i++ {
		decodeInode(buf[off:off+inodeRecordSize], &fs.inodes[i])
		off += inodeRecordSize
	}

	fs.blocks = make([]domain.DataBlock, n)
	for i := 0; i < n; i++ {
		blk := &fs.blocks[i]
		blk.Size = binary.LittleEndian.Uint64(buf[off : off+8])
		if blk.Size > domain.BlockSize {
			return domain.ErrCorrupted
		}
		copy(blk.Data[:], buf[off+8:off+8+domain.BlockSize])
		off += blockRecordSize
	}

	return nil
}

func decodeInode(buf []byte, node *domain.Inode) {
	node.Type = domain.NodeType(binary.LittleEndian.Uint32(buf[0:4]))
	node.Size = binary.LittleEndian.Uint16(buf[4:6])
	copy(node.Name[:], buf[6:6+domain.NameLength])

	off := 6 + domain.NameLength
	for i := range node.DirectBlocks {
		node.DirectBlocks[i] = int32(binary.LittleEndian.Uint32(buf[off : off+4]))
		off += 4
	}
	node.Parent = int32(binary.LittleEndian.Uint32(buf[off : off+4]))
}
