package domain

import "errors"

var (
	ErrIndexRange      = errors.New("index out of range")
	ErrInvalidParent   = errors.New("parent is not a directory")
	ErrNameLength      = errors.New("name must be exactly 32 bytes")
	ErrDirectoryFull   = errors.New("no empty direct block slot")
	ErrPayloadTooLarge = errors.New("payload exceeds block capacity")
	ErrBlockInUse      = errors.New("block already in use")
	ErrInodeInUse      = errors.New("inode already allocated")
	ErrNoFreeBlock     = errors.New("no free data block")
	ErrNoFreeInode     = errors.New("no free inode")
	ErrSlotRange       = errors.New("direct block slot out of range")
	ErrInvalidName     = errors.New("invalid name")
	ErrNotFound        = errors.New("no such file or directory")
	ErrNotDir          = errors.New("not a directory")
	ErrNotFile         = errors.New("not a file")
	ErrCorrupted       = errors.New("volume image corrupted")
)
