package usecase

import (
	"context"

	"github.com/arenafs/arenafs/internal/domain"
	"github.com/arenafs/arenafs/internal/fs"
)

// VolumeService is the wrapper surface over the filesystem core. The core
// itself is synchronous; the context is carried for caller-side plumbing the
// way the transport layers expect it.
type VolumeService interface {
	Mkdir(ctx context.Context, name string, parent int32) (int32, error)
	CreateFile(ctx context.Context, name string, parent int32) (int32, error)
	Attach(ctx context.Context, block int32, data []byte, owner int32, slot int) error
	Append(ctx context.Context, owner int32, data []byte) (int32, int, error)
	Read(ctx context.Context, owner int32) ([]byte, error)
	List(ctx context.Context, parent int32) ([]fs.Entry, error)
	Check(ctx context.Context, idx int32, want fs.Expected, verifyLinks bool) error
	Stats(ctx context.Context) (domain.Superblock, error)
	Sync(ctx context.Context) error
}

type volumeService struct {
	vol *fs.FileSystem
}

func NewVolumeService(vol *fs.FileSystem) VolumeService {
	return &volumeService{vol: vol}
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".."
}

func (s *volumeService) Mkdir(ctx context.Context, name string, parent int32) (int32, error) {
	if !validName(name) {
		return 0, domain.ErrInvalidName
	}
	return s.vol.Mkdir(name, parent)
}

func (s *volumeService) CreateFile(ctx context.Context, name string, parent int32) (int32, error) {
	if !validName(name) {
		return 0, domain.ErrInvalidName
	}
	return s.vol.CreateFile(name, parent)
}

func (s *volumeService) Attach(ctx context.Context, block int32, data []byte, owner int32, slot int) error {
	return s.vol.AttachData(block, data, owner, slot)
}

func (s *volumeService) Append(ctx context.Context, owner int32, data []byte) (int32, int, error) {
	return s.vol.Append(owner, data)
}

func (s *volumeService) Read(ctx context.Context, owner int32) ([]byte, error) {
	return s.vol.ReadFile(owner)
}

func (s *volumeService) List(ctx context.Context, parent int32) ([]fs.Entry, error) {
	return s.vol.List(parent)
}

func (s *volumeService) Check(ctx context.Context, idx int32, want fs.Expected, verifyLinks bool) error {
	return s.vol.Check(idx, want, verifyLinks)
}

func (s *volumeService) Stats(ctx context.Context) (domain.Superblock, error) {
	return s.vol.Superblock(), nil
}

func (s *volumeService) Sync(ctx context.Context) error {
	return s.vol.Sync()
}
