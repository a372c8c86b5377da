package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenafs/arenafs/internal/crypto"
	"github.com/arenafs/arenafs/internal/domain"
)

func TestOpenCreatesImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "volume.img")

	vol, err := Open(path, 8)
	require.NoError(t, err)
	require.NoError(t, vol.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(imageSize(8)), info.Size())
}

func TestImageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "volume.img")

	vol, err := Open(path, 16)
	require.NoError(t, err)

	dir, err := vol.Mkdir("docs", vol.Root())
	require.NoError(t, err)
	file, err := vol.CreateFile("readme", dir)
	require.NoError(t, err)
	require.NoError(t, vol.AttachString(5, "hello", file, 0))
	require.NoError(t, vol.Close())

	loaded, err := Open(path, 0)
	require.NoError(t, err)

	sb := loaded.Superblock()
	assert.Equal(t, uint32(16), sb.NumBlocks)
	assert.Equal(t, uint32(15), sb.FreeBlocks)

	idx, err := loaded.WalkPath("/docs/readme")
	require.NoError(t, err)
	assert.Equal(t, file, idx)

	data, err := loaded.ReadFile(idx)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	free, err := loaded.BlockFree(5)
	require.NoError(t, err)
	assert.False(t, free)

	want := ExpectedNode("docs", domain.NodeDirectory, loaded.Root(), file)
	assert.NoError(t, loaded.Check(dir, want, true))
}

func TestOpenCorruptedImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "volume.img")

	vol, err := Open(path, 8)
	require.NoError(t, err)
	require.NoError(t, vol.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	copy(raw[0:8], "BADMAGIC")
	require.NoError(t, os.WriteFile(path, raw, 0644))

	_, err = Open(path, 8)
	assert.ErrorIs(t, err, domain.ErrCorrupted)
}

func TestOpenTruncatedImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "volume.img")

	vol, err := Open(path, 8)
	require.NoError(t, err)
	require.NoError(t, vol.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw[:len(raw)/2], 0644))

	_, err = Open(path, 8)
	assert.ErrorIs(t, err, domain.ErrCorrupted)
}

func TestSealedImageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "volume.img")
	sealer, err := crypto.NewSealer(crypto.DeriveKey("secret"))
	require.NoError(t, err)

	vol, err := OpenSealed(path, 8, sealer)
	require.NoError(t, err)
	file, err := vol.CreateFile("readme", vol.Root())
	require.NoError(t, err)
	require.NoError(t, vol.AttachString(3, "sealed", file, 0))
	require.NoError(t, vol.Close())

	// the image on disk is not plaintext
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, imageMagic, string(raw[0:8]))

	loaded, err := OpenSealed(path, 0, sealer)
	require.NoError(t, err)
	data, err := loaded.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, []byte("sealed"), data)
}

func TestSealedImageWrongKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "volume.img")
	sealer, err := crypto.NewSealer(crypto.DeriveKey("secret"))
	require.NoError(t, err)

	vol, err := OpenSealed(path, 8, sealer)
	require.NoError(t, err)
	require.NoError(t, vol.Close())

	wrong, err := crypto.NewSealer(crypto.DeriveKey("other"))
	require.NoError(t, err)
	_, err = OpenSealed(path, 8, wrong)
	assert.ErrorIs(t, err, crypto.ErrDecryptFailed)
}
