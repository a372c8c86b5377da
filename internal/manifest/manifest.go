package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/arenafs/arenafs/internal/domain"
	"github.com/arenafs/arenafs/internal/fs"
)

// Node is one entry of a volume manifest tree.
type Node struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Data     string `yaml:"data,omitempty"`
	Children []Node `yaml:"children,omitempty"`
}

// Manifest describes a directory/file tree to materialize onto a volume.
type Manifest struct {
	Blocks uint32 `yaml:"blocks,omitempty"`
	Tree   []Node `yaml:"tree"`
}

func Parse(raw []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.UnmarshalStrict(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if err := validate(m.Tree); err != nil {
		return nil, err
	}
	return &m, nil
}

func Load(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

func validate(nodes []Node) error {
	for _, n := range nodes {
		switch n.Type {
		case "directory":
			if n.Data != "" {
				return fmt.Errorf("directory %q carries data", n.Name)
			}
			if err := validate(n.Children); err != nil {
				return err
			}
		case "file":
			if len(n.Children) > 0 {
				return fmt.Errorf("file %q has children", n.Name)
			}
		default:
			return fmt.Errorf("node %q has invalid type %q", n.Name, n.Type)
		}
	}
	return nil
}

// Apply materializes the manifest tree under the volume root. File data is
// chunked into block-sized pieces and appended through the allocator.
func (m *Manifest) Apply(vol *fs.FileSystem) error {
	return applyNodes(vol, m.Tree, vol.Root())
}

func applyNodes(vol *fs.FileSystem, nodes []Node, parent int32) error {
	for _, n := range nodes {
		switch n.Type {
		case "directory":
			idx, err := vol.Mkdir(n.Name, parent)
			if err != nil {
				return fmt.Errorf("mkdir %q: %w", n.Name, err)
			}
			if err := applyNodes(vol, n.Children, idx); err != nil {
				return err
			}
		case "file":
			idx, err := vol.CreateFile(n.Name, parent)
			if err != nil {
				return fmt.Errorf("create %q: %w", n.Name, err)
			}
			data := []byte(n.Data)
			for len(data) > 0 {
				chunk := data
				if len(chunk) > domain.BlockSize {
					chunk = chunk[:domain.BlockSize]
				}
				if _, _, err := vol.Append(idx, chunk); err != nil {
					return fmt.Errorf("writing %q: %w", n.Name, err)
				}
				data = data[len(chunk):]
			}
		}
	}
	return nil
}
