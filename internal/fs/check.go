package fs

import (
	"fmt"

	"github.com/arenafs/arenafs/internal/domain"
)

type CheckStep int

const (
	// StepAttributes compares index range, name, type and parent.
	StepAttributes CheckStep = iota + 1
	// StepDirectBlocks compares the stored pointer slots element for
	// element, sentinels included.
	StepDirectBlocks
	// StepParentLink requires the inode's index in at least one slot of
	// its parent.
	StepParentLink
	// StepChildLinks requires every referenced child to point back via
	// its parent field.
	StepChildLinks
)

func (s CheckStep) String() string {
	switch s {
	case StepAttributes:
		return "attributes"
	case StepDirectBlocks:
		return "direct blocks"
	case StepParentLink:
		return "parent link"
	case StepChildLinks:
		return "child links"
	default:
		return "unknown"
	}
}

// IntegrityError reports which check step failed for which inode index.
type IntegrityError struct {
	Step   CheckStep
	Index  int32
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation at inode %d, step %s: %s", e.Index, e.Step, e.Reason)
}

// Expected is the in-memory model an inode is verified against.
type Expected struct {
	Name         string
	Type         domain.NodeType
	Parent       int32
	DirectBlocks [domain.DirectBlockCount]int32
}

// ExpectedNode builds a model with the given leading slots; the rest are
// sentinels.
func ExpectedNode(name string, t domain.NodeType, parent int32, blocks ...int32) Expected {
	want := Expected{
		Name:         name,
		Type:         t,
		Parent:       parent,
		DirectBlocks: domain.EmptyDirectBlocks(),
	}
	copy(want.DirectBlocks[:], blocks)
	return want
}

// Check verifies the inode at idx against want. Steps run in a fixed order:
// attributes, positional slot equality, parent containment, child
// back-links. verifyLinks=false skips the two link steps; file inodes must
// be checked that way since their slots reference data blocks, not inodes.
func (fs *FileSystem) Check(idx int32, want Expected, verifyLinks bool) error {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	wantName, err := domain.PadName(want.Name)
	if err != nil {
		return err
	}

	if fs.checkIndex(idx) != nil {
		return &IntegrityError{Step: StepAttributes, Index: idx, Reason: "index out of range"}
	}
	node := &fs.inodes[idx]

	if node.Name != wantName {
		return &IntegrityError{
			Step:   StepAttributes,
			Index:  idx,
			Reason: fmt.Sprintf("name %q, want %q", node.NameString(), want.Name),
		}
	}
	if node.Type != want.Type {
		return &IntegrityError{
			Step:   StepAttributes,
			Index:  idx,
			Reason: fmt.Sprintf("type %s, want %s", node.Type, want.Type),
		}
	}
	if node.Parent != want.Parent {
		return &IntegrityError{
			Step:   StepAttributes,
			Index:  idx,
			Reason: fmt.Sprintf("parent %d, want %d", node.Parent, want.Parent),
		}
	}

	for i := 0; i < domain.DirectBlockCount; i++ {
		if node.DirectBlocks[i] != want.DirectBlocks[i] {
			return &IntegrityError{
				Step:   StepDirectBlocks,
				Index:  idx,
				Reason: fmt.Sprintf("slot %d holds %d, want %d", i, node.DirectBlocks[i], want.DirectBlocks[i]),
			}
		}
	}

	if !verifyLinks {
		return nil
	}

	if node.Parent != 0 {
		if fs.checkIndex(node.Parent) != nil {
			return &IntegrityError{Step: StepParentLink, Index: idx, Reason: "parent index out of range"}
		}
		linked := false
		for _, child := range fs.inodes[node.Parent].DirectBlocks {
			if child == idx {
				linked = true
				break
			}
		}
		if !linked {
			return &IntegrityError{
				Step:   StepParentLink,
				Index:  idx,
				Reason: fmt.Sprintf("not referenced by parent %d", node.Parent),
			}
		}
	}

	for i, child := range node.DirectBlocks {
		if child == domain.EmptySlot {
			continue
		}
		if fs.checkIndex(child) != nil {
			return &IntegrityError{
				Step:   StepChildLinks,
				Index:  idx,
				Reason: fmt.Sprintf("slot %d references invalid index %d", i, child),
			}
		}
		if fs.inodes[child].Parent != idx {
			return &IntegrityError{
				Step:   StepChildLinks,
				Index:  idx,
				Reason: fmt.Sprintf("child %d reports parent %d", child, fs.inodes[child].Parent),
			}
		}
	}

	return nil
}
