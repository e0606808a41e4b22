package accumulator

import (
	"errors"
	"fmt"
	"io"

	"github.com/twine-labs/solproof/common"
)

// MaxPathDepth bounds the number of steps in a path. A binary tree of 2^64
// leaves is far beyond anything a slot can hold.
const MaxPathDepth = 64

var (
	ErrPathTooDeep = errors.New("merkle path too deep")
	ErrInvalidSide = errors.New("invalid merkle step side")
)

// MerklePath is the ordered list of siblings from a leaf up to the root,
// leaf end first.
type MerklePath []MerkleStep

/*
MerklePath serialization is:
8bytes numSteps (little endian)
[]steps (1 byte side + 32 bytes sibling each)
*/

// Root folds the path starting at leaf and returns the resulting root.
func (p MerklePath) Root(leaf Hash) Hash {
	cur := leaf
	for _, step := range p {
		if step.Side == SideLeft {
			cur = HashPair(step.Sibling, cur)
		} else {
			cur = HashPair(cur, step.Sibling)
		}
	}
	return cur
}

// Verify says whether folding leaf through the path lands on root.
func (p MerklePath) Verify(leaf, root Hash) bool {
	return p.Root(leaf) == root
}

// Sanity checks the structure of the path without hashing anything.
func (p MerklePath) Sanity() error {
	if len(p) > MaxPathDepth {
		return fmt.Errorf("%w: %d steps, max %d", ErrPathTooDeep,
			len(p), MaxPathDepth)
	}
	for i, step := range p {
		if !step.Side.Valid() {
			return fmt.Errorf("%w: step %d has %s", ErrInvalidSide, i, step.Side)
		}
	}
	return nil
}

// Serialize a merkle path to a writer.
func (p MerklePath) Serialize(w io.Writer) error {
	fb := common.NewFreeBytes()
	defer fb.Free()

	err := fb.PutUint64(w, uint64(len(p)))
	if err != nil {
		return err
	}
	for _, step := range p {
		err = fb.PutUint8(w, uint8(step.Side))
		if err != nil {
			return err
		}
		_, err = w.Write(step.Sibling[:])
		if err != nil {
			return err
		}
	}
	return nil
}

// SerializeSize is 8 bytes of length and 33 bytes per step.
func (p MerklePath) SerializeSize() int {
	return 8 + 33*len(p)
}

// Deserialize gives a merkle path back from the serialized bytes
func (p *MerklePath) Deserialize(r io.Reader) error {
	fb := common.NewFreeBytes()
	defer fb.Free()

	n, err := fb.Length(r, MaxPathDepth)
	if err != nil {
		return fmt.Errorf("merkle path length: %w", err)
	}
	path := make(MerklePath, n)
	for i := range path {
		side, err := fb.Uint8(r)
		if err != nil {
			return fmt.Errorf("merkle step %d: %w", i, err)
		}
		path[i].Side = Side(side)
		if !path[i].Side.Valid() {
			return fmt.Errorf("%w: step %d has %d", ErrInvalidSide, i, side)
		}
		_, err = io.ReadFull(r, path[i].Sibling[:])
		if err != nil {
			return fmt.Errorf("merkle step %d: %w", i, err)
		}
	}
	*p = path
	return nil
}

// ToString for debugging, shows the path
func (p MerklePath) ToString() string {
	s := fmt.Sprintf("%d steps: ", len(p))
	for _, step := range p {
		s += fmt.Sprintf("%s:%x ", step.Side, step.Sibling.Prefix())
	}
	return s
}
