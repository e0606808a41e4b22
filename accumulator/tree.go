package accumulator

import (
	"errors"
	"fmt"
)

var ErrEmptyTree = errors.New("no leaves to build a tree from")

// Tree is a fully materialized binary merkle tree. rows[0] holds the
// leaves and the last row holds the single root. When a row has an odd
// number of nodes the last one is carried up unchanged, so its path has no
// step for that row.
//
// Collectors and tests use Tree to produce paths; the verifier only ever
// needs MerklePath.Root.
type Tree struct {
	rows [][]Hash
}

// BuildTree hashes the leaves up to a root.
func BuildTree(leaves []Hash) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}
	row := make([]Hash, len(leaves))
	copy(row, leaves)
	t := &Tree{rows: [][]Hash{row}}

	for len(row) > 1 {
		next := make([]Hash, 0, (len(row)+1)/2)
		for i := 0; i+1 < len(row); i += 2 {
			next = append(next, HashPair(row[i], row[i+1]))
		}
		if len(row)&1 == 1 {
			next = append(next, row[len(row)-1])
		}
		t.rows = append(t.rows, next)
		row = next
	}
	return t, nil
}

// Root returns the top of the tree.
func (t *Tree) Root() Hash {
	return t.rows[len(t.rows)-1][0]
}

// NumLeaves is the width of the bottom row.
func (t *Tree) NumLeaves() int {
	return len(t.rows[0])
}

// Leaf returns the leaf hash at position pos.
func (t *Tree) Leaf(pos int) Hash {
	return t.rows[0][pos]
}

// Prove returns the path from the leaf at pos to the root.
func (t *Tree) Prove(pos int) (MerklePath, error) {
	if pos < 0 || pos >= t.NumLeaves() {
		return nil, fmt.Errorf("prove: leaf position %d but only %d leaves exist",
			pos, t.NumLeaves())
	}
	var path MerklePath
	for _, row := range t.rows[:len(t.rows)-1] {
		sib := pos ^ 1
		if sib < len(row) {
			step := MerkleStep{Sibling: row[sib], Side: SideRight}
			if pos&1 == 1 {
				step.Side = SideLeft
			}
			path = append(path, step)
		}
		pos >>= 1
	}
	return path, nil
}
