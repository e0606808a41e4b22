/*
This package contains the merkle primitives used to check account-delta
proofs. It is chain agnostic; solana specific leaf hashing lives in
'solacc/'.

Jargon:

	Leaf    - the hash of one account, see solacc.Account.LeafHash
	Sibling - the other child of a node's parent
	Path    - the siblings from a leaf up to the root, with a side bit each

Hashing:

Parents are sha256(left || right). A path step records which side the
sibling sits on, so folding a path is just:

	cur = leaf
	for each step:
		if step.Side == SideLeft:  cur = HashPair(step.Sibling, cur)
		else:                      cur = HashPair(cur, step.Sibling)

and the proof is good if cur equals the committed root.

Tree:

Tree builds a whole tree from a row of leaves, in rows from the bottom up.
A 5 leaf tree looks like:

	r
	|-------------\
	a             04
	|-------\
	b       c
	|---\   |---\
	00  01  02  03  04

Rows with an odd width carry their last node up unchanged, so leaf 04 above
has a path of one step.
*/
package accumulator
