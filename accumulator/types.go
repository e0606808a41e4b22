package accumulator

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"github.com/twine-labs/solproof/common"
)

// HashSize is the size of every hash handled by this package.
const HashSize = 32

// Hash is the 32 bytes of a sha256 hash
type Hash [HashSize]byte

// String returns the base58 form of the hash, which is how solana tooling
// prints bank hashes and blockhashes.
func (h Hash) String() string {
	return base58.Encode(h[:])
}

// Prefix for printfs
func (h Hash) Prefix() []byte {
	return h[:4]
}

// IsZero returns true if every byte of the hash is zero.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// HashFromString decodes a base58 hash.
func HashFromString(s string) (Hash, error) {
	var h Hash
	b := base58.Decode(s)
	if len(b) != HashSize {
		return h, fmt.Errorf("hash %q decodes to %d bytes, want %d",
			s, len(b), HashSize)
	}
	copy(h[:], b)
	return h, nil
}

// HashPair gets you the merkle parent of two children hashes:
// sha256(left || right).
func HashPair(l, r Hash) Hash {
	buf := common.NewFreeBytes()
	defer buf.Free()
	buf.Bytes = append(buf.Bytes, l[:]...)
	buf.Bytes = append(buf.Bytes, r[:]...)
	return sha256.Sum256(buf.Bytes)
}

// Side says which side of the parent the sibling sits on.
type Side uint8

const (
	// SideLeft means the sibling is the left operand of HashPair and the
	// running hash is the right one.
	SideLeft Side = iota
	// SideRight means the sibling is the right operand.
	SideRight
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	}
	return fmt.Sprintf("side(%d)", uint8(s))
}

// Valid is false for anything other than SideLeft or SideRight.
func (s Side) Valid() bool {
	return s == SideLeft || s == SideRight
}

// MerkleStep is one level of a merkle path.
type MerkleStep struct {
	Sibling Hash
	Side    Side
}
