package wire

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/twine-labs/solproof/accumulator"
	"github.com/twine-labs/solproof/common"
)

// VoteInstruction variants that carry votes. The numbers are the bincode
// enum indexes of the vote program's instruction enum.
const (
	InstructionVote      uint32 = 2
	InstructionTowerSync uint32 = 14
)

// MaxVoteSlots bounds the slots list of a single vote.
const MaxVoteSlots = 1024

var ErrEmptyVote = errors.New("vote has no slots")

// Vote is the vote program's legacy Vote payload.
type Vote struct {
	// Slots voted on, ascending.
	Slots []uint64
	// Hash is the bank hash of the last slot in Slots.
	Hash accumulator.Hash
	// Timestamp is an optional unix timestamp.
	Timestamp *int64
}

// LastSlot returns the newest voted slot.
func (v *Vote) LastSlot() (uint64, bool) {
	if len(v.Slots) == 0 {
		return 0, false
	}
	return v.Slots[len(v.Slots)-1], true
}

// Sanity checks what can be checked without a signature.
func (v *Vote) Sanity() error {
	if len(v.Slots) == 0 {
		return ErrEmptyVote
	}
	if len(v.Slots) > MaxVoteSlots {
		return fmt.Errorf("vote has %d slots, max %d", len(v.Slots), MaxVoteSlots)
	}
	return nil
}

// Encode writes the bincode form of the vote:
//
//	u64 len || u64 slots... || hash || option<i64> timestamp
func (v *Vote) Encode(w io.Writer) error {
	fb := common.NewFreeBytes()
	defer fb.Free()

	if err := fb.PutUint64(w, uint64(len(v.Slots))); err != nil {
		return err
	}
	for _, s := range v.Slots {
		if err := fb.PutUint64(w, s); err != nil {
			return err
		}
	}
	if _, err := w.Write(v.Hash[:]); err != nil {
		return err
	}
	return putOptionInt64(fb, w, v.Timestamp)
}

// Decode reads what Encode wrote.
func (v *Vote) Decode(r io.Reader) error {
	fb := common.NewFreeBytes()
	defer fb.Free()

	n, err := fb.Length(r, MaxVoteSlots)
	if err != nil {
		return fmt.Errorf("vote slots: %w", err)
	}
	v.Slots = make([]uint64, n)
	for i := range v.Slots {
		if v.Slots[i], err = fb.Uint64(r); err != nil {
			return err
		}
	}
	if _, err = io.ReadFull(r, v.Hash[:]); err != nil {
		return err
	}
	v.Timestamp, err = readOptionInt64(fb, r)
	return err
}

// SignBytes returns the canonical bytes a validator signs for this vote:
// the bincode VoteInstruction::Vote, i.e. the u32 variant index followed by
// the encoded vote.
//
// These are not the bytes a validator signs on chain. There the signature
// covers the whole transaction message carrying the instruction, so vote
// signatures taken from ledger transactions do not verify against
// SignBytes. The collector must have the instruction itself signed.
func (v *Vote) SignBytes() []byte {
	var buf bytes.Buffer
	fb := common.NewFreeBytes()
	defer fb.Free()

	// writes to a bytes.Buffer don't fail
	fb.PutUint32(&buf, InstructionVote)
	v.Encode(&buf)
	return buf.Bytes()
}

func putOptionInt64(fb *common.FreeBytes, w io.Writer, v *int64) error {
	if v == nil {
		return fb.PutUint8(w, 0)
	}
	if err := fb.PutUint8(w, 1); err != nil {
		return err
	}
	return fb.PutUint64(w, uint64(*v))
}

func readOptionInt64(fb *common.FreeBytes, r io.Reader) (*int64, error) {
	some, err := fb.Bool(r)
	if err != nil || !some {
		return nil, err
	}
	u, err := fb.Uint64(r)
	if err != nil {
		return nil, err
	}
	v := int64(u)
	return &v, nil
}
