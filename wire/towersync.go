package wire

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/twine-labs/solproof/accumulator"
	"github.com/twine-labs/solproof/common"
)

// MaxLockoutHistory is the deepest a validator's tower can be.
const MaxLockoutHistory = 31

var (
	ErrTowerTooDeep   = errors.New("tower sync has too many lockouts")
	ErrLockoutOrder   = errors.New("lockout slots not ascending from root")
	ErrLockoutCount   = errors.New("lockout confirmation count over 255")
	ErrEmptyTowerSync = errors.New("tower sync has no lockouts")
	noRoot            = uint64(math.MaxUint64)
)

// Lockout is one entry of a validator's tower.
type Lockout struct {
	Slot              uint64
	ConfirmationCount uint32
}

// TowerSync is a validator's full tower as sent in the vote program's
// TowerSync instruction.
type TowerSync struct {
	Lockouts  []Lockout
	Root      *uint64
	Hash      accumulator.Hash
	Timestamp *int64
	BlockID   accumulator.Hash
}

// LastSlot returns the newest slot in the tower.
func (t *TowerSync) LastSlot() (uint64, bool) {
	if len(t.Lockouts) == 0 {
		return 0, false
	}
	return t.Lockouts[len(t.Lockouts)-1].Slot, true
}

// Sanity checks that the tower can be put in compact form.
func (t *TowerSync) Sanity() error {
	if len(t.Lockouts) == 0 {
		return ErrEmptyTowerSync
	}
	if len(t.Lockouts) > MaxLockoutHistory {
		return fmt.Errorf("%w: %d, max %d", ErrTowerTooDeep,
			len(t.Lockouts), MaxLockoutHistory)
	}
	prev := uint64(0)
	if t.Root != nil {
		prev = *t.Root
	}
	for i, l := range t.Lockouts {
		if l.Slot < prev {
			return fmt.Errorf("%w: lockout %d slot %d below %d",
				ErrLockoutOrder, i, l.Slot, prev)
		}
		if l.ConfirmationCount > math.MaxUint8 {
			return fmt.Errorf("%w: lockout %d has %d", ErrLockoutCount,
				i, l.ConfirmationCount)
		}
		prev = l.Slot
	}
	return nil
}

/*
TowerSync goes over the wire in the vote program's compact form:

	u64 root (u64::MAX when there is none)
	short_vec of lockout offsets:
		varint slot offset from the previous slot (the root for the first)
		u8 confirmation count
	32B hash
	option<i64> timestamp
	32B block id
*/

// Encode writes the compact form. It fails where Sanity fails.
func (t *TowerSync) Encode(w io.Writer) error {
	if err := t.Sanity(); err != nil {
		return err
	}
	fb := common.NewFreeBytes()
	defer fb.Free()

	root := noRoot
	prev := uint64(0)
	if t.Root != nil {
		root = *t.Root
		prev = root
	}
	if err := fb.PutUint64(w, root); err != nil {
		return err
	}
	if err := putShortU16(w, uint16(len(t.Lockouts))); err != nil {
		return err
	}
	for _, l := range t.Lockouts {
		if err := putVarint(w, l.Slot-prev); err != nil {
			return err
		}
		if err := fb.PutUint8(w, uint8(l.ConfirmationCount)); err != nil {
			return err
		}
		prev = l.Slot
	}
	if _, err := w.Write(t.Hash[:]); err != nil {
		return err
	}
	if err := putOptionInt64(fb, w, t.Timestamp); err != nil {
		return err
	}
	_, err := w.Write(t.BlockID[:])
	return err
}

// Decode reads the compact form back.
func (t *TowerSync) Decode(r io.Reader) error {
	fb := common.NewFreeBytes()
	defer fb.Free()

	root, err := fb.Uint64(r)
	if err != nil {
		return err
	}
	prev := uint64(0)
	t.Root = nil
	if root != noRoot {
		t.Root = &root
		prev = root
	}

	n, err := readShortU16(r)
	if err != nil {
		return err
	}
	if n > MaxLockoutHistory {
		return fmt.Errorf("%w: %d, max %d", ErrTowerTooDeep, n, MaxLockoutHistory)
	}
	t.Lockouts = make([]Lockout, n)
	for i := range t.Lockouts {
		off, err := readVarint(r)
		if err != nil {
			return fmt.Errorf("lockout %d offset: %w", i, err)
		}
		if prev+off < prev {
			return fmt.Errorf("%w: lockout %d offset overflows", ErrLockoutOrder, i)
		}
		conf, err := fb.Uint8(r)
		if err != nil {
			return err
		}
		prev += off
		t.Lockouts[i] = Lockout{Slot: prev, ConfirmationCount: uint32(conf)}
	}
	if _, err = io.ReadFull(r, t.Hash[:]); err != nil {
		return err
	}
	if t.Timestamp, err = readOptionInt64(fb, r); err != nil {
		return err
	}
	_, err = io.ReadFull(r, t.BlockID[:])
	return err
}

// SignBytes returns the bincode VoteInstruction::TowerSync bytes: the u32
// variant index followed by the compact tower. The error is Sanity's.
//
// As with Vote.SignBytes, this is the instruction alone and not the
// transaction message a validator signs on chain.
func (t *TowerSync) SignBytes() ([]byte, error) {
	var buf bytes.Buffer
	fb := common.NewFreeBytes()
	defer fb.Free()

	fb.PutUint32(&buf, InstructionTowerSync)
	if err := t.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
