package solacc

import (
	"errors"
	"fmt"
	"io"

	"github.com/twine-labs/solproof/accumulator"
	"github.com/twine-labs/solproof/common"
	"lukechampine.com/blake3"
)

// MaxAccountDataLen is the runtime's MAX_PERMITTED_DATA_LENGTH (10 MiB).
const MaxAccountDataLen = 10 * 1024 * 1024

// Account is all the data that goes into a leaf of the account-delta tree.
type Account struct {
	Pubkey     Pubkey
	Owner      Pubkey
	Lamports   uint64
	RentEpoch  uint64
	Executable bool
	Data       []byte
}

// ErrDeletedState is returned by Sanity for a zero lamport account that
// still carries data, an owner or other state.
var ErrDeletedState = errors.New("zero lamport account carries state")

// Sanity checks the size of the data and that a deleted account holds
// nothing but its address. A zero lamport account hashes to the zero leaf
// without covering any other field, so any state attached to one is
// unproven.
func (a *Account) Sanity() error {
	if len(a.Data) > MaxAccountDataLen {
		return fmt.Errorf("data length %d over %d", len(a.Data),
			MaxAccountDataLen)
	}
	if a.Lamports != 0 {
		return nil
	}
	if len(a.Data) != 0 || !a.Owner.IsZero() || a.Executable ||
		a.RentEpoch != 0 {
		return ErrDeletedState
	}
	return nil
}

// LeafHash is solana's account hash:
//
//	blake3(lamports || rent_epoch || data || executable || owner || pubkey)
//
// with integers little endian. Accounts with zero lamports are deleted by
// the runtime and hash to the zero hash.
func (a *Account) LeafHash() accumulator.Hash {
	var h accumulator.Hash
	if a.Lamports == 0 {
		return h
	}

	fb := common.NewFreeBytes()
	defer fb.Free()

	hasher := blake3.New(accumulator.HashSize, nil)
	fb.PutUint64(hasher, a.Lamports)
	fb.PutUint64(hasher, a.RentEpoch)
	hasher.Write(a.Data)
	fb.PutBool(hasher, a.Executable)
	hasher.Write(a.Owner[:])
	hasher.Write(a.Pubkey[:])
	copy(h[:], hasher.Sum(nil))
	return h
}

// Serialize puts an Account onto a writer
func (a *Account) Serialize(w io.Writer) error {
	if len(a.Data) > MaxAccountDataLen {
		return fmt.Errorf("account %s data length %d over max %d",
			a.Pubkey, len(a.Data), MaxAccountDataLen)
	}
	fb := common.NewFreeBytes()
	defer fb.Free()

	if _, err := w.Write(a.Pubkey[:]); err != nil {
		return err
	}
	if _, err := w.Write(a.Owner[:]); err != nil {
		return err
	}
	if err := fb.PutUint64(w, a.Lamports); err != nil {
		return err
	}
	if err := fb.PutUint64(w, a.RentEpoch); err != nil {
		return err
	}
	if err := fb.PutBool(w, a.Executable); err != nil {
		return err
	}
	if err := fb.PutUint64(w, uint64(len(a.Data))); err != nil {
		return err
	}
	_, err := w.Write(a.Data)
	return err
}

// SerializeSize says how big a serialized account is
func (a *Account) SerializeSize() int {
	// 32B pubkey, 32B owner, 8B lamports, 8B rent epoch, 1B exec, 8B len
	return 89 + len(a.Data)
}

// Deserialize reads an Account written by Serialize.
func (a *Account) Deserialize(r io.Reader) (err error) {
	fb := common.NewFreeBytes()
	defer fb.Free()

	if _, err = io.ReadFull(r, a.Pubkey[:]); err != nil {
		return
	}
	if _, err = io.ReadFull(r, a.Owner[:]); err != nil {
		return
	}
	if a.Lamports, err = fb.Uint64(r); err != nil {
		return
	}
	if a.RentEpoch, err = fb.Uint64(r); err != nil {
		return
	}
	if a.Executable, err = fb.Bool(r); err != nil {
		return
	}
	n, err := fb.Length(r, MaxAccountDataLen)
	if err != nil {
		return fmt.Errorf("account %s data: %w", a.Pubkey, err)
	}
	a.Data = make([]byte, n)
	_, err = io.ReadFull(r, a.Data)
	return
}
