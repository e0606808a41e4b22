package consensus

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/twine-labs/solproof/common"
)

// windowMagic starts every serialized window.
var windowMagic = [4]byte{'s', 'p', 'w', 1}

// MaxDetailLen bounds the detail string of a serialized verdict.
const MaxDetailLen = 4096

var (
	ErrBadMagic       = errors.New("not a serialized window")
	ErrTrailingBytes  = errors.New("trailing bytes after window")
	ErrVerdictKind    = errors.New("unknown violation kind")
	ErrVerdictMessage = errors.New("unknown message kind")
)

/*
Window file layout, integers little endian, counts u64:

	4B magic
	u64 first slot, u64 last slot
	count, then per slot: slot, parent, delta root, num sigs, blockhash, bank hash
	count, then per proof: slot, account, merkle path
	count, then per vote: slot, validator, bincode vote, signature
	count, then per tower sync: slot, validator, compact tower, signature
*/

// Serialize writes the window in the layout above.
func (w *Window) Serialize(wr io.Writer) error {
	fb := common.NewFreeBytes()
	defer fb.Free()

	if _, err := wr.Write(windowMagic[:]); err != nil {
		return err
	}
	if err := fb.PutUint64(wr, w.FirstSlot); err != nil {
		return err
	}
	if err := fb.PutUint64(wr, w.LastSlot); err != nil {
		return err
	}

	if err := fb.PutUint64(wr, uint64(len(w.Slots))); err != nil {
		return err
	}
	for i := range w.Slots {
		s := &w.Slots[i]
		if err := fb.PutUint64(wr, s.Slot); err != nil {
			return err
		}
		if _, err := wr.Write(s.ParentBankHash[:]); err != nil {
			return err
		}
		if _, err := wr.Write(s.AccountDeltaRoot[:]); err != nil {
			return err
		}
		if err := fb.PutUint64(wr, s.NumSignatures); err != nil {
			return err
		}
		if _, err := wr.Write(s.Blockhash[:]); err != nil {
			return err
		}
		if _, err := wr.Write(s.BankHash[:]); err != nil {
			return err
		}
	}

	if err := fb.PutUint64(wr, uint64(len(w.Proofs))); err != nil {
		return err
	}
	for i := range w.Proofs {
		p := &w.Proofs[i]
		if err := fb.PutUint64(wr, p.Slot); err != nil {
			return err
		}
		if err := p.Account.Serialize(wr); err != nil {
			return fmt.Errorf("proof %d: %w", i, err)
		}
		if err := p.Path.Serialize(wr); err != nil {
			return fmt.Errorf("proof %d: %w", i, err)
		}
	}

	if err := fb.PutUint64(wr, uint64(len(w.Votes))); err != nil {
		return err
	}
	for i := range w.Votes {
		m := &w.Votes[i]
		if err := fb.PutUint64(wr, m.Slot); err != nil {
			return err
		}
		if _, err := wr.Write(m.Validator[:]); err != nil {
			return err
		}
		if err := m.Vote.Encode(wr); err != nil {
			return fmt.Errorf("vote %d: %w", i, err)
		}
		if _, err := wr.Write(m.Signature[:]); err != nil {
			return err
		}
	}

	if err := fb.PutUint64(wr, uint64(len(w.TowerSyncs))); err != nil {
		return err
	}
	for i := range w.TowerSyncs {
		m := &w.TowerSyncs[i]
		if err := fb.PutUint64(wr, m.Slot); err != nil {
			return err
		}
		if _, err := wr.Write(m.Validator[:]); err != nil {
			return err
		}
		if err := m.Tower.Encode(wr); err != nil {
			return fmt.Errorf("tower sync %d: %w", i, err)
		}
		if _, err := wr.Write(m.Signature[:]); err != nil {
			return err
		}
	}
	return nil
}

// Bytes returns the serialized window.
func (w *Window) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := w.Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Deserialize reads a window written by Serialize. Counts above the
// window limits are rejected before anything is allocated for them.
func (w *Window) Deserialize(r io.Reader) (err error) {
	fb := common.NewFreeBytes()
	defer fb.Free()

	var magic [4]byte
	if _, err = io.ReadFull(r, magic[:]); err != nil {
		return err
	}
	if magic != windowMagic {
		return fmt.Errorf("%w: magic %x", ErrBadMagic, magic)
	}
	if w.FirstSlot, err = fb.Uint64(r); err != nil {
		return err
	}
	if w.LastSlot, err = fb.Uint64(r); err != nil {
		return err
	}

	n, err := fb.Length(r, MaxWindowSlots)
	if err != nil {
		return fmt.Errorf("slot count: %w", err)
	}
	w.Slots = make([]SlotData, n)
	for i := range w.Slots {
		s := &w.Slots[i]
		if s.Slot, err = fb.Uint64(r); err != nil {
			return fmt.Errorf("slot record %d: %w", i, err)
		}
		if _, err = io.ReadFull(r, s.ParentBankHash[:]); err != nil {
			return fmt.Errorf("slot record %d: %w", i, err)
		}
		if _, err = io.ReadFull(r, s.AccountDeltaRoot[:]); err != nil {
			return fmt.Errorf("slot record %d: %w", i, err)
		}
		if s.NumSignatures, err = fb.Uint64(r); err != nil {
			return fmt.Errorf("slot record %d: %w", i, err)
		}
		if _, err = io.ReadFull(r, s.Blockhash[:]); err != nil {
			return fmt.Errorf("slot record %d: %w", i, err)
		}
		if _, err = io.ReadFull(r, s.BankHash[:]); err != nil {
			return fmt.Errorf("slot record %d: %w", i, err)
		}
	}

	if n, err = fb.Length(r, MaxWindowProofs); err != nil {
		return fmt.Errorf("proof count: %w", err)
	}
	w.Proofs = make([]AccountDeltaProof, n)
	for i := range w.Proofs {
		p := &w.Proofs[i]
		if p.Slot, err = fb.Uint64(r); err != nil {
			return fmt.Errorf("proof %d: %w", i, err)
		}
		if err = p.Account.Deserialize(r); err != nil {
			return fmt.Errorf("proof %d: %w", i, err)
		}
		if err = p.Path.Deserialize(r); err != nil {
			return fmt.Errorf("proof %d: %w", i, err)
		}
	}

	if n, err = fb.Length(r, MaxWindowMessages); err != nil {
		return fmt.Errorf("vote count: %w", err)
	}
	w.Votes = make([]VoteMessage, n)
	for i := range w.Votes {
		m := &w.Votes[i]
		if m.Slot, err = fb.Uint64(r); err != nil {
			return fmt.Errorf("vote %d: %w", i, err)
		}
		if _, err = io.ReadFull(r, m.Validator[:]); err != nil {
			return fmt.Errorf("vote %d: %w", i, err)
		}
		if err = m.Vote.Decode(r); err != nil {
			return fmt.Errorf("vote %d: %w", i, err)
		}
		if _, err = io.ReadFull(r, m.Signature[:]); err != nil {
			return fmt.Errorf("vote %d: %w", i, err)
		}
	}

	if n, err = fb.Length(r, uint64(MaxWindowMessages-len(w.Votes))); err != nil {
		return fmt.Errorf("tower sync count: %w", err)
	}
	w.TowerSyncs = make([]TowerSyncMessage, n)
	for i := range w.TowerSyncs {
		m := &w.TowerSyncs[i]
		if m.Slot, err = fb.Uint64(r); err != nil {
			return fmt.Errorf("tower sync %d: %w", i, err)
		}
		if _, err = io.ReadFull(r, m.Validator[:]); err != nil {
			return fmt.Errorf("tower sync %d: %w", i, err)
		}
		if err = m.Tower.Decode(r); err != nil {
			return fmt.Errorf("tower sync %d: %w", i, err)
		}
		if _, err = io.ReadFull(r, m.Signature[:]); err != nil {
			return fmt.Errorf("tower sync %d: %w", i, err)
		}
	}
	return nil
}

// WindowFromBytes decodes a whole serialized window. Bytes left over after
// the window are an error.
func WindowFromBytes(b []byte) (*Window, error) {
	r := bytes.NewReader(b)
	w := new(Window)
	if err := w.Deserialize(r); err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d", ErrTrailingBytes, r.Len())
	}
	return w, nil
}

// Serialize writes the verdict for the verdict archive:
//
//	u8 kind (0 for valid) || u64 slot || 32B pubkey || u8 message || u64 len || detail
func (v Verdict) Serialize(w io.Writer) error {
	fb := common.NewFreeBytes()
	defer fb.Free()

	if v.Violation == nil {
		return fb.PutUint8(w, 0)
	}
	vi := v.Violation
	detail := vi.Detail
	if len(detail) > MaxDetailLen {
		detail = detail[:MaxDetailLen]
	}
	if err := fb.PutUint8(w, uint8(vi.Kind)); err != nil {
		return err
	}
	if err := fb.PutUint64(w, vi.Slot); err != nil {
		return err
	}
	if _, err := w.Write(vi.Pubkey[:]); err != nil {
		return err
	}
	if err := fb.PutUint8(w, uint8(vi.Message)); err != nil {
		return err
	}
	if err := fb.PutUint64(w, uint64(len(detail))); err != nil {
		return err
	}
	_, err := io.WriteString(w, detail)
	return err
}

// Deserialize reads a verdict written by Serialize.
func (v *Verdict) Deserialize(r io.Reader) error {
	fb := common.NewFreeBytes()
	defer fb.Free()

	kind, err := fb.Uint8(r)
	if err != nil {
		return err
	}
	if kind == 0 {
		v.Violation = nil
		return nil
	}
	vi := &Violation{Kind: ViolationKind(kind)}
	if _, ok := kindInfo[vi.Kind]; !ok {
		return fmt.Errorf("%w: %d", ErrVerdictKind, kind)
	}
	if vi.Slot, err = fb.Uint64(r); err != nil {
		return err
	}
	if _, err = io.ReadFull(r, vi.Pubkey[:]); err != nil {
		return err
	}
	msg, err := fb.Uint8(r)
	if err != nil {
		return err
	}
	if msg > uint8(MessageTowerSync) {
		return fmt.Errorf("%w: %d", ErrVerdictMessage, msg)
	}
	vi.Message = MessageKind(msg)
	n, err := fb.Length(r, MaxDetailLen)
	if err != nil {
		return fmt.Errorf("verdict detail: %w", err)
	}
	detail := make([]byte, n)
	if _, err = io.ReadFull(r, detail); err != nil {
		return err
	}
	vi.Detail = string(detail)
	v.Violation = vi
	return nil
}
