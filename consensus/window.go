package consensus

import (
	"sort"

	"github.com/twine-labs/solproof/accumulator"
	"github.com/twine-labs/solproof/solacc"
	"github.com/twine-labs/solproof/wire"
)

// SignatureSize is the size of an ed25519 signature.
const SignatureSize = 64

// Signature is an ed25519 signature.
type Signature [SignatureSize]byte

// SlotData is the committed bank state of one slot.
type SlotData struct {
	Slot             uint64
	ParentBankHash   accumulator.Hash
	AccountDeltaRoot accumulator.Hash
	NumSignatures    uint64
	Blockhash        accumulator.Hash
	BankHash         accumulator.Hash
}

// ComputeBankHash derives the bank hash from the slot's own fields.
func (s *SlotData) ComputeBankHash() accumulator.Hash {
	return RecomputeBankHash(s.ParentBankHash, s.AccountDeltaRoot,
		s.NumSignatures, s.Blockhash)
}

// AccountDeltaProof proves an account into the account-delta root of Slot.
type AccountDeltaProof struct {
	Slot    uint64
	Account solacc.Account
	Path    accumulator.MerklePath
}

// VoteMessage is a signed Vote from Validator, attesting to Slot.
type VoteMessage struct {
	Slot      uint64
	Validator solacc.Pubkey
	Vote      wire.Vote
	Signature Signature
}

// TowerSyncMessage is a signed TowerSync from Validator, attesting to Slot.
type TowerSyncMessage struct {
	Slot      uint64
	Validator solacc.Pubkey
	Tower     wire.TowerSync
	Signature Signature
}

// Window is everything the collector gathered for the slot range
// [FirstSlot, LastSlot]. The verifier never modifies a Window.
type Window struct {
	FirstSlot  uint64
	LastSlot   uint64
	Slots      []SlotData
	Proofs     []AccountDeltaProof
	Votes      []VoteMessage
	TowerSyncs []TowerSyncMessage
}

// Contains says whether slot is within the window's bounds.
func (w *Window) Contains(slot uint64) bool {
	return slot >= w.FirstSlot && slot <= w.LastSlot
}

// slotIndex maps slot numbers to their records. With duplicates the first
// record wins; completeness reports the duplicate.
func (w *Window) slotIndex() map[uint64]*SlotData {
	idx := make(map[uint64]*SlotData, len(w.Slots))
	for i := range w.Slots {
		s := &w.Slots[i]
		if _, ok := idx[s.Slot]; !ok {
			idx[s.Slot] = s
		}
	}
	return idx
}

// sortedSlots returns a copy of the slot records ordered by slot number.
// Equal slots keep their input order.
func (w *Window) sortedSlots() []SlotData {
	out := make([]SlotData, len(w.Slots))
	copy(out, w.Slots)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Slot < out[j].Slot
	})
	return out
}
