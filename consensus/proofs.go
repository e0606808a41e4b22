package consensus

import (
	"context"
)

// checkProof verifies proof i of the window against the slot index.
func checkProof(w *Window, idx map[uint64]*SlotData, i int) *Violation {
	p := &w.Proofs[i]
	if !w.Contains(p.Slot) {
		return unknownSlot(p.Slot)
	}
	slot, ok := idx[p.Slot]
	if !ok {
		// in range but never delivered: that's a MissingSlot, which
		// completeness reports
		return nil
	}
	leaf := p.Account.LeafHash()
	if !p.Path.Verify(leaf, slot.AccountDeltaRoot) {
		log.Debugf("proof %d: %s in slot %d folds to %s, root is %s", i,
			p.Account.Pubkey, p.Slot, p.Path.Root(leaf), slot.AccountDeltaRoot)
		return merkleMismatch(p.Slot, p.Account.Pubkey)
	}
	return nil
}

// CheckProofs verifies every account-delta proof of the window against its
// slot's account-delta root using up to workers goroutines (0 means pick
// from the cpu count). The violation of the lowest failing proof index is
// returned. The error is only ever ctx's.
func CheckProofs(ctx context.Context, w *Window, workers int) (*Violation, error) {
	idx := w.slotIndex()
	return runBatch(ctx, len(w.Proofs), workers, func(i int) *Violation {
		return checkProof(w, idx, i)
	})
}
