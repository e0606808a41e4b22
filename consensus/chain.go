package consensus

import (
	"github.com/twine-labs/solproof/accumulator"
)

// CheckChain walks the slot records in slot order and checks that every
// bank hash is derived from its own fields and that every slot's parent
// bank hash is its predecessor's bank hash. The slot just before the
// window is represented by the trusted anchor hash.
//
// Records outside the window are ignored here; completeness reports them.
// Only records whose slot directly follows the previous record are linked.
// Gaps and duplicates skip the link check; completeness reports them.
//
// Because each record's own bank hash is recomputed, tampering with the
// last slot of a window is caught at that slot even though no successor
// links to it.
func CheckChain(w *Window, anchor accumulator.Hash) *Violation {
	prevSlot := w.FirstSlot - 1 // wraps for slot 0, which still links
	prevHash := anchor

	for _, s := range w.sortedSlots() {
		if !w.Contains(s.Slot) {
			// UnknownSlot, reported by completeness
			continue
		}
		if s.Slot == prevSlot+1 && s.ParentBankHash != prevHash {
			log.Debugf("slot %d parent %s, previous bank hash %s",
				s.Slot, s.ParentBankHash, prevHash)
			return chainBreak(s.Slot, "parent bank hash %s does not match %s",
				s.ParentBankHash, prevHash)
		}
		if got := s.ComputeBankHash(); got != s.BankHash {
			log.Debugf("slot %d claims bank hash %s, fields give %s",
				s.Slot, s.BankHash, got)
			return chainBreak(s.Slot, "bank hash %s does not match fields (%s)",
				s.BankHash, got)
		}
		// the first record of a duplicated slot is the one successors
		// link to
		if s.Slot != prevSlot {
			prevSlot, prevHash = s.Slot, s.BankHash
		}
	}
	return nil
}
