package consensus

// Limits on what a single window may carry. They keep every loop in the
// verifier bounded no matter what the collector hands over.
const (
	MaxWindowSlots    = 1 << 16
	MaxWindowProofs   = 1 << 16
	MaxWindowMessages = 1 << 18
)

// CheckStructure looks for data that is malformed regardless of any hash
// or signature: bad bounds, oversize collections, merkle steps with a side
// that is neither left nor right, oversize account data, deleted accounts
// that still carry state, empty votes and
// towers that cannot be put in canonical form. It runs before every
// semantic check.
func CheckStructure(w *Window) *Violation {
	if w == nil {
		return malformed("nil window")
	}
	if w.FirstSlot > w.LastSlot {
		return malformed("first slot %d after last slot %d",
			w.FirstSlot, w.LastSlot)
	}
	if w.LastSlot-w.FirstSlot >= MaxWindowSlots {
		return malformed("window [%d, %d] longer than %d slots",
			w.FirstSlot, w.LastSlot, MaxWindowSlots)
	}
	if len(w.Slots) > MaxWindowSlots {
		return malformed("%d slot records, max %d", len(w.Slots), MaxWindowSlots)
	}
	if len(w.Proofs) > MaxWindowProofs {
		return malformed("%d proofs, max %d", len(w.Proofs), MaxWindowProofs)
	}
	if len(w.Votes)+len(w.TowerSyncs) > MaxWindowMessages {
		return malformed("%d messages, max %d",
			len(w.Votes)+len(w.TowerSyncs), MaxWindowMessages)
	}

	for i := range w.Proofs {
		p := &w.Proofs[i]
		if err := p.Path.Sanity(); err != nil {
			return malformed("proof %d for %s: %v", i, p.Account.Pubkey, err)
		}
		if err := p.Account.Sanity(); err != nil {
			return malformed("proof %d for %s: %v", i, p.Account.Pubkey, err)
		}
	}
	for i := range w.Votes {
		if err := w.Votes[i].Vote.Sanity(); err != nil {
			return malformed("vote %d from %s: %v", i, w.Votes[i].Validator, err)
		}
	}
	for i := range w.TowerSyncs {
		if err := w.TowerSyncs[i].Tower.Sanity(); err != nil {
			return malformed("tower sync %d from %s: %v", i,
				w.TowerSyncs[i].Validator, err)
		}
	}
	return nil
}
