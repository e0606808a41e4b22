package consensus

// CheckCompleteness makes sure the window delivers exactly one record for
// every slot in [FirstSlot, LastSlot] and nothing else. Records outside the
// range are reported first as UnknownSlot, lowest slot first. Then the
// range is walked in ascending order and the first slot delivered twice
// (DuplicateSlot) or not at all (MissingSlot) is reported.
//
// CheckStructure bounds the range, so the walk is bounded too.
func CheckCompleteness(w *Window) *Violation {
	sorted := w.sortedSlots()

	counts := make(map[uint64]int, len(sorted))
	for _, s := range sorted {
		if !w.Contains(s.Slot) {
			return unknownSlot(s.Slot)
		}
		counts[s.Slot]++
	}

	for slot := w.FirstSlot; ; slot++ {
		switch counts[slot] {
		case 0:
			return missingSlot(slot)
		case 1:
		default:
			return duplicateSlot(slot)
		}
		// LastSlot may be the largest uint64, so stop before incrementing
		// past it.
		if slot == w.LastSlot {
			break
		}
	}
	return nil
}
