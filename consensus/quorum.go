package consensus

import (
	"bytes"
	"math"
	"math/bits"
	"sort"

	"github.com/twine-labs/solproof/accumulator"
	"github.com/twine-labs/solproof/solacc"
)

// Tally records, per validator, the highest slot of the window it
// verifiably voted for. Verify does not apply any quorum policy; callers
// that want one (such as 2/3 of stake) use a Tally.
type Tally struct {
	highest map[solacc.Pubkey]uint64
}

// TallyVotes reduces the votes and tower syncs of a window into a Tally. A
// message counts when its signature verifies and the hash it votes for is
// the bank hash of its last voted slot, which must be a record of the
// window. A validator that votes several times counts once, at its highest
// slot. cache may be nil.
//
// The window should have passed Verify; TallyVotes checks nothing else.
func TallyVotes(w *Window, cache *SigCache) *Tally {
	t := &Tally{highest: make(map[solacc.Pubkey]uint64)}
	idx := w.slotIndex()

	for i := 0; i < len(w.Votes)+len(w.TowerSyncs); i++ {
		var (
			slot uint64
			ok   bool
			hash accumulator.Hash
		)
		if i < len(w.Votes) {
			v := &w.Votes[i].Vote
			slot, ok = v.LastSlot()
			hash = v.Hash
		} else {
			ts := &w.TowerSyncs[i-len(w.Votes)].Tower
			slot, ok = ts.LastSlot()
			hash = ts.Hash
		}
		if !ok {
			continue
		}
		rec, found := idx[slot]
		if !found || rec.BankHash != hash {
			continue
		}

		it := w.signedItem(i)
		if !verifySigned(it, cache, nil) {
			continue
		}
		var pk solacc.Pubkey
		copy(pk[:], it.validator)
		if prev, seen := t.highest[pk]; !seen || slot > prev {
			t.highest[pk] = slot
		}
	}
	return t
}

// Voters returns the validators that voted for slot or a later slot of
// the window, ordered by key.
func (t *Tally) Voters(slot uint64) []solacc.Pubkey {
	var out []solacc.Pubkey
	for pk, highest := range t.highest {
		if highest >= slot {
			out = append(out, pk)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}

// Stake sums the stake of the validators that voted for slot or later.
// Validators missing from stakes have none. A sum past math.MaxUint64 is
// reported as math.MaxUint64; Reached works on the exact sum.
func (t *Tally) Stake(slot uint64, stakes map[solacc.Pubkey]uint64) uint64 {
	hi, lo := t.stake(slot, stakes)
	if hi != 0 {
		return math.MaxUint64
	}
	return lo
}

// stake is the exact 128 bit stake voting for slot or later.
func (t *Tally) stake(slot uint64,
	stakes map[solacc.Pubkey]uint64) (hi, lo uint64) {

	for pk, highest := range t.highest {
		if highest >= slot {
			hi, lo = add128(hi, lo, stakes[pk])
		}
	}
	return hi, lo
}

// Reached reports whether the stake voting for slot is strictly more than
// num/den of the total stake in stakes. Sums are kept in 128 bits and the
// products in 192, so nothing overflows. A zero den never reaches.
func (t *Tally) Reached(slot uint64, stakes map[solacc.Pubkey]uint64,
	num, den uint64) bool {

	if den == 0 {
		return false
	}
	var totalHi, totalLo uint64
	for _, s := range stakes {
		totalHi, totalLo = add128(totalHi, totalLo, s)
	}
	votedHi, votedLo := t.stake(slot, stakes)

	// voted*den > total*num
	l2, l1, l0 := mul128by64(votedHi, votedLo, den)
	r2, r1, r0 := mul128by64(totalHi, totalLo, num)
	if l2 != r2 {
		return l2 > r2
	}
	if l1 != r1 {
		return l1 > r1
	}
	return l0 > r0
}

// add128 adds n to the 128 bit hi:lo. Stake sums over at most 2^64 keys
// cannot carry out of hi.
func add128(hi, lo, n uint64) (uint64, uint64) {
	lo, carry := bits.Add64(lo, n, 0)
	return hi + carry, lo
}

// mul128by64 returns the 192 bit product of hi:lo and n, high word first.
func mul128by64(hi, lo, n uint64) (w2, w1, w0 uint64) {
	pHi, w0 := bits.Mul64(lo, n)
	cHi, cLo := bits.Mul64(hi, n)
	w1, carry := bits.Add64(pHi, cLo, 0)
	// cHi <= 2^64-2, so this cannot wrap
	w2 = cHi + carry
	return w2, w1, w0
}
