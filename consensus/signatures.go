package consensus

import (
	"context"
)

// signedItem flattens votes and tower syncs into one list: votes first,
// then tower syncs, each in input order.
type signedItem struct {
	slot      uint64
	validator []byte
	msg       []byte
	sig       []byte
	kind      MessageKind
}

func (w *Window) signedItem(i int) signedItem {
	if i < len(w.Votes) {
		m := &w.Votes[i]
		return signedItem{slot: m.Slot, validator: m.Validator[:],
			msg: m.Vote.SignBytes(), sig: m.Signature[:], kind: MessageVote}
	}
	m := &w.TowerSyncs[i-len(w.Votes)]
	// CheckStructure already ran Sanity, the only way this can fail; a
	// nil message simply won't verify.
	msg, _ := m.Tower.SignBytes()
	return signedItem{slot: m.Slot, validator: m.Validator[:],
		msg: msg, sig: m.Signature[:], kind: MessageTowerSync}
}

// verifySigned checks one item, consulting the cache first when there is
// one.
func verifySigned(it signedItem, cache *SigCache, m *Metrics) bool {
	if cache != nil && cache.Exists(it.validator, it.msg, it.sig) {
		m.sigCacheHit()
		return true
	}
	if !VerifyEd25519(it.validator, it.msg, it.sig) {
		return false
	}
	if cache != nil {
		cache.Add(it.validator, it.msg, it.sig)
	}
	return true
}

func checkSignature(w *Window, cache *SigCache, m *Metrics, i int) *Violation {
	it := w.signedItem(i)
	if !verifySigned(it, cache, m) {
		var pk [32]byte
		copy(pk[:], it.validator)
		log.Debugf("%s from %x for slot %d does not verify", it.kind,
			pk[:4], it.slot)
		return badSignature(it.slot, pk, it.kind)
	}
	return nil
}

// CheckSignatures verifies the signature of every vote and tower sync in
// the window. Any bad signature fails the window; there is no quorum
// policy here (see Tally). cache may be nil. The violation of the first
// failing message (votes before tower syncs) is returned. The error is
// only ever ctx's.
func CheckSignatures(ctx context.Context, w *Window, cache *SigCache,
	workers int) (*Violation, error) {

	return checkSignatures(ctx, w, cache, nil, workers)
}

func checkSignatures(ctx context.Context, w *Window, cache *SigCache,
	m *Metrics, workers int) (*Violation, error) {

	n := len(w.Votes) + len(w.TowerSyncs)
	return runBatch(ctx, n, workers, func(i int) *Violation {
		return checkSignature(w, cache, m, i)
	})
}
