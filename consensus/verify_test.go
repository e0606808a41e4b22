package consensus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/twine-labs/solproof/accumulator"
	"github.com/twine-labs/solproof/solacc"
	"github.com/twine-labs/solproof/wire"
)

func TestVerifyThreeSlotWindow(t *testing.T) {
	f := newFixture(t, 100, 3, fixtureOpts{})
	v := Verify(f.window, testAnchor)
	require.True(t, v.Valid(), "verdict %s", v)
	require.Equal(t, "Valid", v.String())
	require.NoError(t, v.Err())
}

func TestVerifyLastSlotBlockhash(t *testing.T) {
	f := newFixture(t, 100, 3, fixtureOpts{})
	f.slot(102).Blockhash[0] ^= 0xff
	v := Verify(f.window, testAnchor)
	requireViolation(t, v, ChainBreak, 102)
	require.True(t, errors.Is(v.Err(), ErrChainBreak))
}

func TestVerifyParentMutation(t *testing.T) {
	for k := uint64(100); k < 105; k++ {
		f := newFixture(t, 100, 5, fixtureOpts{})
		f.slot(k).ParentBankHash[31] ^= 1
		requireViolation(t, Verify(f.window, testAnchor), ChainBreak, k)
	}
}

func TestVerifyWrongAnchor(t *testing.T) {
	f := newFixture(t, 100, 3, fixtureOpts{})
	requireViolation(t, Verify(f.window, testHash("other", 0)), ChainBreak, 100)
}

func TestVerifySlotZero(t *testing.T) {
	f := newFixture(t, 0, 4, fixtureOpts{})
	v := Verify(f.window, testAnchor)
	require.True(t, v.Valid(), "verdict %s", v)
}

func TestVerifyPerturbedSibling(t *testing.T) {
	f := newFixture(t, 100, 3, fixtureOpts{})
	for i := range f.window.Proofs {
		p := &f.window.Proofs[i]
		require.NotEmpty(t, p.Path)

		p.Path[0].Sibling[5] ^= 0x10
		v := Verify(f.window, testAnchor)
		requireViolation(t, v, MerkleMismatch, p.Slot)
		require.Equal(t, p.Account.Pubkey, v.Violation.Pubkey)
		p.Path[0].Sibling[5] ^= 0x10
	}
	require.True(t, Verify(f.window, testAnchor).Valid())
}

func TestVerifyAccountTampered(t *testing.T) {
	f := newFixture(t, 100, 3, fixtureOpts{})
	f.window.Proofs[4].Account.Lamports++
	v := Verify(f.window, testAnchor)
	requireViolation(t, v, MerkleMismatch, f.window.Proofs[4].Slot)
}

func TestVerifyProofOutsideWindow(t *testing.T) {
	f := newFixture(t, 100, 3, fixtureOpts{})
	f.window.Proofs[2].Slot = 500
	requireViolation(t, Verify(f.window, testAnchor), UnknownSlot, 500)
}

func TestVerifyFlippedSignature(t *testing.T) {
	f := newFixture(t, 100, 3, fixtureOpts{})
	f.window.Votes[1].Signature[10] ^= 0x01
	v := Verify(f.window, testAnchor)
	require.Equal(t, BadSignature, v.Violation.Kind)
	require.Equal(t, f.window.Votes[1].Validator, v.Violation.Pubkey)
	require.Equal(t, MessageVote, v.Violation.Message)

	f = newFixture(t, 100, 3, fixtureOpts{})
	f.window.TowerSyncs[0].Signature[63] ^= 0x80
	v = Verify(f.window, testAnchor)
	require.Equal(t, BadSignature, v.Violation.Kind)
	require.Equal(t, MessageTowerSync, v.Violation.Message)
}

func TestVerifySignedPayloadChanged(t *testing.T) {
	f := newFixture(t, 100, 3, fixtureOpts{})
	f.window.Votes[0].Vote.Slots = []uint64{101}
	v := Verify(f.window, testAnchor)
	require.Equal(t, BadSignature, v.Violation.Kind)

	// re-signed by the right key it passes again
	f.sign()
	require.True(t, Verify(f.window, testAnchor).Valid())
}

func TestVerifyForeignSigner(t *testing.T) {
	f := newFixture(t, 100, 3, fixtureOpts{})
	f.keys = append(f.keys, testKey(9))
	f.window.Votes[2].Validator = pubkeyOf(testKey(9))
	f.sign()
	require.True(t, Verify(f.window, testAnchor).Valid())

	// claiming to be validator 1 while signed by 9
	f.window.Votes[2].Validator = pubkeyOf(f.keys[0])
	v := Verify(f.window, testAnchor)
	require.Equal(t, BadSignature, v.Violation.Kind)
	require.Equal(t, pubkeyOf(f.keys[0]), v.Violation.Pubkey)
}

func TestVerifyMissingSlot(t *testing.T) {
	f := newFixture(t, 100, 5, fixtureOpts{})
	for k := uint64(101); k < 104; k++ {
		g := newFixture(t, 100, 5, fixtureOpts{})
		g.removeSlot(k)
		requireViolation(t, Verify(g.window, testAnchor), MissingSlot, k)
	}

	// first and last slot too
	f.removeSlot(100)
	requireViolation(t, Verify(f.window, testAnchor), MissingSlot, 100)
	f = newFixture(t, 100, 5, fixtureOpts{})
	f.removeSlot(104)
	requireViolation(t, Verify(f.window, testAnchor), MissingSlot, 104)
}

func TestVerifyDuplicateSlot(t *testing.T) {
	f := newFixture(t, 100, 3, fixtureOpts{})
	f.window.Slots = append(f.window.Slots, *f.slot(101))
	requireViolation(t, Verify(f.window, testAnchor), DuplicateSlot, 101)
}

func TestVerifySlotOutsideWindow(t *testing.T) {
	f := newFixture(t, 100, 3, fixtureOpts{})
	extra := SlotData{Slot: 200, ParentBankHash: testHash("x", 1)}
	extra.BankHash = extra.ComputeBankHash()
	f.window.Slots = append([]SlotData{extra}, f.window.Slots...)
	requireViolation(t, Verify(f.window, testAnchor), UnknownSlot, 200)
}

func TestVerifyUnorderedSlots(t *testing.T) {
	f := newFixture(t, 100, 4, fixtureOpts{})
	s := f.window.Slots
	s[0], s[3] = s[3], s[0]
	s[1], s[2] = s[2], s[1]
	require.True(t, Verify(f.window, testAnchor).Valid())
}

func TestVerifyNoDeposit(t *testing.T) {
	f := newFixture(t, 100, 3, fixtureOpts{noDeposit: true})
	v := Verify(f.window, testAnchor)
	require.Equal(t, NoDepositFound, v.Violation.Kind)
	require.Equal(t, "Invalid(NoDepositFound)", v.String())
}

func TestVerifyBridgeProgram(t *testing.T) {
	f := newFixture(t, 100, 3, fixtureOpts{})
	ctx := context.Background()

	program := testBridgeProgram
	v, err := New(Config{BridgeProgram: &program}).Verify(ctx, f.window, testAnchor)
	require.NoError(t, err)
	require.True(t, v.Valid())

	other := solacc.Pubkey(testHash("other program", 0))
	v, err = New(Config{BridgeProgram: &other}).Verify(ctx, f.window, testAnchor)
	require.NoError(t, err)
	require.Equal(t, NoDepositFound, v.Violation.Kind)
}

func TestVerifyIdempotent(t *testing.T) {
	f := newFixture(t, 100, 3, fixtureOpts{})
	f.window.Votes[0].Signature[0] ^= 1
	before, err := f.window.Bytes()
	require.NoError(t, err)

	v1 := Verify(f.window, testAnchor)
	v2 := Verify(f.window, testAnchor)
	require.Equal(t, v1, v2)

	after, err := f.window.Bytes()
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestVerifyProofBeforeSignature(t *testing.T) {
	f := newFixture(t, 100, 3, fixtureOpts{})
	f.window.Votes[0].Signature[0] ^= 1
	f.window.TowerSyncs[0].Signature[0] ^= 1
	f.window.Proofs[7].Path[0].Sibling[0] ^= 1
	f.window.Proofs[3].Path[0].Sibling[0] ^= 1

	for _, workers := range []int{1, 2, 16} {
		v, err := New(Config{Workers: workers}).Verify(context.Background(),
			f.window, testAnchor)
		require.NoError(t, err)
		require.Equal(t, MerkleMismatch, v.Violation.Kind)
		require.Equal(t, f.window.Proofs[3].Account.Pubkey, v.Violation.Pubkey)
	}
}

func TestVerifyLowestSignatureIndex(t *testing.T) {
	f := newFixture(t, 100, 3, fixtureOpts{})
	f.window.TowerSyncs[0].Signature[0] ^= 1
	f.window.Votes[2].Signature[0] ^= 1
	f.window.Votes[1].Signature[0] ^= 1

	for _, workers := range []int{1, 3, 8} {
		v, err := New(Config{Workers: workers}).Verify(context.Background(),
			f.window, testAnchor)
		require.NoError(t, err)
		require.Equal(t, BadSignature, v.Violation.Kind)
		require.Equal(t, f.window.Votes[1].Validator, v.Violation.Pubkey)
		require.Equal(t, MessageVote, v.Violation.Message)
	}
}

func TestVerifyMalformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(w *Window)
	}{
		{"first after last", func(w *Window) { w.FirstSlot = w.LastSlot + 1 }},
		{"bad side", func(w *Window) { w.Proofs[0].Path[0].Side = 7 }},
		{"deep path", func(w *Window) {
			w.Proofs[0].Path = make(accumulator.MerklePath, accumulator.MaxPathDepth+1)
		}},
		{"empty vote", func(w *Window) { w.Votes[0].Vote.Slots = nil }},
		{"deep tower", func(w *Window) {
			l := make([]wire.Lockout, wire.MaxLockoutHistory+1)
			for i := range l {
				l[i].Slot = uint64(i)
			}
			w.TowerSyncs[0].Tower.Lockouts = l
		}},
		{"huge data", func(w *Window) {
			w.Proofs[1].Account.Data = make([]byte, solacc.MaxAccountDataLen+1)
		}},
		{"window too long", func(w *Window) { w.LastSlot = w.FirstSlot + MaxWindowSlots }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 100, 3, fixtureOpts{})
			tt.mutate(f.window)
			v := Verify(f.window, testAnchor)
			require.Equal(t, MalformedInput, v.Violation.Kind, "verdict %s", v)
			require.NotEmpty(t, v.Violation.Detail)
			require.True(t, errors.Is(v.Err(), ErrMalformedInput))
		})
	}

	require.Equal(t, MalformedInput, Verify(nil, testAnchor).Violation.Kind)
}

func TestVerifyCancelled(t *testing.T) {
	f := newFixture(t, 100, 3, fixtureOpts{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Config{}).Verify(ctx, f.window, testAnchor)
	require.ErrorIs(t, err, context.Canceled)
}

func TestViolationStrings(t *testing.T) {
	pk := solacc.Pubkey{}
	require.Equal(t, "ChainBreak(102)", chainBreak(102, "").Error())
	require.Equal(t, "MissingSlot(7)", missingSlot(7).Error())
	require.Equal(t, "MerkleMismatch(5, 11111111111111111111111111111111)",
		merkleMismatch(5, pk).Error())
	require.Equal(t, "BadSignature(11111111111111111111111111111111, tower-sync)",
		badSignature(5, pk, MessageTowerSync).Error())
	require.Equal(t, "MalformedInput: nil window", malformed("nil window").Error())
	require.Equal(t, "ViolationKind(99)", ViolationKind(99).String())
}
