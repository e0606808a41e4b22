package consensus

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/twine-labs/solproof/accumulator"
	"github.com/twine-labs/solproof/solacc"
	"github.com/twine-labs/solproof/wire"
)

var (
	testAnchor        = accumulator.Hash(sha256.Sum256([]byte("anchor")))
	testBridgeProgram = solacc.Pubkey(sha256.Sum256([]byte("bridge program")))
)

// testKey derives a validator key from a one byte seed.
func testKey(seed byte) ed25519.PrivateKey {
	return ed25519.NewKeyFromSeed(bytes.Repeat([]byte{seed}, ed25519.SeedSize))
}

func pubkeyOf(k ed25519.PrivateKey) (pk solacc.Pubkey) {
	copy(pk[:], k.Public().(ed25519.PublicKey))
	return
}

func testHash(tag string, n uint64) accumulator.Hash {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], n)
	return sha256.Sum256(append([]byte(tag), b[:]...))
}

type fixtureOpts struct {
	noDeposit bool

	// accounts, when set, may change a slot's accounts before they are
	// hashed into its tree.
	accounts func(slot uint64, accounts []solacc.Account)
}

// fixture is a window that verifies, plus what built it so tests can
// break it in specific ways and re-sign.
type fixture struct {
	t      *testing.T
	window *Window
	keys   []ed25519.PrivateKey
}

// newFixture builds a valid window over [first, first+n-1] chained to
// testAnchor. Every slot has three accounts and a proof for each; the
// first slot's first account holds a deposit owned by testBridgeProgram.
// Three validators vote for the last slot and the first one also sends a
// tower sync over every slot.
func newFixture(t *testing.T, first, n uint64, opts fixtureOpts) *fixture {
	t.Helper()
	f := &fixture{
		t:      t,
		window: &Window{FirstSlot: first, LastSlot: first + n - 1},
		keys:   []ed25519.PrivateKey{testKey(1), testKey(2), testKey(3)},
	}

	parent := testAnchor
	for slot := first; slot < first+n; slot++ {
		accounts := make([]solacc.Account, 3)
		for i := range accounts {
			accounts[i] = solacc.Account{
				Pubkey:    solacc.Pubkey(testHash("account", slot*10+uint64(i))),
				Owner:     solacc.Pubkey(testHash("owner", uint64(i))),
				Lamports:  1000 + uint64(i),
				RentEpoch: 300,
				Data:      []byte{byte(slot), byte(i)},
			}
		}
		if slot == first && !opts.noDeposit {
			d := solacc.DepositMessage{
				Nonce:     7,
				ChainID:   1,
				Depositor: solacc.Pubkey(testHash("depositor", 0)),
				Mint:      solacc.Pubkey(testHash("mint", 0)),
				Recipient: ethcommon.HexToAddress("0x00000000000000000000000000000000deadbeef"),
				Amount:    5_000_000,
			}
			accounts[0].Owner = testBridgeProgram
			accounts[0].Data = d.Encode()
		}
		if opts.accounts != nil {
			opts.accounts(slot, accounts)
		}

		leaves := make([]accumulator.Hash, len(accounts))
		for i := range accounts {
			leaves[i] = accounts[i].LeafHash()
		}
		tree, err := accumulator.BuildTree(leaves)
		require.NoError(t, err)
		for i := range accounts {
			path, err := tree.Prove(i)
			require.NoError(t, err)
			f.window.Proofs = append(f.window.Proofs, AccountDeltaProof{
				Slot: slot, Account: accounts[i], Path: path,
			})
		}

		sd := SlotData{
			Slot:             slot,
			ParentBankHash:   parent,
			AccountDeltaRoot: tree.Root(),
			NumSignatures:    2 + slot%3,
			Blockhash:        testHash("blockhash", slot),
		}
		sd.BankHash = sd.ComputeBankHash()
		f.window.Slots = append(f.window.Slots, sd)
		parent = sd.BankHash
	}

	last := f.window.LastSlot
	for _, k := range f.keys {
		ts := int64(1700000000)
		f.window.Votes = append(f.window.Votes, VoteMessage{
			Slot:      last,
			Validator: pubkeyOf(k),
			Vote: wire.Vote{
				Slots:     []uint64{last},
				Hash:      parent,
				Timestamp: &ts,
			},
		})
	}
	var lockouts []wire.Lockout
	for slot := first; slot < first+n; slot++ {
		lockouts = append(lockouts, wire.Lockout{
			Slot: slot, ConfirmationCount: uint32(first + n - slot),
		})
	}
	f.window.TowerSyncs = append(f.window.TowerSyncs, TowerSyncMessage{
		Slot:      last,
		Validator: pubkeyOf(f.keys[0]),
		Tower: wire.TowerSync{
			Lockouts: lockouts,
			Hash:     parent,
			BlockID:  testHash("block id", last),
		},
	})

	f.sign()
	return f
}

// sign (re)signs every message with the key matching its validator.
func (f *fixture) sign() {
	f.t.Helper()
	byPub := make(map[solacc.Pubkey]ed25519.PrivateKey)
	for _, k := range f.keys {
		byPub[pubkeyOf(k)] = k
	}
	for i := range f.window.Votes {
		m := &f.window.Votes[i]
		copy(m.Signature[:], ed25519.Sign(byPub[m.Validator], m.Vote.SignBytes()))
	}
	for i := range f.window.TowerSyncs {
		m := &f.window.TowerSyncs[i]
		msg, err := m.Tower.SignBytes()
		require.NoError(f.t, err)
		copy(m.Signature[:], ed25519.Sign(byPub[m.Validator], msg))
	}
}

// slot returns the record of a slot number.
func (f *fixture) slot(n uint64) *SlotData {
	for i := range f.window.Slots {
		if f.window.Slots[i].Slot == n {
			return &f.window.Slots[i]
		}
	}
	f.t.Fatalf("no slot %d in fixture", n)
	return nil
}

// removeSlot drops the record of a slot number.
func (f *fixture) removeSlot(n uint64) {
	kept := f.window.Slots[:0]
	for _, s := range f.window.Slots {
		if s.Slot != n {
			kept = append(kept, s)
		}
	}
	f.window.Slots = kept
}

// requireViolation checks a verdict's kind and slot.
func requireViolation(t *testing.T, v Verdict, kind ViolationKind, slot uint64) {
	t.Helper()
	require.False(t, v.Valid(), "expected %s(%d), got valid", kind, slot)
	require.Equal(t, kind, v.Violation.Kind, "verdict %s", v)
	require.Equal(t, slot, v.Violation.Slot, "verdict %s", v)
}
