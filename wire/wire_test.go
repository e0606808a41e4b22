package wire

import (
	"bytes"
	"errors"
	"testing"

	"github.com/twine-labs/solproof/accumulator"
)

func TestVoteSignBytesLayout(t *testing.T) {
	ts := int64(-1)
	v := Vote{
		Slots:     []uint64{100, 101},
		Hash:      accumulator.Hash{0xab},
		Timestamp: &ts,
	}

	var want []byte
	want = append(want, 2, 0, 0, 0) // VoteInstruction::Vote
	want = append(want, 2, 0, 0, 0, 0, 0, 0, 0)
	want = append(want, 100, 0, 0, 0, 0, 0, 0, 0)
	want = append(want, 101, 0, 0, 0, 0, 0, 0, 0)
	want = append(want, v.Hash[:]...)
	want = append(want, 1, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)

	got := v.SignBytes()
	if !bytes.Equal(got, want) {
		t.Fatalf("sign bytes\n got % x\nwant % x", got, want)
	}
}

func TestVoteRoundTrip(t *testing.T) {
	v := Vote{Slots: []uint64{7, 8, 9}, Hash: accumulator.Hash{1}}
	var buf bytes.Buffer
	if err := v.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	var back Vote
	if err := back.Decode(&buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(back.SignBytes(), v.SignBytes()) {
		t.Fatal("vote changed across round trip")
	}
	if back.Timestamp != nil {
		t.Fatal("timestamp should stay empty")
	}
	last, ok := back.LastSlot()
	if !ok || last != 9 {
		t.Fatalf("last slot %d %v", last, ok)
	}
}

func TestVoteSanity(t *testing.T) {
	var v Vote
	if !errors.Is(v.Sanity(), ErrEmptyVote) {
		t.Fatal("empty vote should fail sanity")
	}
	v.Slots = make([]uint64, MaxVoteSlots+1)
	if v.Sanity() == nil {
		t.Fatal("huge vote should fail sanity")
	}
}

func TestTowerSyncSignBytesLayout(t *testing.T) {
	root := uint64(100)
	ts := TowerSync{
		Lockouts: []Lockout{{Slot: 101, ConfirmationCount: 2}, {Slot: 300, ConfirmationCount: 1}},
		Root:     &root,
		Hash:     accumulator.Hash{1},
		BlockID:  accumulator.Hash{2},
	}

	var want []byte
	want = append(want, 14, 0, 0, 0) // VoteInstruction::TowerSync
	want = append(want, 100, 0, 0, 0, 0, 0, 0, 0)
	want = append(want, 2)       // short_vec len
	want = append(want, 1, 2)    // offset 1, conf 2
	want = append(want, 0xc7, 1) // offset 199 as varint, conf 1
	want = append(want, ts.Hash[:]...)
	want = append(want, 0) // no timestamp
	want = append(want, ts.BlockID[:]...)

	got, err := ts.SignBytes()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("sign bytes\n got % x\nwant % x", got, want)
	}
}

func TestTowerSyncRoundTrip(t *testing.T) {
	stamp := int64(1700000000)
	for _, root := range []*uint64{nil, new(uint64)} {
		ts := TowerSync{
			Lockouts: []Lockout{
				{Slot: 5, ConfirmationCount: 31},
				{Slot: 5, ConfirmationCount: 30},
				{Slot: 1 << 40, ConfirmationCount: 1},
			},
			Root:      root,
			Hash:      accumulator.Hash{9},
			Timestamp: &stamp,
			BlockID:   accumulator.Hash{8},
		}
		var buf bytes.Buffer
		if err := ts.Encode(&buf); err != nil {
			t.Fatal(err)
		}
		var back TowerSync
		if err := back.Decode(&buf); err != nil {
			t.Fatal(err)
		}
		a, _ := ts.SignBytes()
		b, _ := back.SignBytes()
		if !bytes.Equal(a, b) {
			t.Fatal("tower changed across round trip")
		}
		if (root == nil) != (back.Root == nil) {
			t.Fatal("root presence changed")
		}
	}
}

func TestTowerSyncSanity(t *testing.T) {
	root := uint64(50)
	cases := []struct {
		name string
		ts   TowerSync
		want error
	}{
		{"empty", TowerSync{}, ErrEmptyTowerSync},
		{"deep", TowerSync{Lockouts: make([]Lockout, MaxLockoutHistory+1)}, ErrTowerTooDeep},
		{"below root", TowerSync{Root: &root, Lockouts: []Lockout{{Slot: 49}}}, ErrLockoutOrder},
		{"descending", TowerSync{Lockouts: []Lockout{{Slot: 9}, {Slot: 8}}}, ErrLockoutOrder},
		{"count", TowerSync{Lockouts: []Lockout{{Slot: 1, ConfirmationCount: 256}}}, ErrLockoutCount},
	}
	for _, c := range cases {
		if err := c.ts.Sanity(); !errors.Is(err, c.want) {
			t.Errorf("%s: got %v want %v", c.name, err, c.want)
		}
		if _, err := c.ts.SignBytes(); err == nil {
			t.Errorf("%s: SignBytes should fail", c.name)
		}
	}
}

func TestShortU16(t *testing.T) {
	for _, n := range []uint16{0, 1, 0x7f, 0x80, 0x3fff, 0x4000, 0xffff} {
		var buf bytes.Buffer
		putShortU16(&buf, n)
		got, err := readShortU16(&buf)
		if err != nil || got != n {
			t.Fatalf("short_u16 %d -> %d %v", n, got, err)
		}
	}

	// 0x80 0x00 is a non-minimal zero
	if _, err := readShortU16(bytes.NewReader([]byte{0x80, 0x00})); !errors.Is(err, ErrVarint) {
		t.Fatalf("expected ErrVarint, got %v", err)
	}
	// four continuation bytes
	if _, err := readShortU16(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0x01})); !errors.Is(err, ErrVarint) {
		t.Fatalf("expected ErrVarint, got %v", err)
	}
	// 0xff 0xff 0x07 would be 0x1fffff
	if _, err := readShortU16(bytes.NewReader([]byte{0xff, 0xff, 0x07})); !errors.Is(err, ErrVarint) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestVarint(t *testing.T) {
	for _, n := range []uint64{0, 1, 127, 128, 199, 1 << 35, 1<<64 - 1} {
		var buf bytes.Buffer
		putVarint(&buf, n)
		got, err := readVarint(&buf)
		if err != nil || got != n {
			t.Fatalf("varint %d -> %d %v", n, got, err)
		}
	}
	if _, err := readVarint(bytes.NewReader([]byte{0x81, 0x00})); !errors.Is(err, ErrVarint) {
		t.Fatalf("expected ErrVarint, got %v", err)
	}
}
