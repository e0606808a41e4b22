// Package store archives verdicts in leveldb so a window verified once can
// be looked up again by what was verified.
package store

import (
	"bytes"
	"crypto/sha256"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/twine-labs/solproof/accumulator"
	"github.com/twine-labs/solproof/common"
	"github.com/twine-labs/solproof/consensus"
)

// Record is one archived verdict.
type Record struct {
	Verdict consensus.Verdict
	Time    time.Time
}

// VerdictStore maps window keys to the verdict they got.
type VerdictStore struct {
	lvdb *leveldb.DB
}

// WindowKey identifies verifying a serialized window against an anchor:
// sha256(window bytes || anchor).
func WindowKey(windowBytes []byte, anchor accumulator.Hash) accumulator.Hash {
	h := sha256.New()
	h.Write(windowBytes)
	h.Write(anchor[:])
	var key accumulator.Hash
	copy(key[:], h.Sum(nil))
	return key
}

// Open opens or creates the archive in the directory path.
func Open(path string) (*VerdictStore, error) {
	o := new(opt.Options)
	lvdb, err := leveldb.OpenFile(path, o)
	if err != nil {
		return nil, err
	}
	log.Debugf("opened verdict archive at %s", path)
	return &VerdictStore{lvdb: lvdb}, nil
}

// OpenStorage opens the archive on an arbitrary leveldb storage.
func OpenStorage(stor storage.Storage) (*VerdictStore, error) {
	lvdb, err := leveldb.Open(stor, nil)
	if err != nil {
		return nil, err
	}
	return &VerdictStore{lvdb: lvdb}, nil
}

// Put archives a verdict under key, replacing any earlier one.
func (s *VerdictStore) Put(key accumulator.Hash, v consensus.Verdict,
	at time.Time) error {

	var buf bytes.Buffer
	fb := common.NewFreeBytes()
	defer fb.Free()

	// writes to a bytes.Buffer don't fail
	fb.PutUint64(&buf, uint64(at.Unix()))
	if err := v.Serialize(&buf); err != nil {
		return err
	}

	var batch leveldb.Batch
	batch.Put(key[:], buf.Bytes())
	if err := s.lvdb.Write(&batch, nil); err != nil {
		return err
	}
	log.Tracef("archived %s under %s", v, key)
	return nil
}

// Get returns the verdict archived under key.
func (s *VerdictStore) Get(key accumulator.Hash) (*Record, error) {
	val, err := s.lvdb.Get(key[:], nil)
	if err == leveldb.ErrNotFound {
		return nil, errNotFound(key)
	}
	if err != nil {
		return nil, err
	}

	fb := common.NewFreeBytes()
	defer fb.Free()

	r := bytes.NewReader(val)
	secs, err := fb.Uint64(r)
	if err != nil {
		return nil, errCorruptEntry(key, err)
	}
	rec := &Record{Time: time.Unix(int64(secs), 0)}
	if err := rec.Verdict.Deserialize(r); err != nil {
		return nil, errCorruptEntry(key, err)
	}
	return rec, nil
}

// Has says whether anything is archived under key.
func (s *VerdictStore) Has(key accumulator.Hash) (bool, error) {
	return s.lvdb.Has(key[:], nil)
}

// Close allows leveldb to close gracefully.
func (s *VerdictStore) Close() error {
	return s.lvdb.Close()
}
