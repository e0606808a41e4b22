package consensus

import (
	"context"
	"time"

	"github.com/twine-labs/solproof/accumulator"
	"github.com/twine-labs/solproof/solacc"
	"golang.org/x/sync/errgroup"
)

// Config holds the optional knobs of a Verifier. The zero value is a
// working configuration.
type Config struct {
	// Workers caps the goroutines used by each of the proof and
	// signature batches. Zero picks a number from the cpu count.
	Workers int

	// SigCache, when set, is consulted before any ed25519 check.
	SigCache *SigCache

	// Metrics, when set, is updated after every verification.
	Metrics *Metrics

	// BridgeProgram, when set, restricts deposits to accounts it owns.
	BridgeProgram *solacc.Pubkey
}

// Verifier checks windows. It holds no per window state, so one Verifier
// may verify many windows concurrently.
type Verifier struct {
	cfg Config
}

// New returns a Verifier using cfg.
func New(cfg Config) *Verifier {
	return &Verifier{cfg: cfg}
}

// Verify checks w against the trusted bank hash of the slot just before
// it. The checks run in a fixed order and the first failing one decides
// the verdict:
//
//  1. structure (MalformedInput)
//  2. bank hash chain (ChainBreak)
//  3. account-delta proofs (UnknownSlot, MerkleMismatch)
//  4. vote and tower-sync signatures (BadSignature)
//  5. completeness (UnknownSlot, MissingSlot, DuplicateSlot)
//  6. deposit presence (NoDepositFound)
//
// Proofs and signatures are checked at the same time but a proof violation
// always wins over a signature violation, so the verdict is the same on
// every run. The returned error is non nil only when ctx is done before
// the verdict is known; the verdict is then meaningless.
func (v *Verifier) Verify(ctx context.Context, w *Window,
	anchor accumulator.Hash) (Verdict, error) {

	start := time.Now()
	verdict, err := v.verify(ctx, w, anchor)
	if err != nil {
		log.Debugf("verification abandoned: %v", err)
		return Verdict{}, err
	}
	v.cfg.Metrics.observe(w, verdict, time.Since(start))

	if verdict.Valid() {
		log.Debugf("window [%d, %d] valid: %d slots, %d proofs, %d votes, "+
			"%d tower syncs", w.FirstSlot, w.LastSlot, len(w.Slots),
			len(w.Proofs), len(w.Votes), len(w.TowerSyncs))
	} else {
		log.Debugf("window rejected: %v", verdict.Violation)
	}
	return verdict, nil
}

func (v *Verifier) verify(ctx context.Context, w *Window,
	anchor accumulator.Hash) (Verdict, error) {

	if vi := CheckStructure(w); vi != nil {
		return Verdict{Violation: vi}, nil
	}
	if err := ctx.Err(); err != nil {
		return Verdict{}, err
	}
	if vi := CheckChain(w, anchor); vi != nil {
		return Verdict{Violation: vi}, nil
	}

	var proofV, sigV *Violation
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		proofV, err = CheckProofs(gctx, w, v.cfg.Workers)
		return err
	})
	g.Go(func() error {
		var err error
		sigV, err = checkSignatures(gctx, w, v.cfg.SigCache,
			v.cfg.Metrics, v.cfg.Workers)
		return err
	})
	if err := g.Wait(); err != nil {
		return Verdict{}, err
	}
	if proofV != nil {
		return Verdict{Violation: proofV}, nil
	}
	if sigV != nil {
		return Verdict{Violation: sigV}, nil
	}

	if vi := CheckCompleteness(w); vi != nil {
		return Verdict{Violation: vi}, nil
	}
	if vi := CheckDeposits(w, v.cfg.BridgeProgram); vi != nil {
		return Verdict{Violation: vi}, nil
	}
	return Verdict{}, nil
}

// Verify checks w against anchor with the default configuration. It is a
// pure function of its arguments.
func Verify(w *Window, anchor accumulator.Hash) Verdict {
	// the background context never ends, so there is no error
	verdict, _ := New(Config{}).Verify(context.Background(), w, anchor)
	return verdict
}
