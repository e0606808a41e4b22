package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	flags "github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/twine-labs/solproof/config"
	"github.com/twine-labs/solproof/consensus"
	"github.com/twine-labs/solproof/log"
	"github.com/twine-labs/solproof/store"
)

func main() {
	// listen for SIGINT, SIGTERM, or SIGQUIT from the os
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

// run is the whole command; it returns the exit status.
func run(ctx context.Context, args []string, out io.Writer) int {
	cfg, err := config.Load(args)
	if err != nil {
		var e *flags.Error
		if errors.As(err, &e) && e.Type == flags.ErrHelp {
			fmt.Fprintln(out, e.Message)
			return 0
		}
		fmt.Fprintln(out, err)
		return 1
	}

	if err := log.InitLogRotator(cfg.LogFile); err != nil {
		fmt.Fprintln(out, err)
		return 1
	}
	defer log.Close()
	svfyLog := log.Verifier()

	fmt.Fprintln(out, "Solana Consensus Window Verifier")
	fmt.Fprintln(out, "================================")

	fmt.Fprintf(out, "Loading window from: %s\n", cfg.Window)
	raw, err := os.ReadFile(cfg.Window)
	if err != nil {
		fmt.Fprintf(out, "Error reading window: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Using anchor bank hash: %s\n", cfg.AnchorHash)

	var (
		reg     *prometheus.Registry
		metrics *consensus.Metrics
		cache   *consensus.SigCache
	)
	if cfg.MetricsFile != "" {
		reg = prometheus.NewRegistry()
		if metrics, err = consensus.NewMetrics(reg); err != nil {
			fmt.Fprintln(out, err)
			return 1
		}
	}
	if cfg.SigCacheSize > 0 {
		if cache, err = consensus.NewSigCache(cfg.SigCacheSize); err != nil {
			fmt.Fprintln(out, err)
			return 1
		}
		defer cache.Close()
	}

	fmt.Fprintln(out, "Performing verification...")
	var verdict consensus.Verdict
	w, err := consensus.WindowFromBytes(raw)
	if err != nil {
		svfyLog.Debugf("window does not decode: %v", err)
		verdict.Violation = &consensus.Violation{
			Kind:   consensus.MalformedInput,
			Detail: err.Error(),
		}
	} else {
		svfyLog.Infof("window [%d, %d]: %d slots, %d proofs, %d votes, "+
			"%d tower syncs", w.FirstSlot, w.LastSlot, len(w.Slots),
			len(w.Proofs), len(w.Votes), len(w.TowerSyncs))

		verifier := consensus.New(consensus.Config{
			Workers:       cfg.Workers,
			SigCache:      cache,
			Metrics:       metrics,
			BridgeProgram: cfg.ProgramID,
		})
		verdict, err = verifier.Verify(ctx, w, cfg.AnchorHash)
		if err != nil {
			fmt.Fprintf(out, "Verification interrupted: %v\n", err)
			return 1
		}
	}

	if !cfg.NoStore {
		if err := archive(cfg, raw, verdict, out); err != nil {
			svfyLog.Errorf("archiving verdict: %v", err)
		}
	}

	if verdict.Valid() {
		fmt.Fprintln(out, "VERIFICATION SUCCESSFUL: the Solana consensus window is valid!")
		for _, d := range consensus.Deposits(w, cfg.ProgramID) {
			fmt.Fprintf(out, "  slot %d account %s: %s\n", d.Slot, d.Account,
				d.Deposit)
		}
	} else {
		fmt.Fprintln(out, "VERIFICATION FAILED: the Solana consensus window is invalid.")
		fmt.Fprintf(out, "Error: %v\n", verdict.Violation)
	}

	if reg != nil {
		if err := prometheus.WriteToTextfile(cfg.MetricsFile, reg); err != nil {
			svfyLog.Errorf("writing metrics: %v", err)
		}
	}

	if !verdict.Valid() {
		return 1
	}
	return 0
}

// archive records the verdict and reports what an earlier run of the same
// window and anchor concluded.
func archive(cfg *config.Config, raw []byte, verdict consensus.Verdict,
	out io.Writer) error {

	vs, err := store.Open(cfg.VerdictsDir)
	if err != nil {
		return err
	}
	defer vs.Close()

	key := store.WindowKey(raw, cfg.AnchorHash)
	prev, err := vs.Get(key)
	switch {
	case err == nil:
		fmt.Fprintf(out, "Previously verified at %s: %s\n",
			prev.Time.Format(time.RFC3339), prev.Verdict)
		if prev.Verdict.String() != verdict.String() {
			log.Verifier().Warnf("verdict for %s changed from %s to %s",
				key, prev.Verdict, verdict)
		}
	case !errors.Is(err, store.ErrNotFound):
		return err
	}
	return vs.Put(key, verdict, time.Now())
}
