package consensus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what the verifier did. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Verdicts     *prometheus.CounterVec
	Checked      *prometheus.CounterVec
	Duration     prometheus.Histogram
	SigCacheHits prometheus.Counter
}

// NewMetrics creates the verifier metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Verdicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solproof_verdicts_total",
				Help: "Windows verified, by result and violation kind",
			},
			[]string{"result", "kind"}, // result: valid, invalid
		),
		Checked: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solproof_checked_items_total",
				Help: "Items carried by verified windows, by check",
			},
			[]string{"check"}, // check: slot, proof, signature
		),
		Duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "solproof_verify_duration_seconds",
				Help:    "Time spent verifying one window",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
		),
		SigCacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "solproof_sigcache_hits_total",
				Help: "Signatures answered from the signature cache",
			},
		),
	}
	for _, c := range []prometheus.Collector{
		m.Verdicts, m.Checked, m.Duration, m.SigCacheHits,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(w *Window, v Verdict, elapsed time.Duration) {
	if m == nil {
		return
	}
	if v.Valid() {
		m.Verdicts.WithLabelValues("valid", "").Inc()
	} else {
		m.Verdicts.WithLabelValues("invalid", v.Violation.Kind.String()).Inc()
	}
	if w != nil {
		m.Checked.WithLabelValues("slot").Add(float64(len(w.Slots)))
		m.Checked.WithLabelValues("proof").Add(float64(len(w.Proofs)))
		m.Checked.WithLabelValues("signature").Add(
			float64(len(w.Votes) + len(w.TowerSyncs)))
	}
	m.Duration.Observe(elapsed.Seconds())
}

func (m *Metrics) sigCacheHit() {
	if m == nil {
		return
	}
	m.SigCacheHits.Inc()
}
