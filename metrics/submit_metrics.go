package metrics

import (
	"math/big"
	"time"

	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const SubmitSubsystem = "submit"

// SubmitMetrics contains metrics collected by the submission pipeline and the confirmation tracker.
type SubmitMetrics interface {
	RecordSubmission(strategy, outcome string)
	RecordMint(mintAmount *big.Int)
	RecordConfirmation(status string, elapsed time.Duration)
}

type submitMetrics struct {
	submissions   *stdprometheus.CounterVec
	mintAmount    stdprometheus.Histogram
	confirmations *stdprometheus.HistogramVec
}

func NewSubmitMetrics(registerer stdprometheus.Registerer, namespace string) SubmitMetrics {
	factory := promauto.With(registerer)
	return &submitMetrics{
		submissions: factory.NewCounterVec(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: SubmitSubsystem,
			Name:      "submissions_total",
			Help:      "Number of facet transactions submitted, by strategy and outcome",
		}, []string{"strategy", "outcome"}),
		mintAmount: factory.NewHistogram(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: SubmitSubsystem,
			Name:      "mint_amount",
			Help:      "Compute token minted per submitted transaction",
			Buckets:   stdprometheus.ExponentialBuckets(1e12, 10, 10),
		}),
		confirmations: factory.NewHistogramVec(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: SubmitSubsystem,
			Name:      "confirmation_seconds",
			Help:      "Time from L1 submission to a terminal L2 status",
			Buckets:   []float64{1, 5, 12, 24, 36, 48, 60, 120},
		}, []string{"status"}),
	}
}

func (m *submitMetrics) RecordSubmission(strategy, outcome string) {
	m.submissions.WithLabelValues(strategy, outcome).Inc()
}

func (m *submitMetrics) RecordMint(mintAmount *big.Int) {
	f, _ := new(big.Float).SetInt(mintAmount).Float64()
	m.mintAmount.Observe(f)
}

func (m *submitMetrics) RecordConfirmation(status string, elapsed time.Duration) {
	m.confirmations.WithLabelValues(status).Observe(elapsed.Seconds())
}

type noopSubmitMetrics struct{}

func NewNoopSubmitMetrics() SubmitMetrics {
	return noopSubmitMetrics{}
}

func (noopSubmitMetrics) RecordSubmission(_, _ string) {}

func (noopSubmitMetrics) RecordMint(_ *big.Int) {}

func (noopSubmitMetrics) RecordConfirmation(_ string, _ time.Duration) {}
