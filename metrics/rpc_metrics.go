// Package metrics records RPC latency and submission outcomes in prometheus.
package metrics

import (
	"time"

	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	L1Subsystem = "l1"
	L2Subsystem = "l2"
)

var RPCMethodDurationBucketsMicroseconds = []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000, 1000000}

type Metrics interface {
	RecordRPCMethodCall(method string, start time.Time)
}

type RPCMetrics struct {
	// Count and duration of each RPC method call.
	MethodCalls *stdprometheus.HistogramVec
}

func NewRPCMetrics(namespace, subsystem, info string, buckets []float64) *RPCMetrics {
	return &RPCMetrics{
		MethodCalls: promauto.NewHistogramVec(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "method_call",
			Help:      info,
			Buckets:   buckets,
		}, []string{
			"method",
		}),
	}
}

// NewClientMetrics builds the histogram for the RPC client of one chain (L1Subsystem or L2Subsystem).
func NewClientMetrics(namespace, subsystem string) *RPCMetrics {
	return NewRPCMetrics(
		namespace,
		subsystem,
		"Duration of each "+subsystem+" RPC method call in microseconds",
		RPCMethodDurationBucketsMicroseconds,
	)
}

func (m *RPCMetrics) RecordRPCMethodCall(method string, start time.Time) {
	methodCallDuration := float64(time.Since(start).Microseconds())
	m.MethodCalls.WithLabelValues(method).Observe(methodCallDuration)
}

type RPCNoopMetrics struct{}

func (m *RPCNoopMetrics) RecordRPCMethodCall(_ string, _ time.Time) {}
