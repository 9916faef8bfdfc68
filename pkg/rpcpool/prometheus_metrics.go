package rpcpool

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerMetricsOnce sync.Once

	selectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jitorelay",
			Subsystem: "egress",
			Name:      "selections_total",
			Help:      "Number of requests assigned to each egress endpoint.",
		},
		[]string{"endpoint"},
	)
)

// RegisterMetrics registers the pool collectors with reg. Repeated calls are
// no-ops.
func RegisterMetrics(reg prometheus.Registerer) error {
	var err error
	registerMetricsOnce.Do(func() {
		err = reg.Register(selectionsTotal)
	})
	return err
}
