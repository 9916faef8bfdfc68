package confirm

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerMetricsOnce sync.Once

	attemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jitorelay",
			Subsystem: "poll",
			Name:      "attempts_total",
			Help:      "Status queries made by the poller, by phase and observed state.",
		},
		[]string{"phase", "state"},
	)

	outcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jitorelay",
			Subsystem: "poll",
			Name:      "outcomes_total",
			Help:      "Polling sessions ended, by phase and outcome.",
		},
		[]string{"phase", "outcome"},
	)
)

// RegisterMetrics registers the poller collectors with reg. Repeated calls
// are no-ops.
func RegisterMetrics(reg prometheus.Registerer) error {
	var err error
	registerMetricsOnce.Do(func() {
		for _, c := range []prometheus.Collector{attemptsTotal, outcomesTotal} {
			if err = reg.Register(c); err != nil {
				return
			}
		}
	})
	return err
}
