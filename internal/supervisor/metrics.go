package supervisor

import "github.com/prometheus/client_golang/prometheus"

var (
	launchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "procsup",
			Subsystem: "supervisor",
			Name:      "launches_total",
			Help:      "Total launch attempts by result",
		},
		[]string{"name", "result"},
	)

	exitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "procsup",
			Subsystem: "supervisor",
			Name:      "exits_total",
			Help:      "Total child exits; kind is signaled or unexpected",
		},
		[]string{"name", "kind"},
	)

	signalsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "procsup",
			Subsystem: "supervisor",
			Name:      "signals_sent_total",
			Help:      "Total termination signals delivered to children",
		},
		[]string{"name"},
	)

	liveProcesses = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "procsup",
			Subsystem: "supervisor",
			Name:      "live_processes",
			Help:      "Children currently in the live set",
		},
	)
)

func init() {
	prometheus.MustRegister(launchesTotal, exitsTotal, signalsSentTotal, liveProcesses)
}
