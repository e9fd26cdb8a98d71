package installer

import "github.com/prometheus/client_golang/prometheus"

var (
	installRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studiod",
			Subsystem: "install",
			Name:      "runs_total",
			Help:      "Completed installation runs by result",
		},
		[]string{"result"},
	)

	installStepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studiod",
			Subsystem: "install",
			Name:      "steps_total",
			Help:      "Component install steps by component and result",
		},
		[]string{"component", "result"},
	)

	installItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studiod",
			Subsystem: "install",
			Name:      "items_total",
			Help:      "Individual plugin and model installs by kind and result",
		},
		[]string{"kind", "result"},
	)

	installInProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "studiod",
			Subsystem: "install",
			Name:      "in_progress",
			Help:      "1 while an installation run is active",
		},
	)
)

func init() {
	prometheus.MustRegister(installRunsTotal, installStepsTotal, installItemsTotal, installInProgress)
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
