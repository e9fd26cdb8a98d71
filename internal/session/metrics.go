package session

import "github.com/prometheus/client_golang/prometheus"

var (
	sessionStartsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "studiod",
			Subsystem: "session",
			Name:      "starts_total",
			Help:      "Accepted session start requests",
		},
	)

	artServerReady = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "studiod",
			Name:      "art_server_ready",
			Help:      "1 once the art server answered its health endpoint",
		},
	)
)

func init() {
	prometheus.MustRegister(sessionStartsTotal, artServerReady)
}
