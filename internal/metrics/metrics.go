package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Taps = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "taps_total",
			Help: "Total accepted taps",
		},
	)
	TapRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tap_rejections_total",
			Help: "Taps rejected by the game rules",
		},
		[]string{"reason"},
	)
	Purchases = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchases_total",
			Help: "Shop purchases by outcome",
		},
		[]string{"result"},
	)
	ChainRPCDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chain_rpc_duration_seconds",
			Help:    "Latency of chain RPC calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
	ExpiredTransactions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pending_transactions_expired_total",
			Help: "Pending purchases failed by the housekeeping job",
		},
	)
)

func init() {
	prometheus.MustRegister(Taps, TapRejections, Purchases, ChainRPCDuration, ExpiredTransactions)
}
