package main

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	opCounters     *prometheus.CounterVec
	opDurations    *prometheus.HistogramVec
	metricsEnabled bool
)

func initMetrics() {
	opCounters = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "osbench_ops_total",
		Help: "Number of benchmark operations",
	},
		[]string{"op", "status"},
	)
	prometheus.MustRegister(opCounters)

	opDurations = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "osbench_op_duration_nanoseconds",
		Help:    "Duration of benchmark operations in nanoseconds",
		Buckets: prometheus.ExponentialBuckets(64, 2, 25),
	},
		[]string{"op"},
	)
	prometheus.MustRegister(opDurations)
	metricsEnabled = true
}

func setMetrics() {
	if !config.enablePrometheusMetrics {
		return
	}
	initMetrics()
	http.Handle("/metrics", promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		DisableCompression: true,
	}))
	go func() {
		if err := http.ListenAndServe(":8090", nil); err != nil {
			logrus.WithError(err).Warn("metrics listener failed")
		}
	}()
}

func observeOp(op string, d time.Duration, err error) {
	if !metricsEnabled {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	opCounters.WithLabelValues(op, status).Inc()
	opDurations.WithLabelValues(op).Observe(float64(d.Nanoseconds()))
}
